package engine

import "sort"

// RecordsInWindow returns the RTP records whose timestamps fall inside
// [start, end], bounds inclusive. Scoping media to the signaling window is
// the caller's responsibility; CorrelateMedia assumes pre-filtered input.
func RecordsInWindow(records []RtpRecord, start, end float64) []RtpRecord {
	var in []RtpRecord
	for _, r := range records {
		if r.Packet.Time >= start && r.Packet.Time <= end {
			in = append(in, r)
		}
	}
	return in
}

// CorrelateMedia derives a presence/direction verdict from the RTP records
// observed inside one call's signaling window.
func CorrelateMedia(records []RtpRecord) MediaVerdict {
	if len(records) == 0 {
		return MediaVerdict{
			RtpPresent: false,
			Direction:  DirectionNone,
			Inference:  "No RTP detected, call did not progress to media",
		}
	}

	pairs := make(map[[2]string]struct{})
	endpointSet := make(map[string]struct{})
	for _, r := range records {
		pairs[[2]string{r.SrcAddr, r.DstAddr}] = struct{}{}
		endpointSet[r.SrcAddr] = struct{}{}
		endpointSet[r.DstAddr] = struct{}{}
	}

	endpoints := make([]string, 0, len(endpointSet))
	for ep := range endpointSet {
		endpoints = append(endpoints, ep)
	}
	sort.Strings(endpoints)

	verdict := MediaVerdict{
		RtpPresent:   true,
		TotalPackets: len(records),
		Endpoints:    endpoints,
	}
	if len(pairs) > 1 {
		verdict.Direction = DirectionBidirectional
		verdict.Inference = "RTP flowing in both directions"
	} else {
		verdict.Direction = DirectionOneWay
		verdict.Inference = "One-way RTP detected (possible NAT / routing issue)"
	}
	return verdict
}
