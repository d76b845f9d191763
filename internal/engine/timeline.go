package engine

import "sort"

// MergeTimeline interleaves a call's SIP events with sampled RTP boundary
// markers into one chronologically ordered sequence. SIP is rendered at full
// fidelity; RTP contributes at most two entries (media start and media end),
// and only one when the burst is a single packet.
func MergeTimeline(events []SipEvent, rtpInWindow []RtpRecord) []TimelineEntry {
	timeline := make([]TimelineEntry, 0, len(events)+2)

	for _, ev := range events {
		var label string
		switch {
		case ev.Method != "":
			label = ev.Method
		case ev.StatusCode != "":
			label = "SIP " + ev.StatusCode
		default:
			label = "SIP"
		}
		timeline = append(timeline, TimelineEntry{
			Time:   ev.Packet.Time,
			Kind:   TimelineKindSIP,
			Label:  label,
			Packet: ev.Packet,
		})
	}

	if len(rtpInWindow) > 0 {
		first, last := rtpBounds(rtpInWindow)
		timeline = append(timeline, TimelineEntry{
			Time:   first.Time,
			Kind:   TimelineKindRTP,
			Label:  "RTP started",
			Packet: first,
		})
		if last.Frame != first.Frame {
			timeline = append(timeline, TimelineEntry{
				Time:   last.Time,
				Kind:   TimelineKindRTP,
				Label:  "RTP ended",
				Packet: last,
			})
		}
	}

	// Full re-sort after concatenation so mixed-source ties stay deterministic.
	sort.SliceStable(timeline, func(i, j int) bool {
		if timeline[i].Time != timeline[j].Time {
			return timeline[i].Time < timeline[j].Time
		}
		return timeline[i].Packet.Frame < timeline[j].Packet.Frame
	})
	return timeline
}

// rtpBounds finds the earliest and latest records by (time, frame) without
// trusting the input order.
func rtpBounds(records []RtpRecord) (first, last PacketRef) {
	first, last = records[0].Packet, records[0].Packet
	for _, r := range records[1:] {
		if r.Packet.Time < first.Time ||
			(r.Packet.Time == first.Time && r.Packet.Frame < first.Frame) {
			first = r.Packet
		}
		if r.Packet.Time > last.Time ||
			(r.Packet.Time == last.Time && r.Packet.Frame > last.Frame) {
			last = r.Packet
		}
	}
	return first, last
}
