package engine

import "strconv"

// Field sets requested from the external decoder. Row values arrive in this
// exact order.
var (
	SipFields = []string{
		"frame.number",
		"frame.time_relative",
		"sip.Call-ID",
		"sip.Method",
		"sip.Status-Code",
	}
	RtpFields = []string{
		"frame.number",
		"frame.time_relative",
		"ip.src",
		"ip.dst",
		"udp.srcport",
		"udp.dstport",
		"rtp.ssrc",
	}
)

// Display filters for the two decode aspects.
const (
	SipFilter = "sip"
	RtpFilter = "rtp"
)

// SipEventsFromRows converts decoded field rows into SipEvents. Rows without
// a Call-ID are dropped silently: frames that do not belong to a dialog are
// an expected part of any capture, not an error. Rows whose frame number or
// timestamp does not parse strictly are dropped for the same reason.
func SipEventsFromRows(rows [][]string) []SipEvent {
	events := make([]SipEvent, 0, len(rows))
	for _, row := range rows {
		if len(row) != len(SipFields) {
			continue
		}
		if row[2] == "" {
			continue
		}
		ref, ok := parsePacketRef(row[0], row[1])
		if !ok {
			continue
		}
		events = append(events, SipEvent{
			Packet:     ref,
			CallID:     row[2],
			Method:     row[3],
			StatusCode: row[4],
		})
	}
	return events
}

// RtpRecordsFromRows converts decoded field rows into RtpRecords. Ports and
// SSRC are optional; an absent value stays unset rather than becoming zero.
func RtpRecordsFromRows(rows [][]string) []RtpRecord {
	records := make([]RtpRecord, 0, len(rows))
	for _, row := range rows {
		if len(row) != len(RtpFields) {
			continue
		}
		ref, ok := parsePacketRef(row[0], row[1])
		if !ok {
			continue
		}
		rec := RtpRecord{
			Packet:  ref,
			SrcAddr: row[2],
			DstAddr: row[3],
			SSRC:    row[6],
		}
		rec.SrcPort = parseOptionalPort(row[4])
		rec.DstPort = parseOptionalPort(row[5])
		records = append(records, rec)
	}
	return records
}

func parsePacketRef(frameField, timeField string) (PacketRef, bool) {
	frame, err := strconv.Atoi(frameField)
	if err != nil || frame < 0 {
		return PacketRef{}, false
	}
	t, err := strconv.ParseFloat(timeField, 64)
	if err != nil {
		return PacketRef{}, false
	}
	return PacketRef{Frame: frame, Time: t}, true
}

func parseOptionalPort(s string) *int {
	if s == "" {
		return nil
	}
	p, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &p
}
