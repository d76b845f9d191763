package engine

import "sort"

// GroupCalls partitions SIP events by Call-ID. The key is the identifier
// exactly as decoded, byte for byte; no trimming or case folding. Each
// group is re-sorted by (time_offset, frame_number) because the decoder's
// emission order is not trusted.
func GroupCalls(events []SipEvent) map[string][]SipEvent {
	calls := make(map[string][]SipEvent)
	for _, ev := range events {
		if ev.CallID == "" {
			continue
		}
		calls[ev.CallID] = append(calls[ev.CallID], ev)
	}
	for _, evs := range calls {
		sortEvents(evs)
	}
	return calls
}

func sortEvents(events []SipEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Packet.Time != events[j].Packet.Time {
			return events[i].Packet.Time < events[j].Packet.Time
		}
		return events[i].Packet.Frame < events[j].Packet.Frame
	})
}
