package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeTimelineLabels(t *testing.T) {
	events := []SipEvent{
		request(1, 0.0, "c", "INVITE"),
		response(2, 0.5, "c", "180"),
		{Packet: PacketRef{Frame: 3, Time: 0.7}, CallID: "c"},
	}

	timeline := MergeTimeline(events, nil)
	require.Len(t, timeline, 3)

	assert.Equal(t, "INVITE", timeline[0].Label)
	assert.Equal(t, TimelineKindSIP, timeline[0].Kind)
	assert.Equal(t, "SIP 180", timeline[1].Label)
	assert.Equal(t, "SIP", timeline[2].Label)
}

func TestMergeTimelineInterleavesRtpBounds(t *testing.T) {
	events := []SipEvent{
		request(1, 0.0, "c", "INVITE"),
		response(2, 1.0, "c", "200"),
		request(3, 1.1, "c", "ACK"),
		request(10, 9.0, "c", "BYE"),
	}
	media := []RtpRecord{
		rtp(6, 2.5, "a", "b"),
		rtp(4, 1.5, "a", "b"),
		rtp(9, 8.0, "a", "b"),
	}

	timeline := MergeTimeline(events, media)
	require.Len(t, timeline, 6)

	assert.Equal(t, "RTP started", timeline[3].Label)
	assert.Equal(t, 4, timeline[3].Packet.Frame)
	assert.Equal(t, "RTP ended", timeline[4].Label)
	assert.Equal(t, 9, timeline[4].Packet.Frame)
	assert.Equal(t, "BYE", timeline[5].Label)

	for i := 1; i < len(timeline); i++ {
		assert.LessOrEqual(t, timeline[i-1].Time, timeline[i].Time)
	}
}

func TestMergeTimelineSinglePacketBurst(t *testing.T) {
	events := []SipEvent{
		request(1, 0.0, "c", "INVITE"),
	}
	media := []RtpRecord{
		rtp(2, 0.5, "a", "b"),
	}

	timeline := MergeTimeline(events, media)
	require.Len(t, timeline, 2)
	assert.Equal(t, "RTP started", timeline[1].Label)
}

func TestMergeTimelineTieBreakByFrame(t *testing.T) {
	events := []SipEvent{
		response(7, 1.0, "c", "200"),
		request(5, 1.0, "c", "INVITE"),
	}
	media := []RtpRecord{
		rtp(6, 1.0, "a", "b"),
	}

	timeline := MergeTimeline(events, media)
	require.Len(t, timeline, 3)
	assert.Equal(t, 5, timeline[0].Packet.Frame)
	assert.Equal(t, 6, timeline[1].Packet.Frame)
	assert.Equal(t, 7, timeline[2].Packet.Frame)
}
