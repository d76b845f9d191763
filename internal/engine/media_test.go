package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rtp(frame int, t float64, src, dst string) RtpRecord {
	return RtpRecord{Packet: PacketRef{Frame: frame, Time: t}, SrcAddr: src, DstAddr: dst}
}

func TestRecordsInWindowInclusive(t *testing.T) {
	records := []RtpRecord{
		rtp(1, 0.9, "a", "b"),
		rtp(2, 1.0, "a", "b"),
		rtp(3, 1.5, "a", "b"),
		rtp(4, 2.0, "a", "b"),
		rtp(5, 2.1, "a", "b"),
	}

	in := RecordsInWindow(records, 1.0, 2.0)
	require.Len(t, in, 3)
	assert.Equal(t, 2, in[0].Packet.Frame)
	assert.Equal(t, 4, in[2].Packet.Frame)
}

func TestCorrelateMediaNone(t *testing.T) {
	v := CorrelateMedia(nil)

	assert.False(t, v.RtpPresent)
	assert.Equal(t, DirectionNone, v.Direction)
	assert.Equal(t, "No RTP detected, call did not progress to media", v.Inference)
	assert.Zero(t, v.TotalPackets)
	assert.Empty(t, v.Endpoints)
}

func TestCorrelateMediaOneWay(t *testing.T) {
	records := []RtpRecord{
		rtp(1, 1.0, "10.0.0.1", "10.0.0.2"),
		rtp(2, 1.1, "10.0.0.1", "10.0.0.2"),
		rtp(3, 1.2, "10.0.0.1", "10.0.0.2"),
	}

	v := CorrelateMedia(records)

	assert.True(t, v.RtpPresent)
	assert.Equal(t, DirectionOneWay, v.Direction)
	assert.Equal(t, "One-way RTP detected (possible NAT / routing issue)", v.Inference)
	assert.Equal(t, 3, v.TotalPackets)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, v.Endpoints)
}

func TestCorrelateMediaBidirectional(t *testing.T) {
	records := []RtpRecord{
		rtp(1, 1.0, "10.0.0.1", "10.0.0.2"),
		rtp(2, 1.1, "10.0.0.2", "10.0.0.1"),
	}

	v := CorrelateMedia(records)

	assert.True(t, v.RtpPresent)
	assert.Equal(t, DirectionBidirectional, v.Direction)
	assert.Equal(t, "RTP flowing in both directions", v.Inference)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, v.Endpoints)
}

func TestCorrelateMediaDistinctPairsNotReverse(t *testing.T) {
	// Two distinct src/dst pairs count as bidirectional evidence even when
	// they are not exact mirrors of each other.
	records := []RtpRecord{
		rtp(1, 1.0, "10.0.0.1", "10.0.0.2"),
		rtp(2, 1.1, "10.0.0.3", "10.0.0.2"),
	}

	v := CorrelateMedia(records)
	assert.Equal(t, DirectionBidirectional, v.Direction)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"}, v.Endpoints)
}
