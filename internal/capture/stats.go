// Package capture reads file-level facts (packet count, duration, link
// type) straight from the capture file. It never decodes packet payloads;
// that stays with the external decoder.
package capture

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcapgo"
)

// PacketStats are file-level facts about a capture.
type PacketStats struct {
	TotalPackets    int     `json:"total_packets"`
	DurationSeconds float64 `json:"duration_seconds"`
	LinkType        string  `json:"link_type"`
}

// Capture contexts derived from what the analysis actually decoded.
const (
	ContextIMSCore     = "IMS_CORE"
	ContextTransportIP = "TRANSPORT_IP"
	ContextUnknown     = "UNKNOWN"
)

const pcapngMagic = 0x0A0D0D0A

type packetReader interface {
	ReadPacketData() ([]byte, gopacket.CaptureInfo, error)
}

// Stats walks the capture once and counts packets and the covered time
// span. Both pcap and pcapng files are accepted, chosen by magic number.
func Stats(path string) (*PacketStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open capture: %w", err)
	}
	defer f.Close()

	var magic [4]byte
	if _, err := io.ReadFull(f, magic[:]); err != nil {
		return nil, fmt.Errorf("read capture header: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	if binary.BigEndian.Uint32(magic[:]) == pcapngMagic {
		r, err := pcapgo.NewNgReader(f, pcapgo.DefaultNgReaderOptions)
		if err != nil {
			return nil, fmt.Errorf("read pcapng: %w", err)
		}
		return count(r, r.LinkType().String()), nil
	}

	r, err := pcapgo.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("read pcap: %w", err)
	}
	return count(r, r.LinkType().String()), nil
}

func count(r packetReader, linkType string) *PacketStats {
	stats := &PacketStats{LinkType: linkType}
	var first, last time.Time
	for {
		_, ci, err := r.ReadPacketData()
		if err != nil {
			// EOF ends the walk; a truncated tail still yields usable counts.
			break
		}
		if stats.TotalPackets == 0 {
			first = ci.Timestamp
		}
		last = ci.Timestamp
		stats.TotalPackets++
	}
	if stats.TotalPackets > 1 {
		stats.DurationSeconds = last.Sub(first).Seconds()
	}
	return stats
}

// Context classifies what the capture is about from the analysis results:
// core telecom signaling, generic IP transport, or unknown.
func Context(sipEvents, rtpRecords, totalPackets int) string {
	switch {
	case sipEvents > 0 || rtpRecords > 0:
		return ContextIMSCore
	case totalPackets > 0:
		return ContextTransportIP
	default:
		return ContextUnknown
	}
}
