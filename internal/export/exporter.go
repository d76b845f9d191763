// Package export produces filtered sub-captures for calls that need
// operator review. The whole path is best-effort: every failure is recorded
// as data on the ExportInfo and never aborts or degrades the analysis.
package export

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"sip_call_diagnoser_go/internal/engine"
	"sip_call_diagnoser_go/internal/metrics"
	"sip_call_diagnoser_go/internal/store"
)

// SubcaptureWriter is the slice of the decoder runner the exporter needs.
type SubcaptureWriter interface {
	ExportSubcapture(ctx context.Context, capture, displayFilter, outPath string) error
}

// Exporter writes one pcap per exported call under outputDir. When a
// BlobStore is configured the file is uploaded and the local copy removed.
type Exporter struct {
	writer    SubcaptureWriter
	outputDir string
	blobs     *store.BlobStore
	log       logrus.FieldLogger
}

func NewExporter(writer SubcaptureWriter, outputDir string, blobs *store.BlobStore) *Exporter {
	if outputDir == "" {
		outputDir = "output"
	}
	return &Exporter{
		writer:    writer,
		outputDir: outputDir,
		blobs:     blobs,
		log:       logrus.WithField("component", "export"),
	}
}

// ExportCall extracts the call's SIP dialog plus surrounding RTP into its
// own pcap.
func (e *Exporter) ExportCall(ctx context.Context, capture, callID string) engine.ExportInfo {
	if err := os.MkdirAll(e.outputDir, 0o755); err != nil {
		metrics.ExportsTotal.WithLabelValues("error").Inc()
		return engine.ExportInfo{PcapAvailable: false, Reason: err.Error()}
	}

	filename := callFilename(callID)
	outPath := filepath.Join(e.outputDir, filename)
	filter := fmt.Sprintf("sip.Call-ID == %q or rtp", callID)

	if err := e.writer.ExportSubcapture(ctx, capture, filter, outPath); err != nil {
		e.log.WithError(err).Warnf("subcapture export failed for call %s", callID)
		metrics.ExportsTotal.WithLabelValues("error").Inc()
		return engine.ExportInfo{PcapAvailable: false, Reason: err.Error()}
	}

	info := engine.ExportInfo{PcapAvailable: true, Path: outPath}
	if e.blobs != nil {
		location, err := e.blobs.UploadFile(ctx, outPath, filename)
		if err != nil {
			e.log.WithError(err).Warnf("upload failed for %s, keeping local copy", filename)
		} else {
			info.S3Location = location
			info.Path = ""
			if err := os.Remove(outPath); err != nil {
				e.log.WithError(err).Warnf("failed to delete local file %s", outPath)
			}
		}
	}

	metrics.ExportsTotal.WithLabelValues("ok").Inc()
	return info
}

// callFilename derives a stable, filesystem-safe name from the Call-ID.
func callFilename(callID string) string {
	hasher := sha256.New()
	hasher.Write([]byte(callID))
	return hex.EncodeToString(hasher.Sum(nil))[:16] + "_failing.pcap"
}
