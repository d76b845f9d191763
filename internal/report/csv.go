// Package report writes a CSV index of per-call verdicts for the one-shot
// CLI mode.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"sip_call_diagnoser_go/internal/engine"
)

var header = []string{
	"call_id",
	"final_verdict",
	"outcome",
	"root_cause",
	"failure_stage",
	"protocol_responsible",
	"rtp_present",
	"rtp_direction",
	"invite_to_200_latency_sec",
	"export_location",
}

// WriteCallsCSV writes one row per analyzed call to path.
func WriteCallsCSV(path string, result *engine.AnalysisResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}

	for _, call := range result.Calls {
		latency := ""
		if call.InviteToOkLatency != nil {
			latency = strconv.FormatFloat(*call.InviteToOkLatency, 'f', 3, 64)
		}
		location := call.Export.S3Location
		if location == "" {
			location = call.Export.Path
		}
		record := []string{
			call.CallID,
			string(call.FinalOutcome),
			string(call.Outcome),
			call.RootCause,
			string(call.FailureStage),
			string(call.ProtocolResponsible),
			strconv.FormatBool(call.Rtp.RtpPresent),
			string(call.Rtp.Direction),
			latency,
			location,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
