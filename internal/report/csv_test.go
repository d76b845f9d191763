package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sip_call_diagnoser_go/internal/engine"
)

func TestWriteCallsCSV(t *testing.T) {
	latency := 1.234
	result := &engine.AnalysisResult{
		Calls: []engine.PerCallResult{
			{
				CallID: "ok@pbx",
				FinalVerdict: engine.FinalVerdict{
					FinalOutcome:        engine.FinalSuccess,
					FailureStage:        engine.StageNone,
					ProtocolResponsible: engine.StageNone,
				},
				CallClassification: engine.CallClassification{
					Outcome:           engine.OutcomeSuccess,
					RootCause:         "No issue detected",
					InviteToOkLatency: &latency,
				},
				Rtp: engine.MediaVerdict{RtpPresent: true, Direction: engine.DirectionBidirectional},
			},
			{
				CallID: "bad@pbx",
				FinalVerdict: engine.FinalVerdict{
					FinalOutcome:        engine.FinalSipFailure,
					FailureStage:        engine.StageSIP,
					ProtocolResponsible: engine.StageSIP,
				},
				CallClassification: engine.CallClassification{
					Outcome:   engine.OutcomeFailedEarly,
					RootCause: "Client-side SIP failure (busy, forbidden, invalid number)",
				},
				Rtp:    engine.MediaVerdict{Direction: engine.DirectionNone},
				Export: engine.ExportInfo{PcapAvailable: true, S3Location: "s3://bucket/abc_failing.pcap"},
			},
		},
	}

	path := filepath.Join(t.TempDir(), "calls.csv")
	require.NoError(t, WriteCallsCSV(path, result))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "call_id", rows[0][0])

	assert.Equal(t, "ok@pbx", rows[1][0])
	assert.Equal(t, "SUCCESS", rows[1][1])
	assert.Equal(t, "1.234", rows[1][8])
	assert.Empty(t, rows[1][9])

	assert.Equal(t, "bad@pbx", rows[2][0])
	assert.Equal(t, "SIP_FAILURE", rows[2][1])
	assert.Empty(t, rows[2][8])
	assert.Equal(t, "s3://bucket/abc_failing.pcap", rows[2][9])
}
