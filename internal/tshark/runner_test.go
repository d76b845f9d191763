package tshark

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sip_call_diagnoser_go/internal/engine"
)

func TestSplitRows(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want [][]string
	}{
		{
			name: "clean rows",
			out:  "1|0.0|a@b|INVITE|\n2|0.5|a@b||180\n",
			want: [][]string{
				{"1", "0.0", "a@b", "INVITE", ""},
				{"2", "0.5", "a@b", "", "180"},
			},
		},
		{
			name: "skips short and empty lines",
			out:  "1|0.0\n\n2|0.5|a@b||200\n",
			want: [][]string{
				{"2", "0.5", "a@b", "", "200"},
			},
		},
		{
			name: "strips carriage returns",
			out:  "1|0.0|a@b|ACK|\r\n",
			want: [][]string{
				{"1", "0.0", "a@b", "ACK", ""},
			},
		},
		{
			name: "empty output",
			out:  "",
			want: nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, splitRows(tc.out, 5))
		})
	}
}

func TestDecodeFieldsBinaryMissing(t *testing.T) {
	r := NewRunner("definitely-not-a-real-tshark-binary", time.Second)

	_, err := r.DecodeFields(context.Background(), "capture.pcap", "sip", engine.SipFields)
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrDecodeUnavailable)
}

func TestNewRunnerDefaults(t *testing.T) {
	r := NewRunner("", 0)
	assert.Equal(t, DefaultBinary, r.binary)
	assert.Equal(t, DefaultTimeout, r.timeout)
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "first", firstLine("  first\nsecond\n"))
	assert.Equal(t, "only", firstLine("only"))
	assert.Equal(t, "", firstLine(""))
}
