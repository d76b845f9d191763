// Package tshark adapts the external tshark binary to the engine's decoder
// contracts. All packet decoding below the decoded-field-record abstraction
// happens inside tshark; this package only shells out and splits rows.
package tshark

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"sip_call_diagnoser_go/internal/engine"
)

const (
	DefaultBinary  = "tshark"
	DefaultTimeout = 2 * time.Minute
)

// Runner invokes tshark with a per-invocation timeout. A timed-out or
// canceled child process is killed; its partial output is discarded.
type Runner struct {
	binary  string
	timeout time.Duration
	log     logrus.FieldLogger
}

func NewRunner(binary string, timeout time.Duration) *Runner {
	if binary == "" {
		binary = DefaultBinary
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Runner{
		binary:  binary,
		timeout: timeout,
		log:     logrus.WithField("component", "tshark"),
	}
}

// DecodeFields runs a field extraction pass over the capture and returns one
// row per matching packet, each split into exactly len(fields) values.
// Lines that do not split into the requested count are skipped: truncated or
// irrelevant frames are expected, not errors.
func (r *Runner) DecodeFields(ctx context.Context, capture, displayFilter string, fields []string) ([][]string, error) {
	args := []string{
		"-r", capture,
		"-Y", displayFilter,
		"-T", "fields",
		"-E", "separator=|",
		"-E", "occurrence=f",
	}
	for _, f := range fields {
		args = append(args, "-e", f)
	}

	out, err := r.run(ctx, args)
	if err != nil {
		return nil, err
	}
	return splitRows(out, len(fields)), nil
}

// ExportSubcapture writes the packets matching displayFilter to outPath.
func (r *Runner) ExportSubcapture(ctx context.Context, capture, displayFilter, outPath string) error {
	_, err := r.run(ctx, []string{"-r", capture, "-Y", displayFilter, "-w", outPath})
	return err
}

func (r *Runner) run(ctx context.Context, args []string) (string, error) {
	if _, err := exec.LookPath(r.binary); err != nil {
		return "", fmt.Errorf("%w: %q not found in PATH", engine.ErrDecodeUnavailable, r.binary)
	}

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, r.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.log.WithField("args", strings.Join(args, " ")).Debug("invoking tshark")

	if err := cmd.Run(); err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s", engine.ErrDecodeTimeout, r.timeout)
		}
		return "", fmt.Errorf("%w: %v: %s", engine.ErrDecodeFailed, err, firstLine(stderr.String()))
	}
	return stdout.String(), nil
}

// splitRows splits tshark's field output into rows of exactly want values.
func splitRows(out string, want int) [][]string {
	var rows [][]string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		parts := strings.Split(line, "|")
		if len(parts) != want {
			continue
		}
		rows = append(rows, parts)
	}
	return rows
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
