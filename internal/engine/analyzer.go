package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"sip_call_diagnoser_go/internal/metrics"
)

const defaultWorkers = 4

// FieldDecoder is the external packet-decoding capability: given a capture
// and a display filter plus field list, return decoded records in capture
// order. Implementations must wrap failures with the engine's sentinel
// errors.
type FieldDecoder interface {
	DecodeFields(ctx context.Context, capture, displayFilter string, fields []string) ([][]string, error)
}

// SubcaptureExporter produces a filtered sub-capture for one call. It is
// best-effort: failures are reported as data in the ExportInfo, never as
// errors.
type SubcaptureExporter interface {
	ExportCall(ctx context.Context, capture, callID string) ExportInfo
}

// Analyzer runs the full per-capture pipeline. It holds no cross-call
// mutable state; every derived value is recomputed per request.
type Analyzer struct {
	decoder  FieldDecoder
	exporter SubcaptureExporter
	workers  int64
	log      logrus.FieldLogger
}

// NewAnalyzer builds an Analyzer. exporter may be nil to disable subcapture
// export; workers <= 0 selects the default per-call concurrency bound.
func NewAnalyzer(decoder FieldDecoder, exporter SubcaptureExporter, workers int) *Analyzer {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Analyzer{
		decoder:  decoder,
		exporter: exporter,
		workers:  int64(workers),
		log:      logrus.StandardLogger(),
	}
}

// AnalyzeCapture diagnoses every call in the capture and returns a complete,
// internally consistent result set, or fails the whole request.
//
// The SIP and RTP decodes run concurrently; both must finish before any
// per-call work starts because media windowing depends on a finished SIP
// grouping. A SIP decode failure aborts the request. An RTP decode failure
// degrades to "no media data", which is itself a modeled outcome, unless the
// decoder is unavailable entirely.
func (a *Analyzer) AnalyzeCapture(ctx context.Context, capture string) (*AnalysisResult, error) {
	started := time.Now()

	var (
		sipRows, rtpRows [][]string
		sipErr, rtpErr   error
		wg               sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		sipRows, sipErr = a.decoder.DecodeFields(ctx, capture, SipFilter, SipFields)
	}()
	go func() {
		defer wg.Done()
		rtpRows, rtpErr = a.decoder.DecodeFields(ctx, capture, RtpFilter, RtpFields)
	}()
	wg.Wait()

	if sipErr != nil {
		metrics.DecodeErrors.WithLabelValues("sip").Inc()
		metrics.AnalysesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("sip decode: %w", sipErr)
	}

	var rtpRecords []RtpRecord
	switch {
	case rtpErr == nil:
		rtpRecords = RtpRecordsFromRows(rtpRows)
	case errors.Is(rtpErr, ErrDecodeUnavailable):
		metrics.AnalysesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("rtp decode: %w", rtpErr)
	default:
		metrics.DecodeErrors.WithLabelValues("rtp").Inc()
		a.log.WithError(rtpErr).Warn("RTP decode failed, continuing without media data")
	}

	calls := GroupCalls(SipEventsFromRows(sipRows))

	// Fan out per-call work across a bounded pool; calls share no mutable
	// state. Fan in before summarization.
	sem := semaphore.NewWeighted(a.workers)
	var (
		mu      sync.Mutex
		results = make([]PerCallResult, 0, len(calls))
		callWg  sync.WaitGroup
	)
	for callID, events := range calls {
		if len(events) == 0 {
			continue // cannot occur by construction; guarded anyway
		}
		callWg.Add(1)
		go func(callID string, events []SipEvent) {
			defer callWg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				return
			}
			defer sem.Release(1)
			res := a.analyzeCall(ctx, capture, callID, events, rtpRecords)
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
		}(callID, events)
	}
	callWg.Wait()

	if err := ctx.Err(); err != nil {
		metrics.AnalysesTotal.WithLabelValues("canceled").Inc()
		return nil, err
	}

	// Map iteration order is not deterministic; fix the output order.
	sort.Slice(results, func(i, j int) bool {
		ti := results[i].Timeline
		tj := results[j].Timeline
		if len(ti) > 0 && len(tj) > 0 && ti[0].Time != tj[0].Time {
			return ti[0].Time < tj[0].Time
		}
		return results[i].CallID < results[j].CallID
	})

	verdicts := make([]FinalVerdict, len(results))
	for i, r := range results {
		verdicts[i] = r.FinalVerdict
		metrics.CallsByVerdict.WithLabelValues(string(r.FinalOutcome)).Inc()
	}

	metrics.AnalysesTotal.WithLabelValues("ok").Inc()
	metrics.AnalysisDuration.Observe(time.Since(started).Seconds())

	return &AnalysisResult{
		Capture:     capture,
		FileSummary: Summarize(verdicts),
		TotalCalls:  len(results),
		Calls:       results,
	}, nil
}

func (a *Analyzer) analyzeCall(ctx context.Context, capture, callID string, events []SipEvent, rtp []RtpRecord) PerCallResult {
	classification := Classify(events)

	windowStart := events[0].Packet.Time
	windowEnd := events[len(events)-1].Packet.Time
	inWindow := RecordsInWindow(rtp, windowStart, windowEnd)

	media := CorrelateMedia(inWindow)
	final := Aggregate(classification, media)
	timeline := MergeTimeline(events, inWindow)

	export := ExportInfo{PcapAvailable: false}
	if final.FinalOutcome != FinalSuccess && a.exporter != nil {
		export = a.exporter.ExportCall(ctx, capture, callID)
	}

	return PerCallResult{
		CallID:             callID,
		FinalVerdict:       final,
		CallClassification: classification,
		Rtp:                media,
		Timeline:           timeline,
		Export:             export,
	}
}
