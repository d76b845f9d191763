// Package engine implements the deterministic call-correlation and
// classification core: it groups decoded SIP records into calls, classifies
// each call's outcome, correlates RTP evidence inside the call's signaling
// window, merges both into a timeline, and rolls everything up into a
// file-level summary.
package engine

// PacketRef identifies a single packet in the capture. Frame numbers and
// time offsets come from the external decoder and are never modified.
type PacketRef struct {
	Frame int     `json:"frame_number"`
	Time  float64 `json:"time_offset"`
}

// SipEvent is one decoded SIP record. Exactly one of Method/StatusCode is
// typically set; both may be empty for malformed records.
type SipEvent struct {
	Packet     PacketRef `json:"packet"`
	CallID     string    `json:"call_id"`
	Method     string    `json:"method,omitempty"`
	StatusCode string    `json:"status_code,omitempty"`
}

// RtpRecord is one decoded RTP record. Ports and SSRC are optional fields;
// nil/empty means the decoder did not emit them, which is distinct from zero.
type RtpRecord struct {
	Packet  PacketRef `json:"packet"`
	SrcAddr string    `json:"src_addr"`
	DstAddr string    `json:"dst_addr"`
	SrcPort *int      `json:"src_port,omitempty"`
	DstPort *int      `json:"dst_port,omitempty"`
	SSRC    string    `json:"ssrc,omitempty"`
}

// Outcome is the signaling-level classification of a call.
type Outcome string

const (
	OutcomeSuccess      Outcome = "SUCCESS"
	OutcomeFailedEarly  Outcome = "FAILED_EARLY"
	OutcomeDropAfter200 Outcome = "DROP_AFTER_200"
	OutcomeNoAnswer     Outcome = "NO_ANSWER"
	OutcomeIncomplete   Outcome = "INCOMPLETE"
	OutcomeUnknown      Outcome = "UNKNOWN"
)

// CallClassification is the signaling verdict for one call. It is recomputed
// from the call's full event sequence and never mutated incrementally.
type CallClassification struct {
	Outcome           Outcome    `json:"outcome"`
	Reason            string     `json:"reason"`
	RootCause         string     `json:"root_cause"`
	InvitePacket      *PacketRef `json:"invite_packet,omitempty"`
	OkPacket          *PacketRef `json:"ok_200_packet,omitempty"`
	FailurePacket     *PacketRef `json:"failure_packet,omitempty"`
	InviteToOkLatency *float64   `json:"invite_to_200_latency_sec,omitempty"`
}

// Direction describes observed RTP flow inside a call's signaling window.
type Direction string

const (
	DirectionNone          Direction = "NONE"
	DirectionOneWay        Direction = "ONE_WAY"
	DirectionBidirectional Direction = "BIDIRECTIONAL"
)

// MediaVerdict is a presence/direction heuristic only; quality scoring is
// out of scope.
type MediaVerdict struct {
	RtpPresent   bool      `json:"rtp_present"`
	Direction    Direction `json:"direction"`
	TotalPackets int       `json:"total_packets,omitempty"`
	Endpoints    []string  `json:"endpoints,omitempty"`
	Inference    string    `json:"inference"`
}

// FinalOutcome combines signaling and media conclusions.
type FinalOutcome string

const (
	FinalSipFailure    FinalOutcome = "SIP_FAILURE"
	FinalMediaFailure  FinalOutcome = "MEDIA_FAILURE"
	FinalMediaDegraded FinalOutcome = "MEDIA_DEGRADED"
	FinalSuccess       FinalOutcome = "SUCCESS"
)

// Stage names the protocol layer a verdict points at.
type Stage string

const (
	StageSIP  Stage = "SIP"
	StageRTP  Stage = "RTP"
	StageNone Stage = "NONE"
)

// FinalVerdict is the fixed-precedence combination of a CallClassification
// and a MediaVerdict.
type FinalVerdict struct {
	FinalOutcome        FinalOutcome `json:"final_verdict"`
	FailureStage        Stage        `json:"failure_stage"`
	ProtocolResponsible Stage        `json:"protocol_responsible"`
}

// TimelineEntry is one row of a call's merged signaling/media timeline.
type TimelineEntry struct {
	Time   float64   `json:"time"`
	Kind   string    `json:"type"`
	Label  string    `json:"label"`
	Packet PacketRef `json:"packet"`
}

const (
	TimelineKindSIP = "SIP"
	TimelineKindRTP = "RTP"
)

// ExportInfo records the outcome of the best-effort subcapture export.
// Export failures are data, never request-level errors.
type ExportInfo struct {
	PcapAvailable bool   `json:"pcap_available"`
	Path          string `json:"path,omitempty"`
	S3Location    string `json:"s3_location,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

// PerCallResult is the complete derived record for one call.
type PerCallResult struct {
	CallID string `json:"call_id"`
	FinalVerdict
	CallClassification
	Rtp      MediaVerdict    `json:"rtp"`
	Timeline []TimelineEntry `json:"timeline"`
	Export   ExportInfo      `json:"export"`
}

// FileSummary aggregates all per-call verdicts for one capture.
//
// MEDIA_DEGRADED calls are deliberately counted in neither media_failures nor
// success_calls; the asymmetry is preserved from the locked verdict scheme.
type FileSummary struct {
	TotalCalls            int    `json:"total_calls"`
	SuccessCalls          int    `json:"success_calls"`
	SipFailures           int    `json:"sip_failures"`
	MediaFailures         int    `json:"media_failures"`
	DominantFailureDomain string `json:"dominant_failure_domain,omitempty"`
	OverallVerdict        string `json:"overall_verdict"`
}

const (
	VerdictHealthy  = "HEALTHY"
	VerdictDegraded = "DEGRADED"
	VerdictFailed   = "FAILED"
)

// AnalysisResult is the full, serializable output of AnalyzeCapture.
type AnalysisResult struct {
	Capture     string          `json:"pcap"`
	FileSummary FileSummary     `json:"file_summary"`
	TotalCalls  int             `json:"total_calls"`
	Calls       []PerCallResult `json:"calls"`
}
