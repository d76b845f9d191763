package engine

// Summarize rolls all per-call final verdicts up into file-level health
// statistics. Computed once after every call's verdict exists; never
// partially updated.
func Summarize(verdicts []FinalVerdict) FileSummary {
	s := FileSummary{TotalCalls: len(verdicts)}

	for _, v := range verdicts {
		switch v.FinalOutcome {
		case FinalSuccess:
			s.SuccessCalls++
		case FinalSipFailure:
			s.SipFailures++
		case FinalMediaFailure:
			s.MediaFailures++
		}
		// MEDIA_DEGRADED is intentionally left out of every bucket.
	}

	if s.SipFailures > s.MediaFailures {
		s.DominantFailureDomain = "SIP"
	} else if s.MediaFailures > 0 {
		s.DominantFailureDomain = "MEDIA"
	}

	switch {
	case s.SuccessCalls == s.TotalCalls:
		s.OverallVerdict = VerdictHealthy
	case s.MediaFailures > 0:
		s.OverallVerdict = VerdictDegraded
	default:
		s.OverallVerdict = VerdictFailed
	}
	return s
}
