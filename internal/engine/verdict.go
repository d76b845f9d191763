package engine

// Aggregate combines a signaling classification and a media verdict into the
// final per-call outcome. Precedence is fixed: a recorded signaling failure
// always outranks any media-layer conclusion, because correct signaling is
// the precondition for meaningful media evaluation.
func Aggregate(c CallClassification, m MediaVerdict) FinalVerdict {
	switch {
	case c.FailurePacket != nil:
		return FinalVerdict{
			FinalOutcome:        FinalSipFailure,
			FailureStage:        StageSIP,
			ProtocolResponsible: StageSIP,
		}
	case !m.RtpPresent:
		return FinalVerdict{
			FinalOutcome:        FinalMediaFailure,
			FailureStage:        StageRTP,
			ProtocolResponsible: StageRTP,
		}
	case m.Direction == DirectionOneWay:
		return FinalVerdict{
			FinalOutcome:        FinalMediaDegraded,
			FailureStage:        StageRTP,
			ProtocolResponsible: StageRTP,
		}
	default:
		return FinalVerdict{
			FinalOutcome:        FinalSuccess,
			FailureStage:        StageNone,
			ProtocolResponsible: StageNone,
		}
	}
}
