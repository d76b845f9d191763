package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregatePrecedence(t *testing.T) {
	failurePkt := &PacketRef{Frame: 2, Time: 0.5}

	tests := []struct {
		name           string
		classification CallClassification
		media          MediaVerdict
		want           FinalVerdict
	}{
		{
			name:           "sip failure outranks bidirectional media",
			classification: CallClassification{Outcome: OutcomeFailedEarly, FailurePacket: failurePkt},
			media:          MediaVerdict{RtpPresent: true, Direction: DirectionBidirectional},
			want:           FinalVerdict{FinalOutcome: FinalSipFailure, FailureStage: StageSIP, ProtocolResponsible: StageSIP},
		},
		{
			name:           "drop after 200 is a sip failure",
			classification: CallClassification{Outcome: OutcomeDropAfter200, FailurePacket: failurePkt},
			media:          MediaVerdict{RtpPresent: true, Direction: DirectionBidirectional},
			want:           FinalVerdict{FinalOutcome: FinalSipFailure, FailureStage: StageSIP, ProtocolResponsible: StageSIP},
		},
		{
			name:           "no media",
			classification: CallClassification{Outcome: OutcomeSuccess},
			media:          MediaVerdict{RtpPresent: false, Direction: DirectionNone},
			want:           FinalVerdict{FinalOutcome: FinalMediaFailure, FailureStage: StageRTP, ProtocolResponsible: StageRTP},
		},
		{
			name:           "one way media",
			classification: CallClassification{Outcome: OutcomeSuccess},
			media:          MediaVerdict{RtpPresent: true, Direction: DirectionOneWay},
			want:           FinalVerdict{FinalOutcome: FinalMediaDegraded, FailureStage: StageRTP, ProtocolResponsible: StageRTP},
		},
		{
			name:           "clean call",
			classification: CallClassification{Outcome: OutcomeSuccess},
			media:          MediaVerdict{RtpPresent: true, Direction: DirectionBidirectional},
			want:           FinalVerdict{FinalOutcome: FinalSuccess, FailureStage: StageNone, ProtocolResponsible: StageNone},
		},
		{
			name:           "no answer without failure packet falls to media axis",
			classification: CallClassification{Outcome: OutcomeNoAnswer},
			media:          MediaVerdict{RtpPresent: false, Direction: DirectionNone},
			want:           FinalVerdict{FinalOutcome: FinalMediaFailure, FailureStage: StageRTP, ProtocolResponsible: StageRTP},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Aggregate(tc.classification, tc.media))
		})
	}
}
