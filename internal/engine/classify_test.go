package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func request(frame int, t float64, callID, method string) SipEvent {
	return SipEvent{Packet: PacketRef{Frame: frame, Time: t}, CallID: callID, Method: method}
}

func response(frame int, t float64, callID, status string) SipEvent {
	return SipEvent{Packet: PacketRef{Frame: frame, Time: t}, CallID: callID, StatusCode: status}
}

func TestClassifySuccess(t *testing.T) {
	events := []SipEvent{
		request(1, 0.0, "a@host", "INVITE"),
		response(2, 0.2, "a@host", "180"),
		response(3, 1.0, "a@host", "200"),
		request(4, 1.1, "a@host", "ACK"),
	}

	c := Classify(events)

	assert.Equal(t, OutcomeSuccess, c.Outcome)
	assert.Equal(t, "Call established normally", c.Reason)
	assert.Equal(t, "No issue detected", c.RootCause)
	require.NotNil(t, c.InvitePacket)
	assert.Equal(t, 1, c.InvitePacket.Frame)
	require.NotNil(t, c.OkPacket)
	assert.Equal(t, 3, c.OkPacket.Frame)
	assert.Nil(t, c.FailurePacket)
	require.NotNil(t, c.InviteToOkLatency)
	assert.Equal(t, 1.0, *c.InviteToOkLatency)
}

func TestClassifyFailures(t *testing.T) {
	tests := []struct {
		name          string
		events        []SipEvent
		outcome       Outcome
		reason        string
		rootCause     string
		failureFrame  int
		wantFailurePkt bool
	}{
		{
			name: "busy here",
			events: []SipEvent{
				request(1, 0.0, "c1", "INVITE"),
				response(2, 0.5, "c1", "486"),
			},
			outcome:        OutcomeFailedEarly,
			reason:         "SIP failure response: 486",
			rootCause:      "Client-side SIP failure (busy, forbidden, invalid number)",
			failureFrame:   2,
			wantFailurePkt: true,
		},
		{
			name: "server error",
			events: []SipEvent{
				request(1, 0.0, "c2", "INVITE"),
				response(2, 0.5, "c2", "503"),
			},
			outcome:        OutcomeFailedEarly,
			reason:         "SIP failure response: 503",
			rootCause:      "Server/network-side failure (SBC, routing, overload)",
			failureFrame:   2,
			wantFailurePkt: true,
		},
		{
			name: "global failure",
			events: []SipEvent{
				request(1, 0.0, "c3", "INVITE"),
				response(2, 0.5, "c3", "604"),
			},
			outcome:        OutcomeFailedEarly,
			reason:         "SIP failure response: 604",
			rootCause:      "Global SIP failure (call rejected everywhere)",
			failureFrame:   2,
			wantFailurePkt: true,
		},
		{
			name: "failure outranks complete handshake",
			events: []SipEvent{
				request(1, 0.0, "c4", "INVITE"),
				response(2, 0.3, "c4", "200"),
				request(3, 0.4, "c4", "ACK"),
				response(4, 5.0, "c4", "487"),
			},
			outcome:        OutcomeFailedEarly,
			reason:         "SIP failure response: 487",
			rootCause:      "Client-side SIP failure (busy, forbidden, invalid number)",
			failureFrame:   4,
			wantFailurePkt: true,
		},
		{
			name: "drop after 200",
			events: []SipEvent{
				request(1, 0.0, "c5", "INVITE"),
				response(2, 0.8, "c5", "200"),
			},
			outcome:        OutcomeDropAfter200,
			reason:         "200 OK seen but ACK missing",
			rootCause:      "ACK missing after 200 OK. Possible causes: firewall/NAT blocking, SBC issue, packet loss, asymmetric routing",
			failureFrame:   2,
			wantFailurePkt: true,
		},
		{
			name: "no answer",
			events: []SipEvent{
				request(1, 0.0, "c6", "INVITE"),
				response(2, 0.2, "c6", "180"),
			},
			outcome:   OutcomeNoAnswer,
			reason:    "Ringing seen but no 200 OK",
			rootCause: "Called party did not answer (alerting without connect)",
		},
		{
			name: "incomplete",
			events: []SipEvent{
				request(1, 0.0, "c7", "INVITE"),
			},
			outcome:   OutcomeIncomplete,
			reason:    "INVITE seen but call flow incomplete",
			rootCause: "Incomplete capture or signaling loss",
		},
		{
			name: "unknown",
			events: []SipEvent{
				request(1, 0.0, "c8", "BYE"),
			},
			outcome:   OutcomeUnknown,
			reason:    "Unable to classify call",
			rootCause: "Unknown cause",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := Classify(tc.events)
			assert.Equal(t, tc.outcome, c.Outcome)
			assert.Equal(t, tc.reason, c.Reason)
			assert.Equal(t, tc.rootCause, c.RootCause)
			if tc.wantFailurePkt {
				require.NotNil(t, c.FailurePacket)
				assert.Equal(t, tc.failureFrame, c.FailurePacket.Frame)
			} else {
				assert.Nil(t, c.FailurePacket)
			}
		})
	}
}

func TestClassifyAckBeforeOkDoesNotConfirm(t *testing.T) {
	// An ACK observed before any 200 OK must not count as handshake
	// confirmation.
	events := []SipEvent{
		request(1, 0.0, "x", "INVITE"),
		request(2, 0.1, "x", "ACK"),
		response(3, 0.5, "x", "200"),
	}

	c := Classify(events)
	assert.Equal(t, OutcomeDropAfter200, c.Outcome)
}

func TestClassifyLatencyRounding(t *testing.T) {
	events := []SipEvent{
		request(1, 0.10001, "r", "INVITE"),
		response(2, 1.23456, "r", "200"),
		request(3, 1.3, "r", "ACK"),
	}

	c := Classify(events)
	require.NotNil(t, c.InviteToOkLatency)
	assert.InDelta(t, 1.135, *c.InviteToOkLatency, 1e-9)
}

func TestClassifyDeterministic(t *testing.T) {
	events := []SipEvent{
		request(1, 0.0, "d", "INVITE"),
		response(2, 0.2, "d", "180"),
		response(3, 1.0, "d", "200"),
		request(4, 1.1, "d", "ACK"),
	}

	first := Classify(events)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Classify(events))
	}
}
