package engine

import (
	"fmt"
	"math"
	"strings"
)

// landmarks holds the events the classifier keys on, located in a single
// scan of the ordered sequence.
type landmarks struct {
	invite        *PacketRef
	ok            *PacketRef
	ackAfterOk    bool
	ringing       bool
	failure       *PacketRef
	failureStatus string
}

func findLandmarks(events []SipEvent) landmarks {
	var l landmarks
	okSeen := false
	for i := range events {
		ev := &events[i]
		switch {
		case ev.Method != "":
			switch strings.ToUpper(ev.Method) {
			case "INVITE":
				if l.invite == nil {
					ref := ev.Packet
					l.invite = &ref
				}
			case "ACK":
				if okSeen {
					l.ackAfterOk = true
				}
			}
		case ev.StatusCode != "":
			switch ev.StatusCode[0] {
			case '2':
				if l.ok == nil {
					ref := ev.Packet
					l.ok = &ref
					okSeen = true
				}
			case '1':
				if strings.HasPrefix(ev.StatusCode, "180") {
					l.ringing = true
				}
			case '4', '5', '6':
				if l.failure == nil {
					ref := ev.Packet
					l.failure = &ref
					l.failureStatus = ev.StatusCode
				}
			}
		}
	}
	return l
}

// classifyRule is one row of the ordered decision table. Rules are evaluated
// top to bottom; the first rule that applies wins.
type classifyRule struct {
	outcome Outcome
	applies func(l *landmarks) bool
	build   func(l *landmarks, c *CallClassification)
}

var classifyRules = []classifyRule{
	{
		// Hard signaling failure anywhere in the dialog.
		outcome: OutcomeFailedEarly,
		applies: func(l *landmarks) bool { return l.failure != nil },
		build: func(l *landmarks, c *CallClassification) {
			c.Reason = fmt.Sprintf("SIP failure response: %s", l.failureStatus)
			c.RootCause = failureRootCause(l.failureStatus)
			c.FailurePacket = l.failure
		},
	},
	{
		// Success response never confirmed by an ACK.
		outcome: OutcomeDropAfter200,
		applies: func(l *landmarks) bool { return l.ok != nil && !l.ackAfterOk },
		build: func(l *landmarks, c *CallClassification) {
			c.Reason = "200 OK seen but ACK missing"
			c.RootCause = "ACK missing after 200 OK. Possible causes: firewall/NAT blocking, SBC issue, packet loss, asymmetric routing"
			c.FailurePacket = l.ok
		},
	},
	{
		// Alerting without connect.
		outcome: OutcomeNoAnswer,
		applies: func(l *landmarks) bool { return l.ringing && l.ok == nil },
		build: func(l *landmarks, c *CallClassification) {
			c.Reason = "Ringing seen but no 200 OK"
			c.RootCause = "Called party did not answer (alerting without connect)"
		},
	},
	{
		// An INVITE exists but nothing further can be established.
		outcome: OutcomeIncomplete,
		applies: func(l *landmarks) bool {
			return l.invite != nil && !(l.ok != nil && l.ackAfterOk)
		},
		build: func(l *landmarks, c *CallClassification) {
			c.Reason = "INVITE seen but call flow incomplete"
			c.RootCause = "Incomplete capture or signaling loss"
		},
	},
	{
		// Complete handshake with no failure responses.
		outcome: OutcomeSuccess,
		applies: func(l *landmarks) bool {
			return l.invite != nil && l.ok != nil && l.ackAfterOk
		},
		build: func(l *landmarks, c *CallClassification) {
			c.Reason = "Call established normally"
			c.RootCause = "No issue detected"
		},
	},
	{
		outcome: OutcomeUnknown,
		applies: func(l *landmarks) bool { return true },
		build: func(l *landmarks, c *CallClassification) {
			c.Reason = "Unable to classify call"
			c.RootCause = "Unknown cause"
		},
	},
}

func failureRootCause(status string) string {
	switch status[0] {
	case '4':
		return "Client-side SIP failure (busy, forbidden, invalid number)"
	case '5':
		return "Server/network-side failure (SBC, routing, overload)"
	default:
		return "Global SIP failure (call rejected everywhere)"
	}
}

// Classify derives the signaling verdict for one call from its ordered event
// sequence. It is total: garbled or truncated sequences classify as UNKNOWN
// instead of erroring, since partial captures are an expected operating
// condition.
func Classify(events []SipEvent) CallClassification {
	l := findLandmarks(events)

	var c CallClassification
	for i := range classifyRules {
		rule := &classifyRules[i]
		if rule.applies(&l) {
			c.Outcome = rule.outcome
			rule.build(&l, &c)
			break
		}
	}

	c.InvitePacket = l.invite
	c.OkPacket = l.ok
	if l.invite != nil && l.ok != nil {
		latency := roundMillis(l.ok.Time - l.invite.Time)
		c.InviteToOkLatency = &latency
	}
	return c
}

func roundMillis(seconds float64) float64 {
	return math.Round(seconds*1000) / 1000
}
