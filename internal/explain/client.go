// Package explain turns analysis results into engineer-readable text via an
// OpenAI-compatible chat completions API. Explanations are decoration on top
// of the deterministic verdicts; every failure here degrades to a stub
// string and never touches the analysis result.
package explain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"sip_call_diagnoser_go/internal/engine"
	"sip_call_diagnoser_go/internal/store"
)

const (
	DefaultBaseURL = "https://api.openai.com"
	DefaultModel   = "gpt-4o-mini"

	explainSystemPrompt = `You are a senior telecom core network engineer.
Explain SIP call failures clearly and practically.
Do not invent facts. Use only provided data.`

	unavailableText = "AI explanation unavailable"
)

// Client talks to an OpenAI-compatible /v1/chat/completions endpoint. A nil
// Client is valid and produces no explanations.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	log     logrus.FieldLogger
}

// NewClient returns nil when no API key is configured, disabling AI
// features cleanly.
func NewClient(apiKey, baseURL, model string) *Client {
	if apiKey == "" {
		return nil
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: 60 * time.Second},
		log:     logrus.WithField("component", "explain"),
	}
}

// ExplainCall produces a short engineer-facing explanation of one call.
func (c *Client) ExplainCall(ctx context.Context, call engine.PerCallResult) string {
	if c == nil {
		return unavailableText
	}

	timeline, _ := json.Marshal(call.Timeline)
	prompt := fmt.Sprintf(`SIP Call Analysis:
Outcome: %s
Final Verdict: %s
Root Cause Hint: %s
Timeline: %s

Explain in bullet points for an engineer:
1. What happened
2. Why it likely happened
3. What an engineer should check`,
		call.Outcome, call.FinalOutcome, call.RootCause, timeline)

	text, err := c.chat(ctx, explainSystemPrompt, prompt)
	if err != nil {
		c.log.WithError(err).Warnf("explanation failed for call %s", call.CallID)
		return unavailableText
	}
	return text
}

// FileInsight produces a whole-file overview for the UI.
func (c *Client) FileInsight(ctx context.Context, filename string, result *engine.AnalysisResult) string {
	if c == nil {
		return unavailableText
	}

	// Keep the context small: summary plus a preview of the first calls.
	preview := result.Calls
	if len(preview) > 5 {
		preview = preview[:5]
	}
	summary, _ := json.Marshal(result.FileSummary)
	calls, _ := json.Marshal(preview)
	prompt := fmt.Sprintf(`Capture file: %s
File summary: %s
Total calls: %d
Calls preview: %s

Give a file overview, the key issues, and what to check in Wireshark next.`,
		filename, summary, result.TotalCalls, calls)

	text, err := c.chat(ctx, explainSystemPrompt, prompt)
	if err != nil {
		c.log.WithError(err).Warn("file insight failed")
		return unavailableText
	}
	return text
}

// ChatAboutJob answers a question using only the persisted call rows of one
// job as context.
func (c *Client) ChatAboutJob(ctx context.Context, calls []store.CallRow, question string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("AI chat is not configured")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Parsed SIP Calls (%d total):\n", len(calls))
	for _, call := range calls {
		fmt.Fprintf(&sb, "- Call-ID: %s, Outcome: %s, Reason: %s\n",
			call.CallID, call.Outcome, call.Reason)
	}

	prompt := fmt.Sprintf(`You are a telecom SIP expert.

Context:
%s
User question:
%s

Answer ONLY using the context above.
If packet numbers are not available, say so clearly.`, sb.String(), question)

	return c.chat(ctx, "", prompt)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (c *Client) chat(ctx context.Context, system, user string) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	messages = append(messages, chatMessage{Role: "user", Content: user})

	body, err := json.Marshal(map[string]any{
		"model":       c.model,
		"messages":    messages,
		"temperature": 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("chat status %d: %s", resp.StatusCode, errBody)
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat response contained no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
