package deepseek

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"arguxai/internal/core/evidence"
	perr "arguxai/internal/platform/errors"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	systemPrompt = "You are an expert conversion optimization analyst. Analyze user behavior data " +
		"and diagnose technical issues causing conversion drops. Provide specific, actionable root causes."

	diagnoseTemperature = 0.3
	diagnoseMaxTokens   = 1000
)

// Request is one degraded funnel step to explain
type Request struct {
	FunnelStep   string
	CurrentRate  float64
	BaselineRate float64
	DropPercent  float64
	Evidence     evidence.Evidence
}

// Result is the parsed model answer plus timing
type Result struct {
	RootCause          string   `json:"root_cause"`
	Confidence         float64  `json:"confidence"`
	Explanation        string   `json:"explanation"`
	RecommendedActions []string `json:"recommended_actions"`
	CodeLocations      []string `json:"code_locations"`
	ModelUsed          string   `json:"model_used"`
	DiagnosisTimeMS    int64    `json:"diagnosis_time_ms"`
}

// Diagnose asks the chat model for a root cause in json_object mode
func (c *Client) Diagnose(ctx context.Context, r Request) (Result, error) {
	if strings.TrimSpace(r.FunnelStep) == "" {
		return Result{}, perr.InvalidArgf("funnel step is required")
	}

	started := time.Now()
	resp, err := c.CreateChatCompletion(ctx, &ChatRequest{
		Model: c.model,
		Messages: []Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: BuildPrompt(r)},
		},
		Temperature:    diagnoseTemperature,
		MaxTokens:      diagnoseMaxTokens,
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	})
	if err != nil {
		return Result{}, err
	}

	out, err := parseResult(resp.Choices[0].Message.Content)
	if err != nil {
		return Result{}, err
	}
	out.ModelUsed = resp.Model
	if out.ModelUsed == "" {
		out.ModelUsed = c.model
	}
	out.DiagnosisTimeMS = time.Since(started).Milliseconds()

	c.log.Info().
		Str("funnel_step", r.FunnelStep).
		Float64("confidence", out.Confidence).
		Int64("took_ms", out.DiagnosisTimeMS).
		Int("tokens", resp.Usage.TotalTokens).
		Msg("diagnosis complete")
	return out, nil
}

func parseResult(content string) (Result, error) {
	content = strings.TrimSpace(content)
	// some models still fence json_object output
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var out Result
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &out); err != nil {
		return Result{}, perr.Wrap(err, perr.ErrorCodeJSON, "model returned invalid diagnosis json")
	}
	if strings.TrimSpace(out.RootCause) == "" {
		return Result{}, perr.Newf(perr.ErrorCodeJSON, "model diagnosis has no root_cause")
	}
	out.Confidence = min(max(out.Confidence, 0), 100)
	return out, nil
}

// BuildPrompt renders the user message; numbers use English grouping so prompts are stable
func BuildPrompt(r Request) string {
	p := message.NewPrinter(language.English)
	ev := r.Evidence

	var b strings.Builder
	b.WriteString("Analyze this conversion drop and identify the root cause.\n\n")
	p.Fprintf(&b, "## Funnel Step\n%s\n\n", r.FunnelStep)
	p.Fprintf(&b, "## Metrics\n- Current conversion rate: %.1f%%\n- Baseline conversion rate: %.1f%%\n- Drop: %.1f%%\n\n",
		r.CurrentRate, r.BaselineRate, r.DropPercent)

	b.WriteString("## Evidence\n")
	p.Fprintf(&b, "- Sessions analyzed: %d\n", ev.TotalSessions)
	if len(ev.ErrorTypes) > 0 {
		keys := make([]string, 0, len(ev.ErrorTypes))
		for k := range ev.ErrorTypes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, p.Sprintf("%s (%d)", k, ev.ErrorTypes[k]))
		}
		p.Fprintf(&b, "- Error types: %s\n", strings.Join(parts, ", "))
	}
	if len(ev.TopErrors) > 0 {
		b.WriteString("- Top errors:\n")
		for _, e := range ev.TopErrors {
			p.Fprintf(&b, "  - %s\n", e)
		}
	}
	if ev.AvgRetryCount != nil {
		p.Fprintf(&b, "- Average retry count: %.1f\n", *ev.AvgRetryCount)
	}
	list(&b, p, "Affected countries", ev.AffectedCountries)
	list(&b, p, "Affected devices", ev.AffectedDevices)
	list(&b, p, "Affected app versions", ev.AffectedVersions)
	if n := len(ev.StrugglingSessions); n > 0 {
		p.Fprintf(&b, "- Struggling sessions (sample): %d\n", n)
	}

	b.WriteString("\nRespond with a JSON object with keys root_cause (string), confidence (0-100), " +
		"explanation (string), recommended_actions (array of strings), code_locations (array of strings).")
	return b.String()
}

func list(b *strings.Builder, p *message.Printer, label string, vals []string) {
	if len(vals) == 0 {
		return
	}
	p.Fprintf(b, "- %s: %s\n", label, strings.Join(vals, ", "))
}
