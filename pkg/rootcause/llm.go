package rootcause

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/migrationguard/core/pkg/circuitbreaker"
	"github.com/migrationguard/core/pkg/models"
)

const breakerName = "llm"

// maxPromptSignals bounds how many signals are rendered verbatim in the
// prompt; the remainder is summarized by count.
const maxPromptSignals = 10

const systemPrompt = `You are an expert at diagnosing e-commerce platform migration issues.

Classify the root cause of the reported signals into exactly one of these categories:
- migration_misstep: merchant misconfiguration or missed step during migration (e.g. wrong API credentials, incomplete setup)
- platform_regression: a platform-side bug or behavior change affecting multiple merchants
- documentation_gap: the signals indicate unclear, missing, or incorrect documentation
- config_error: incorrect settings, environment variables, or webhook/endpoint configuration

Confidence bands:
- 0.9-1.0: overwhelming, unambiguous evidence
- 0.7-0.9: strong evidence with minor uncertainty
- 0.5-0.7: plausible but with meaningful alternative explanations
- 0.0-0.5: weak evidence, largely speculative

Respond with a single JSON object and nothing else, matching exactly:
{
  "category": "migration_misstep|platform_regression|documentation_gap|config_error",
  "confidence": 0.0,
  "reasoning": "non-empty prose explaining the classification",
  "evidence": ["non-empty list of concrete observations"],
  "recommended_actions": ["non-empty list of next steps"],
  "alternatives_considered": [{"hypothesis": "...", "reason_rejected": "..."}]
}`

// DegradationReporter is satisfied by pkg/degradation; kept narrow so this
// package doesn't depend on the concrete degradation manager.
type DegradationReporter interface {
	SetDegraded(service string, degraded bool)
}

// Analyzer is the Root-Cause Analyzer's public contract (§4.4).
type Analyzer interface {
	Analyze(ctx context.Context, signals []models.Signal, patterns []models.Pattern, merchantContext models.MerchantContext) (Outcome, error)
}

// LLMAnalyzer wraps an Anthropic client behind a circuit breaker, falling
// back to RuleBasedAnalyzer on any failure of the primary path.
type LLMAnalyzer struct {
	client       anthropic.Client
	model        anthropic.Model
	breakers     *circuitbreaker.Manager
	fallback     *RuleBasedAnalyzer
	degradation  DegradationReporter
	logger       *slog.Logger
}

// NewLLMAnalyzer constructs an Analyzer. apiKey may be empty if the caller
// already configured auth via environment variables understood by the SDK.
func NewLLMAnalyzer(apiKey, model string, breakers *circuitbreaker.Manager, degradation DegradationReporter, logger *slog.Logger) *LLMAnalyzer {
	if logger == nil {
		logger = slog.Default()
	}
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if model == "" {
		model = "claude-sonnet-4-5"
	}
	return &LLMAnalyzer{
		client:      anthropic.NewClient(opts...),
		model:       anthropic.Model(model),
		breakers:    breakers,
		fallback:    NewRuleBasedAnalyzer(),
		degradation: degradation,
		logger:      logger,
	}
}

// Analyze implements Analyzer. Preconditions: len(signals) > 0, else
// ErrInvalidInput.
func (a *LLMAnalyzer) Analyze(ctx context.Context, signals []models.Signal, patterns []models.Pattern, merchantContext models.MerchantContext) (Outcome, error) {
	if len(signals) == 0 {
		return Outcome{}, models.ErrInvalidInput
	}

	analysis, err := circuitbreaker.Execute(ctx, a.breakers, breakerName, func(ctx context.Context) (models.RootCauseAnalysis, error) {
		return a.callLLM(ctx, signals, patterns, merchantContext)
	})
	if err != nil {
		a.setDegraded(true)
		a.logger.WarnContext(ctx, "llm analysis failed, using rule-based fallback", "error", err)
		fb := a.fallback.Analyze(signals, patterns, merchantContext)
		return Fallback(err.Error(), fb), nil
	}

	a.setDegraded(false)
	return Ok(analysis), nil
}

func (a *LLMAnalyzer) callLLM(ctx context.Context, signals []models.Signal, patterns []models.Pattern, merchantContext models.MerchantContext) (models.RootCauseAnalysis, error) {
	prompt := buildAnalysisPrompt(signals, patterns, merchantContext)

	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		Temperature: anthropic.Float(0.3),
	})
	if err != nil {
		return models.RootCauseAnalysis{}, models.Transient("llm.analyze", err)
	}

	text := concatText(message)
	analysis, err := parseAnalysis(text)
	if err != nil {
		return models.RootCauseAnalysis{}, models.Transient("llm.parse", err)
	}
	if verr := analysis.Validate(); verr != nil {
		return models.RootCauseAnalysis{}, models.Transient("llm.validate", verr)
	}
	return analysis, nil
}

func (a *LLMAnalyzer) setDegraded(degraded bool) {
	if a.degradation != nil {
		a.degradation.SetDegraded("llm", degraded)
	}
}

// buildAnalysisPrompt renders up to maxPromptSignals signals verbatim,
// summarizes any remainder by count, lists all patterns, and appends
// optional merchant context.
func buildAnalysisPrompt(signals []models.Signal, patterns []models.Pattern, merchantContext models.MerchantContext) string {
	var b strings.Builder

	b.WriteString("Signals:\n")
	shown := signals
	remainder := 0
	if len(signals) > maxPromptSignals {
		shown = signals[:maxPromptSignals]
		remainder = len(signals) - maxPromptSignals
	}
	for _, s := range shown {
		fmt.Fprintf(&b, "- source=%s merchant=%s error_code=%s message=%q severity=%s\n",
			s.Source, s.MerchantID, s.ErrorCode, s.ErrorMessage, s.Severity)
	}
	if remainder > 0 {
		fmt.Fprintf(&b, "... and %d more signals\n", remainder)
	}

	b.WriteString("\nPatterns:\n")
	for _, p := range patterns {
		characteristics, _ := json.MarshalIndent(p.Characteristics, "", "  ")
		fmt.Fprintf(&b, "- type=%s frequency=%d merchants=%d confidence=%.2f characteristics=%s\n",
			p.Type, p.Frequency(), len(p.MerchantIDs), p.Confidence, characteristics)
	}

	if merchantContext.AffectedMerchantCount() > 0 || merchantContext.AffectsCheckout || merchantContext.AffectsPayment {
		b.WriteString("\nMerchant context:\n")
		fmt.Fprintf(&b, "- affects_checkout=%t affects_payment=%t affected_merchants=%d\n",
			merchantContext.AffectsCheckout, merchantContext.AffectsPayment, merchantContext.AffectedMerchantCount())
		if merchantContext.DocumentationSection != "" {
			fmt.Fprintf(&b, "- documentation_section=%s\n", merchantContext.DocumentationSection)
		}
	}

	return b.String()
}

func concatText(message *anthropic.Message) string {
	var b strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String()
}

// parseAnalysis strips markdown code fences (```json ... ``` or ``` ...
// ```) before unmarshaling the JSON object.
func parseAnalysis(text string) (models.RootCauseAnalysis, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var analysis models.RootCauseAnalysis
	if err := json.Unmarshal([]byte(text), &analysis); err != nil {
		return models.RootCauseAnalysis{}, fmt.Errorf("parse analysis: %w", err)
	}
	return analysis, nil
}
