package copilot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-copilot/internal/domain/entities"
	ucerr "github.com/johnquangdev/meeting-copilot/internal/usecase/errors"
	"github.com/johnquangdev/meeting-copilot/pkg/ai"
	"github.com/johnquangdev/meeting-copilot/pkg/config"
)

// ModelGateway invokes the reasoning service with a per-call timeout and bounded retry
type ModelGateway struct {
	client  ChatCompleter
	builder *PromptBuilder
	cfg     config.CopilotConfig
	metrics Metrics
	logger  *zap.Logger
}

// NewModelGateway creates a gateway. metrics may be nil.
func NewModelGateway(client ChatCompleter, cfg config.CopilotConfig, metrics Metrics, logger *zap.Logger) *ModelGateway {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &ModelGateway{
		client:  client,
		builder: NewPromptBuilder(),
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
	}
}

// Provider returns the configured provider name
func (g *ModelGateway) Provider() string { return g.cfg.Provider }

// Model returns the configured model name
func (g *ModelGateway) Model() string { return g.cfg.Model }

// Generate builds the prompt, calls the model and returns the parsed output.
// Rate limit and timeout failures are retried; everything else fails immediately.
func (g *ModelGateway) Generate(
	ctx context.Context,
	window []*entities.TranscriptSegment,
	mc entities.MeetingContext,
	lang entities.Language,
	existing []ExistingItem,
) (*entities.ModelOutput, error) {
	prompt, err := g.builder.Build(window, mc, lang, existing)
	if err != nil {
		return nil, err
	}

	req := ai.ChatRequest{
		Model: g.cfg.Model,
		Messages: []ai.Message{
			{Role: "system", Content: prompt.System},
			{Role: "user", Content: prompt.User},
		},
		Temperature: g.cfg.Temperature,
		MaxTokens:   g.cfg.MaxTokens,
	}

	if g.logger != nil {
		g.logger.Info("🤖 Copilot model request",
			zap.String("model", g.cfg.Model),
			zap.Int("segment_count", len(window)),
			zap.String("language", string(lang)),
		)
	}

	start := time.Now()
	attempts := 0
	var completion *ai.Completion

	operation := func() error {
		attempts++
		callCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()

		res, err := g.client.Complete(callCtx, req)
		if err != nil {
			perr := classifyGatewayError(err)
			if ctx.Err() != nil || !ucerr.IsRetryable(perr) {
				return backoff.Permanent(perr)
			}
			if g.logger != nil {
				g.logger.Warn("⚠️ Copilot model call failed, retrying",
					zap.Int("attempt", attempts),
					zap.Error(perr),
				)
			}
			return perr
		}
		completion = res
		return nil
	}

	if err := backoff.Retry(operation, g.retryPolicy(ctx)); err != nil {
		elapsed := time.Since(start)
		g.metrics.ObserveGatewayCall(gatewayOutcome(err), attempts, elapsed)
		if g.logger != nil {
			g.logger.Error("❌ Copilot model call failed",
				zap.String("model", g.cfg.Model),
				zap.Int("segment_count", len(window)),
				zap.Int("attempts", attempts),
				zap.Duration("elapsed", elapsed),
				zap.Error(err),
			)
		}
		return nil, err
	}

	elapsed := time.Since(start)
	doc, err := ParseModelResponse(completion.Content)
	if err != nil {
		g.metrics.ObserveGatewayCall("malformed", attempts, elapsed)
		if g.logger != nil {
			g.logger.Error("❌ Copilot model response rejected",
				zap.String("model", g.cfg.Model),
				zap.Int("response_length", len(completion.Content)),
				zap.Duration("elapsed", elapsed),
				zap.Error(err),
			)
		}
		return nil, err
	}
	g.metrics.ObserveGatewayCall("success", attempts, elapsed)

	model := completion.Model
	if model == "" {
		model = g.cfg.Model
	}

	if g.logger != nil {
		g.logger.Info("✅ Copilot model response",
			zap.String("model", model),
			zap.Int("segment_count", len(window)),
			zap.Int("attempts", attempts),
			zap.Int("total_tokens", completion.Usage.TotalTokens),
			zap.Duration("elapsed", elapsed),
		)
	}

	return &entities.ModelOutput{
		Document: doc,
		Metadata: entities.RunMetadata{
			Model:            model,
			Provider:         g.cfg.Provider,
			ProcessingTimeMs: elapsed.Milliseconds(),
			InputSegments:    len(window),
			Language:         lang,
			Timestamp:        time.Now().UTC(),
			Attempts:         attempts,
			Usage: entities.TokenUsage{
				PromptTokens:     completion.Usage.PromptTokens,
				CompletionTokens: completion.Usage.CompletionTokens,
				TotalTokens:      completion.Usage.TotalTokens,
			},
		},
	}, nil
}

func (g *ModelGateway) retryPolicy(ctx context.Context) backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = g.cfg.RetryMin
	bo.MaxInterval = g.cfg.RetryMax
	bo.RandomizationFactor = 0
	bo.Multiplier = 2
	bo.MaxElapsedTime = 0

	maxRetries := g.cfg.MaxAttempts - 1
	if maxRetries < 0 {
		maxRetries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(bo, uint64(maxRetries)), ctx)
}

func classifyGatewayError(err error) *ucerr.PipelineError {
	switch {
	case ai.IsRateLimited(err):
		return ucerr.NewPipelineError(ucerr.ErrRateLimited, "", err)
	case ai.IsTimeout(err):
		return ucerr.NewPipelineError(ucerr.ErrTimeout, "", err)
	default:
		return ucerr.NewPipelineError(ucerr.ErrGateway, "", err)
	}
}

func gatewayOutcome(err error) string {
	switch {
	case errors.Is(err, ucerr.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ucerr.ErrTimeout):
		return "timeout"
	default:
		return "error"
	}
}

// ParseModelResponse decodes the model's text into a JSON object and runs the
// first-pass shape checks: required keys, array sections, evidence on every item.
func ParseModelResponse(raw string) (map[string]json.RawMessage, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(extractJSON(raw)), &doc); err != nil {
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start == -1 || end <= start {
			return nil, ucerr.NewPipelineError(ucerr.ErrMalformedResponse, "no JSON object found in response", nil)
		}
		if err := json.Unmarshal([]byte(raw[start:end+1]), &doc); err != nil {
			return nil, ucerr.NewPipelineError(ucerr.ErrMalformedResponse, "invalid JSON in response", err)
		}
	}
	if doc == nil {
		return nil, ucerr.NewPipelineError(ucerr.ErrMalformedResponse, "response is not a JSON object", nil)
	}

	if _, ok := doc["language"]; !ok {
		return nil, ucerr.NewPipelineError(ucerr.ErrMalformedResponse, "missing required field: language", nil)
	}
	for _, section := range entities.OutputSections {
		raw, ok := doc[section.Key]
		if !ok {
			return nil, ucerr.NewPipelineError(ucerr.ErrMalformedResponse, "missing required field: "+section.Key, nil)
		}
		var items []map[string]json.RawMessage
		if !isJSONArray(raw) || json.Unmarshal(raw, &items) != nil {
			return nil, ucerr.NewPipelineError(ucerr.ErrMalformedResponse, fmt.Sprintf("field %s must be a list of objects", section.Key), nil)
		}
		for i, item := range items {
			var evidence []map[string]json.RawMessage
			if err := json.Unmarshal(item["evidence"], &evidence); err != nil || len(evidence) == 0 {
				return nil, ucerr.NewPipelineError(ucerr.ErrMalformedResponse, fmt.Sprintf("%s[%d] missing required evidence", section.Key, i), nil)
			}
			for _, ev := range evidence {
				_, hasSegment := ev["segment_id"]
				_, hasQuote := ev["quote"]
				if !hasSegment || !hasQuote {
					return nil, ucerr.NewPipelineError(ucerr.ErrMalformedResponse, fmt.Sprintf("%s[%d] evidence missing required fields", section.Key, i), nil)
				}
			}
		}
	}
	return doc, nil
}

// extractJSON strips a markdown code fence around the JSON body
func extractJSON(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
	}
	return strings.TrimSpace(content)
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}
