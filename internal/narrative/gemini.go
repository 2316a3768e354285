package narrative

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	"fuelcast/internal/config"
	"fuelcast/internal/errors"
)

// GeminiGenerator generates task text with the Gemini API.
type GeminiGenerator struct {
	client      *genai.Client
	model       string
	temperature float32
	timeout     time.Duration
	limiter     *rate.Limiter
	logger      *slog.Logger
}

// NewGeminiGenerator creates a client for cfg. Call Close when done.
func NewGeminiGenerator(ctx context.Context, cfg config.NarrativeConfig, logger *slog.Logger) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, errors.NewConfigError("gemini API key is not set", nil)
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, errors.NewNarrativeError("failed to create gemini client", err)
	}

	return &GeminiGenerator{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		limiter:     newLimiter(cfg.RequestsPerMinute),
		logger:      logger.With(slog.String("component", "gemini")),
	}, nil
}

// newLimiter paces calls at rpm requests per minute with no burst.
func newLimiter(rpm int) *rate.Limiter {
	if rpm <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
}

// Generate sends the task under its role's system instruction and returns the
// concatenated text of the first candidate.
func (g *GeminiGenerator) Generate(ctx context.Context, task Task) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", errors.NewNarrativeError("rate limiter wait failed", err)
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(g.temperature)
	model.SystemInstruction = genai.NewUserContent(genai.Text(task.Role.SystemPrompt()))

	start := time.Now()
	resp, err := model.GenerateContent(ctx, genai.Text(task.Prompt()))
	if err != nil {
		return "", errors.NewNarrativeError("gemini request failed", err).
			WithContext("task", task.Name)
	}

	text, err := responseText(resp)
	if err != nil {
		return "", err
	}

	g.logger.DebugContext(ctx, "gemini response",
		slog.String("task", task.Name),
		slog.Int("chars", len(text)),
		slog.Duration("duration", time.Since(start)))

	return text, nil
}

// Close releases the underlying client.
func (g *GeminiGenerator) Close() error {
	return g.client.Close()
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.NewNarrativeError("gemini returned no candidates", nil)
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}

	if b.Len() == 0 {
		return "", errors.NewNarrativeError("gemini returned no text", nil)
	}
	return b.String(), nil
}
