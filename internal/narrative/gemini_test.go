package narrative

import (
	"context"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"fuelcast/internal/config"
	"fuelcast/internal/errors"
)

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text("Hello, "), genai.Text("managers.")}},
		}},
	}

	text, err := responseText(resp)
	require.NoError(t, err)
	assert.Equal(t, "Hello, managers.", text)
}

func TestResponseText_Empty(t *testing.T) {
	tests := []struct {
		name string
		resp *genai.GenerateContentResponse
	}{
		{name: "nil response", resp: nil},
		{name: "no candidates", resp: &genai.GenerateContentResponse{}},
		{name: "nil content", resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}},
		{name: "no text parts", resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Blob{MIMEType: "image/png"}}},
		}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := responseText(tt.resp)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrNarrative))
		})
	}
}

func TestNewLimiter(t *testing.T) {
	assert.Equal(t, rate.Inf, newLimiter(0).Limit())
	assert.InDelta(t, 10.0/60.0, float64(newLimiter(10).Limit()), 1e-9)
	assert.Equal(t, 1, newLimiter(10).Burst())
}

func TestNewGeminiGenerator_RequiresKey(t *testing.T) {
	cfg := config.Default().Narrative
	cfg.APIKey = ""

	_, err := NewGeminiGenerator(context.Background(), cfg, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConfig))
}

func TestGenerate_LimiterHonoursContext(t *testing.T) {
	g := &GeminiGenerator{limiter: rate.NewLimiter(rate.Every(time.Hour), 1)}
	require.True(t, g.limiter.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := g.Generate(ctx, BuildTasks(sampleRequest())[0])
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNarrative))
}
