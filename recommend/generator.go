// Package recommend asks a Gemini model for crop care advice given the
// detected crop and the local weather.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"cultivai/cropvision/weather"
)

var (
	// ErrNoWeather reports a recommendation request without weather data.
	ErrNoWeather = errors.New("weather data not available")
	// ErrEmptyResponse reports a model answer without candidates or text.
	ErrEmptyResponse = errors.New("empty model response")
	// ErrEmptyMessage reports a blank chat message.
	ErrEmptyMessage = errors.New("empty message")
)

// Model is the slice of the genai Models service the generator needs.
type Model interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Options configures the Gemini client.
type Options struct {
	Model       string  `json:"model" yaml:"model"`
	APIKey      string  `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	APIKeyEnv   string  `json:"api_key_env" yaml:"api_key_env"`
	Temperature float32 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	// BaseURL overrides the Gemini API endpoint, for proxies and tests.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
}

// ApplyDefaults populates zero values with sensible defaults.
func (o *Options) ApplyDefaults() {
	if strings.TrimSpace(o.Model) == "" {
		o.Model = "gemini-1.5-flash"
	}
	if o.APIKeyEnv == "" {
		o.APIKeyEnv = "GEMINI_API_KEY"
	}
	if o.Temperature < 0 {
		o.Temperature = 0
	}
}

// Generator produces recommendations and chat answers.
type Generator struct {
	model       Model
	name        string
	temperature float32
	logger      *zap.Logger
}

// NewGenerator connects to the Gemini API. The key falls back to the
// variable named by APIKeyEnv, then to GOOGLE_API_KEY.
func NewGenerator(ctx context.Context, opts Options, logger *zap.Logger) (*Generator, error) {
	opts.ApplyDefaults()
	key := opts.APIKey
	if key == "" {
		key = os.Getenv(opts.APIKeyEnv)
	}
	if key == "" {
		key = os.Getenv("GOOGLE_API_KEY")
	}
	if key == "" {
		return nil, errors.New("recommend: missing api key")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      key,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: strings.TrimSpace(opts.BaseURL)},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	g := NewGeneratorWithModel(client.Models, opts, logger)
	return g, nil
}

// NewGeneratorWithModel wraps an existing model service.
func NewGeneratorWithModel(model Model, opts Options, logger *zap.Logger) *Generator {
	opts.ApplyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		model:       model,
		name:        opts.Model,
		temperature: opts.Temperature,
		logger:      logger,
	}
}

// ModelName returns the configured model name.
func (g *Generator) ModelName() string {
	return g.name
}

// Recommend asks for care advice for crop under the given conditions.
func (g *Generator) Recommend(ctx context.Context, crop string, w *weather.Report) (string, error) {
	if w == nil {
		return "", ErrNoWeather
	}
	crop = strings.TrimSpace(crop)
	if crop == "" {
		return "", errors.New("recommend: crop is required")
	}
	return g.generate(ctx, RecommendationPrompt(crop, w))
}

// Ask answers a free-form agricultural question. Weather is optional.
func (g *Generator) Ask(ctx context.Context, message string, w *weather.Report) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyMessage
	}
	return g.generate(ctx, ChatPrompt(message, w))
}

func (g *Generator) generate(ctx context.Context, prompt string) (string, error) {
	var cfg *genai.GenerateContentConfig
	if g.temperature > 0 {
		t := g.temperature
		cfg = &genai.GenerateContentConfig{Temperature: &t}
	}
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	g.logger.Debug("generate content", zap.String("model", g.name), zap.Int("prompt_len", len(prompt)))
	resp, err := g.model.GenerateContent(ctx, g.name, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text, err := firstText(resp)
	if err != nil {
		return "", err
	}
	return cleanAnswer(text), nil
}

// firstText returns the text of the first part of the first candidate.
func firstText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates", ErrEmptyResponse)
	}
	c := resp.Candidates[0]
	if c == nil || c.Content == nil || len(c.Content.Parts) == 0 || c.Content.Parts[0] == nil {
		return "", fmt.Errorf("%w: no parts", ErrEmptyResponse)
	}
	text := c.Content.Parts[0].Text
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: blank text", ErrEmptyResponse)
	}
	return text, nil
}

// cleanAnswer drops markdown emphasis and surrounding whitespace.
func cleanAnswer(text string) string {
	return strings.TrimSpace(strings.ReplaceAll(text, "*", ""))
}
