package recommend

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"cultivai/cropvision/weather"
)

type fakeModel struct {
	gotModel  string
	gotPrompt string
	gotConfig *genai.GenerateContentConfig
	resp      *genai.GenerateContentResponse
	err       error
}

func (f *fakeModel) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.gotModel = model
	f.gotConfig = config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.gotPrompt = contents[0].Parts[0].Text
	}
	return f.resp, f.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: genai.NewContentFromText(text, genai.RoleModel),
		}},
	}
}

func ptr(v float64) *float64 { return &v }

func sampleWeather() *weather.Report {
	r := &weather.Report{Name: "Quevedo"}
	r.Main.Temp = ptr(27.5)
	r.Main.Humidity = ptr(80)
	r.Weather = []weather.Condition{{Description: "light rain"}}
	return r
}

func TestRecommend(t *testing.T) {
	m := &fakeModel{resp: textResponse("  **Riego**: moderado.\n* Abono  ")}
	g := NewGeneratorWithModel(m, Options{}, nil)

	got, err := g.Recommend(context.Background(), "Maíz", sampleWeather())
	require.NoError(t, err)
	assert.Equal(t, "Riego: moderado.\n Abono", got)
	assert.Equal(t, "gemini-1.5-flash", m.gotModel)
	assert.Nil(t, m.gotConfig)
	assert.Contains(t, m.gotPrompt, "Actualmente, en tu ubicación (Quevedo)")
	assert.Contains(t, m.gotPrompt, "la temperatura es de 27.5°C")
	assert.Contains(t, m.gotPrompt, "la humedad es del 80%")
	assert.Contains(t, m.gotPrompt, `"light rain"`)
	assert.Contains(t, m.gotPrompt, "Solo responde preguntas relacionadas con la agricultura.")
	assert.Contains(t, m.gotPrompt, "¿Qué recomendaciones puedes darme para el cultivo de Maíz en estas condiciones?")
}

func TestRecommend_NoWeather(t *testing.T) {
	m := &fakeModel{resp: textResponse("x")}
	g := NewGeneratorWithModel(m, Options{}, nil)
	_, err := g.Recommend(context.Background(), "Maíz", nil)
	assert.ErrorIs(t, err, ErrNoWeather)
	assert.Empty(t, m.gotPrompt)
}

func TestRecommend_EmptyResponses(t *testing.T) {
	cases := map[string]*genai.GenerateContentResponse{
		"nil":        nil,
		"candidates": {},
		"content":    {Candidates: []*genai.Candidate{{}}},
		"parts":      {Candidates: []*genai.Candidate{{Content: &genai.Content{}}}},
		"blank":      textResponse("  "),
	}
	for name, resp := range cases {
		t.Run(name, func(t *testing.T) {
			g := NewGeneratorWithModel(&fakeModel{resp: resp}, Options{}, nil)
			_, err := g.Recommend(context.Background(), "Maíz", sampleWeather())
			assert.ErrorIs(t, err, ErrEmptyResponse)
		})
	}
}

func TestRecommend_ModelError(t *testing.T) {
	boom := errors.New("quota")
	g := NewGeneratorWithModel(&fakeModel{err: boom}, Options{Model: "gemini-2.0-flash", Temperature: 0.4}, nil)
	_, err := g.Recommend(context.Background(), "Trigo", sampleWeather())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "gemini-2.0-flash", g.ModelName())
}

func TestGenerator_Temperature(t *testing.T) {
	m := &fakeModel{resp: textResponse("ok")}
	g := NewGeneratorWithModel(m, Options{Temperature: 0.4}, nil)
	_, err := g.Ask(context.Background(), "¿Cuándo siembro?", nil)
	require.NoError(t, err)
	require.NotNil(t, m.gotConfig)
	require.NotNil(t, m.gotConfig.Temperature)
	assert.InDelta(t, 0.4, *m.gotConfig.Temperature, 1e-6)
}

func TestAsk(t *testing.T) {
	m := &fakeModel{resp: textResponse("Siembra en *marzo*.")}
	g := NewGeneratorWithModel(m, Options{}, nil)

	got, err := g.Ask(context.Background(), "  ¿Cuándo siembro arroz? ", sampleWeather())
	require.NoError(t, err)
	assert.Equal(t, "Siembra en marzo.", got)
	assert.Contains(t, m.gotPrompt, "Quevedo")
	assert.Contains(t, m.gotPrompt, "¿Cuándo siembro arroz?")

	_, err = g.Ask(context.Background(), "   ", nil)
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestWeatherContext_Unknowns(t *testing.T) {
	got := WeatherContext(&weather.Report{})
	assert.Contains(t, got, "ubicación (desconocida)")
	assert.Contains(t, got, "temperatura es de desconocida°C")
	assert.Contains(t, got, "humedad es del desconocida%")
	assert.Contains(t, got, `"desconocido"`)

	zero := &weather.Report{}
	zero.Main.Temp = ptr(0)
	assert.Contains(t, WeatherContext(zero), "temperatura es de 0°C")
}

func TestChatPrompt_NoWeather(t *testing.T) {
	got := ChatPrompt("hola", nil)
	assert.Equal(t, "Solo responde preguntas relacionadas con la agricultura.\nhola", got)
}
