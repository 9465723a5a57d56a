package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eanfill/backend/internal/domain"
)

func chatAnswer(content string) string {
	body, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	})
	return string(body)
}

func floatPtr(v float64) *float64 { return &v }

func TestNewRefiner_Defaults(t *testing.T) {
	r := NewRefiner("key", "https://api.example.com", "", 0)

	assert.Equal(t, "gpt-4o-mini", r.model)
	assert.Equal(t, 20*time.Second, r.httpClient.Timeout)
}

func TestRefine_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))

		body, _ := io.ReadAll(r.Body)
		var req map[string]any
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "gpt-4o-mini", req["model"])
		assert.Equal(t, 0.2, req["temperature"])

		prompt := req["messages"].([]any)[0].(map[string]any)["content"].(string)
		assert.Contains(t, prompt, "Nome: Caminhão NIG")
		assert.Contains(t, prompt, "EAN13: 7891234567895")
		assert.Contains(t, prompt, "Peso (kg): 1.5")

		w.Write([]byte(chatAnswer(`{"brand":"NIG","short_description":"Caminhão de brinquedo NIG."}`)))
	}))
	defer server.Close()

	refiner := NewRefiner("test-api-key", server.URL, "", 20*time.Second)

	result, err := refiner.Refine(context.Background(), domain.RefineInput{
		Name:       "Caminhão NIG",
		Brand:      "nig",
		Identifier: "7891234567895",
		Measurements: domain.Measurements{
			WeightKg: floatPtr(1.5),
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "NIG", result.Brand)
	assert.Equal(t, "Caminhão de brinquedo NIG.", result.ShortDescription)
}

func TestRefine_Disabled(t *testing.T) {
	refiner := NewRefiner("", "https://api.example.com", "", 20*time.Second)

	result, err := refiner.Refine(context.Background(), domain.RefineInput{})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrSourceDisabled)
}

func TestRefine_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	refiner := NewRefiner("test-api-key", server.URL, "", 20*time.Second)

	result, err := refiner.Refine(context.Background(), domain.RefineInput{})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestRefine_NonJSONAnswer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatAnswer("desculpe, não entendi")))
	}))
	defer server.Close()

	refiner := NewRefiner("test-api-key", server.URL, "", 20*time.Second)

	result, err := refiner.Refine(context.Background(), domain.RefineInput{})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestRefine_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	refiner := NewRefiner("test-api-key", server.URL, "", 20*time.Second)

	result, err := refiner.Refine(context.Background(), domain.RefineInput{})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrNoResult)
}

func TestRefine_FencedAnswerUnwrapped(t *testing.T) {
	content := "```json\n{\"brand\":\"Grow\",\"short_description\":\"Jogo Grow.\"}\n```"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatAnswer(content)))
	}))
	defer server.Close()

	refiner := NewRefiner("test-api-key", server.URL, "", 20*time.Second)

	result, err := refiner.Refine(context.Background(), domain.RefineInput{})

	require.NoError(t, err)
	assert.Equal(t, "Grow", result.Brand)
	assert.Equal(t, "Jogo Grow.", result.ShortDescription)
}

func TestBuildPrompt_NilMeasurementsRenderEmpty(t *testing.T) {
	prompt := buildPrompt(domain.RefineInput{Name: "Produto", Identifier: "12345678"})

	for _, line := range []string{"Peso (kg): ", "Largura (cm): ", "Altura (cm): ", "Comprimento (cm): "} {
		assert.True(t, strings.Contains(prompt, line+"\n") || strings.HasSuffix(prompt, line),
			"prompt must render empty value for %q", line)
	}
}
