// Package openai implements the refinement collaborator against an
// OpenAI-compatible chat-completions endpoint. The pipeline only depends on
// the Refiner contract, so any provider speaking the same shape works.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/eanfill/backend/internal/domain"
)

// chatRequest is the chat-completions request body
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the subset of the completion response we read
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// refinePayload is the JSON object the model is asked to answer with
type refinePayload struct {
	Brand            string `json:"brand"`
	ShortDescription string `json:"short_description"`
}

// Refiner normalizes brand capitalization and synthesizes a short product
// description through a chat model.
type Refiner struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	model      string
}

// NewRefiner creates a refinement client. An empty apiKey leaves the
// collaborator disabled; Refine then returns ErrSourceDisabled and the
// pipeline treats the call as a no-op.
func NewRefiner(apiKey, baseURL, model string, timeout time.Duration) *Refiner {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Refiner{
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     apiKey,
		baseURL:    baseURL,
		model:      model,
	}
}

// Refine asks the model for a normalized brand and a short description
// (max 180 characters by convention). Every failure mode is an error; the
// pipeline falls back to the merged record unchanged.
func (r *Refiner) Refine(ctx context.Context, input domain.RefineInput) (*domain.RefineResult, error) {
	if r.apiKey == "" {
		return nil, domain.ErrSourceDisabled
	}

	body, err := json.Marshal(chatRequest{
		Model:       r.model,
		Messages:    []chatMessage{{Role: "user", Content: buildPrompt(input)}},
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}

	reqURL := fmt.Sprintf("%s/v1/chat/completions", r.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		log.Printf("[refine] request failed: %v", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[refine] unexpected status %d", resp.StatusCode)
		return nil, fmt.Errorf("%w: status %d", domain.ErrSourceUnavailable, resp.StatusCode)
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	if len(chat.Choices) == 0 {
		return nil, domain.ErrNoResult
	}

	var payload refinePayload
	content := stripCodeFence(chat.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		log.Printf("[refine] model answered non-JSON content")
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}

	return &domain.RefineResult{
		Brand:            payload.Brand,
		ShortDescription: payload.ShortDescription,
	}, nil
}

// buildPrompt renders the Portuguese marketplace-normalizer prompt with the
// merged record's best-known fields.
func buildPrompt(input domain.RefineInput) string {
	return strings.TrimSpace(fmt.Sprintf(`
Você é um normalizador de dados de produto para marketplaces.
Dados:
- Nome: %s
- Marca: %s
- EAN13: %s
- Peso (kg): %s
- Largura (cm): %s
- Altura (cm): %s
- Comprimento (cm): %s

Tarefas:
1) Marque "Marca" com capitalização correta e sem palavras extras.
2) Gere uma "Descrição Curta" (máx. 180 caracteres, sem emojis), destacando o essencial e dimensões se disponíveis.
Responda ONLY em JSON com {"brand":"...", "short_description":"..."}.`,
		input.Name,
		input.Brand,
		input.Identifier,
		formatOptional(input.Measurements.WeightKg),
		formatOptional(input.Measurements.WidthCm),
		formatOptional(input.Measurements.HeightCm),
		formatOptional(input.Measurements.LengthCm),
	))
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%g", *v)
}

// stripCodeFence unwraps ```json fenced answers some models insist on
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
