package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"plazabi/internal/core"
)

// FallbackMessage is the single user-facing failure string. Provider errors
// never reach the dashboard in any other form.
const FallbackMessage = "Não foi possível gerar insights no momento. Verifique sua conexão ou dados."

const DefaultModel = "gemini-3-pro-preview"

// Summary is the compact per-record payload sent to the text-generation
// provider. Full records never leave the system.
type Summary struct {
	Plaza     string  `json:"plaza"`
	Traffic   int     `json:"traffic"`
	Incidents int     `json:"incidents"`
	Revenue   float64 `json:"revenue"`
}

// Summarize projects records onto the provider payload.
func Summarize(records []core.Record) []Summary {
	out := make([]Summary, 0, len(records))
	for _, r := range records {
		out = append(out, Summary{
			Plaza:     r.PlazaName,
			Traffic:   r.TotalVehicles(),
			Incidents: r.Incidents,
			Revenue:   r.TotalRevenue(),
		})
	}
	return out
}

// BuildPrompt renders the pt-BR analysis prompt around the summarized data.
func BuildPrompt(records []core.Record) (string, error) {
	payload, err := json.Marshal(Summarize(records))
	if err != nil {
		return "", fmt.Errorf("marshal summary: %w", err)
	}
	prompt := "Analise os seguintes dados operacionais de praças de pedágio e forneça 3 insights estratégicos curtos (máximo 2 frases cada) focados em eficiência operacional e segurança.\n" +
		"Dados: " + string(payload) + "\n\n" +
		"Responda em Português do Brasil com um tom profissional de BI."
	return prompt, nil
}

// Generator produces free text for a prompt. The Gemini client satisfies it;
// tests use fakes.
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// GeminiClient wraps the GenAI SDK for insight generation.
type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create GenAI client: %w", err)
	}

	return &GeminiClient{client: client, model: model}, nil
}

func (c *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return text, nil
}

// Service turns record data into dashboard insight text.
type Service struct {
	gen Generator
}

func NewService(gen Generator) *Service {
	return &Service{gen: gen}
}

// OperationalInsights asks the provider for insights over the given records.
// Failures of any kind collapse into the fixed fallback string.
func (s *Service) OperationalInsights(ctx context.Context, records []core.Record) string {
	if s.gen == nil {
		return FallbackMessage
	}
	prompt, err := BuildPrompt(records)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to build insight prompt", "error", err)
		return FallbackMessage
	}
	text, err := s.gen.GenerateText(ctx, prompt)
	if err != nil {
		slog.ErrorContext(ctx, "Insight generation failed", "error", err)
		return FallbackMessage
	}
	return text
}
