package pipeline

import (
	"context"
	"fmt"

	"github.com/dvloznov/wallet-ledger/internal/ledger"
	"google.golang.org/genai"
)

// GeminiExplainer is the Explainer backed by Gemini.
type GeminiExplainer struct {
	client *genai.Client
	model  string
}

// NewGeminiExplainer creates a genai client using Application Default Credentials
// or GOOGLE_API_KEY. An empty model selects DefaultModelName.
func NewGeminiExplainer(ctx context.Context, model string) (*GeminiExplainer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiExplainer: create genai client: %w", err)
	}
	if model == "" {
		model = DefaultModelName
	}
	return &GeminiExplainer{client: client, model: model}, nil
}

// Explain implements Explainer.
func (e *GeminiExplainer) Explain(ctx context.Context, report *ledger.Report) (string, error) {
	if report == nil || !report.Discrepancy {
		return "", fmt.Errorf("Explain: report has no discrepancy")
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: buildExplanationPrompt(report)},
			},
		},
	}

	resp, err := e.client.Models.GenerateContent(ctx, e.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("Explain: generate content: %w", err)
	}

	text := cleanModelText(resp.Text())
	if text == "" {
		return "", fmt.Errorf("Explain: empty response from model")
	}
	return text, nil
}
