package pipeline

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/dvloznov/finance-chat/internal/domain"
)

var extractionPrompt = template.Must(template.New("extract").Parse(
	"You are a financial assistant that parses user messages about money transactions in Indian Rupees (₹). " +
		"Extract transaction details and respond ONLY with valid JSON in this exact format:\n" +
		`{"type": "income" or "expense", "amount": number, "category": string, "description": string}` + "\n\n" +
		"Common categories: {{.Categories}}\n" +
		"Note: Amount should be in Indian Rupees without currency symbol.\n\n" +
		"Parse this transaction: \"{{.Message}}\"\n\n" +
		"Return ONLY valid raw JSON.\n" +
		"Do NOT wrap the response in code fences.\n" +
		"Output must begin with \"{\" and end with \"}\".\n",
))

// buildExtractionPrompt renders the structured-extraction instructions for
// one user message.
func buildExtractionPrompt(message string) (string, error) {
	names := make([]string, 0, len(domain.Categories))
	for _, c := range domain.Categories {
		names = append(names, string(c))
	}

	var b strings.Builder
	err := extractionPrompt.Execute(&b, struct {
		Categories string
		Message    string
	}{
		Categories: strings.Join(names, ", "),
		Message:    message,
	})
	if err != nil {
		return "", fmt.Errorf("buildExtractionPrompt: %w", err)
	}
	return b.String(), nil
}
