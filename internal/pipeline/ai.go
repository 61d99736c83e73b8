package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/finance-chat/internal/domain"
	"github.com/dvloznov/finance-chat/internal/llm"
)

// AIExtractor asks the remote model for a JSON record and repairs the reply.
type AIExtractor struct {
	querier llm.Querier
	records recordFactory
}

func NewAIExtractor(q llm.Querier) *AIExtractor {
	return &AIExtractor{
		querier: q,
		records: recordFactory{prefix: "ai"},
	}
}

func (a *AIExtractor) WithClock(now func() time.Time) *AIExtractor {
	a.records.now = now
	return a
}

func (a *AIExtractor) Name() string { return "ai" }

func (a *AIExtractor) Extract(ctx context.Context, message string) (domain.TransactionRecord, error) {
	message = strings.TrimSpace(message)
	if message == "" || a.querier == nil {
		return domain.TransactionRecord{}, ErrNoMatch
	}

	prompt, err := buildExtractionPrompt(message)
	if err != nil {
		return domain.TransactionRecord{}, err
	}

	raw, err := a.querier.Query(ctx, prompt)
	if err != nil {
		return domain.TransactionRecord{}, fmt.Errorf("AIExtractor.Extract: %w", err)
	}

	clean, ok := cleanModelJSON(raw)
	if !ok {
		return domain.TransactionRecord{}, fmt.Errorf("AIExtractor.Extract: %w", ErrUnparseableResponse)
	}

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(clean), &obj); err != nil {
		return domain.TransactionRecord{}, fmt.Errorf("AIExtractor.Extract: %w: %v", ErrUnparseableResponse, err)
	}

	fields, err := repairModelFields(obj, message)
	if err != nil {
		return domain.TransactionRecord{}, fmt.Errorf("AIExtractor.Extract: %w", err)
	}

	return a.records.build(fields.Type, fields.Amount, fields.Category, fields.Description), nil
}
