package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/finance-chat/internal/domain"
	"github.com/dvloznov/finance-chat/internal/llm"
	"github.com/dvloznov/finance-chat/internal/logger"
)

// Cascade runs extractors in order until one returns a record. Stages run
// strictly one after another; failures of all but the last are logged and
// dropped.
type Cascade struct {
	extractors []Extractor
}

// NewCascade creates a cascade over the given extractors.
func NewCascade(extractors ...Extractor) *Cascade {
	return &Cascade{extractors: extractors}
}

// NewTransactionParser wires the standard order: fixed rules, then the remote
// model, then the fallback heuristics. Rules always run before the model so
// recognized phrasings cost no remote call.
func NewTransactionParser(q llm.Querier) *Cascade {
	return NewCascade(
		NewRuleBasedExtractor(),
		NewAIExtractor(q),
		NewFallbackExtractor(),
	)
}

// Extract returns the first record produced. The only error it returns is a
// *ParseError.
func (c *Cascade) Extract(ctx context.Context, message string) (domain.TransactionRecord, error) {
	log := logger.FromContext(ctx)

	var lastErr error = ErrNoMatch
	for _, ex := range c.extractors {
		rec, err := ex.Extract(ctx, message)
		if err == nil {
			log.Debug().
				Str("stage", ex.Name()).
				Str("type", string(rec.Type)).
				Float64("amount", rec.Amount).
				Str("category", string(rec.Category)).
				Msg("transaction extracted")
			return rec, nil
		}

		lastErr = err
		switch {
		case errors.Is(err, ErrNoMatch), errors.Is(err, llm.ErrNoCredential):
			log.Debug().Str("stage", ex.Name()).Err(err).Msg("stage skipped")
		default:
			log.Warn().Str("stage", ex.Name()).Err(err).Msg("stage failed, falling through")
		}
	}

	var perr *ParseError
	if errors.As(lastErr, &perr) {
		return domain.TransactionRecord{}, perr
	}
	return domain.TransactionRecord{}, newParseError(message, fmt.Errorf("%w: %w", ErrAmountNotFound, lastErr))
}
