package pipeline

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/finance-chat/internal/domain"
)

// ParsePattern is one declarative recognition rule. The expression has two
// capture groups: amount then description, or description then amount when
// Reversed is set. A non-empty Description replaces whatever was captured.
type ParsePattern struct {
	Name        string
	Expr        *regexp.Regexp
	Type        domain.TransactionType
	Reversed    bool
	Description string
}

// newPattern compiles expr case-insensitively. The token AMT inside expr is
// replaced with the shared amount expression.
func newPattern(name string, typ domain.TransactionType, expr string) ParsePattern {
	expr = strings.ReplaceAll(expr, "AMT", amountExpr)
	return ParsePattern{
		Name: name,
		Expr: regexp.MustCompile(`(?i)` + expr),
		Type: typ,
	}
}

func (p ParsePattern) reversed() ParsePattern {
	p.Reversed = true
	return p
}

func (p ParsePattern) describedAs(desc string) ParsePattern {
	p.Description = desc
	return p
}

// patternMatch is the outcome of the first pattern that produced a valid
// amount.
type patternMatch struct {
	Pattern     ParsePattern
	Amount      float64
	Description string
}

// evaluatePatterns tries patterns in order and stops at the first match whose
// amount converts to a positive number. Matches with unusable amounts fall
// through to the next pattern.
func evaluatePatterns(patterns []ParsePattern, message string) (patternMatch, bool) {
	for _, p := range patterns {
		groups := p.Expr.FindStringSubmatch(message)
		if groups == nil {
			continue
		}

		amountIdx, descIdx := 1, 2
		if p.Reversed {
			amountIdx, descIdx = 2, 1
		}

		var amountTok, desc string
		if amountIdx < len(groups) {
			amountTok = groups[amountIdx]
		}
		if descIdx < len(groups) {
			desc = strings.TrimSpace(groups[descIdx])
		}

		amount, ok := parseAmount(amountTok)
		if !ok {
			continue
		}

		if p.Description != "" {
			desc = p.Description
		}
		if desc == "" {
			desc = string(p.Type)
		}

		return patternMatch{Pattern: p, Amount: amount, Description: desc}, true
	}
	return patternMatch{}, false
}

// recordFactory stamps extracted records with an id and creation time.
type recordFactory struct {
	prefix string
	now    func() time.Time
}

func (f recordFactory) build(typ domain.TransactionType, amount float64, category domain.Category, desc string) domain.TransactionRecord {
	now := time.Now
	if f.now != nil {
		now = f.now
	}
	return domain.TransactionRecord{
		ID:          f.prefix + "-" + uuid.NewString(),
		Type:        typ,
		Amount:      amount,
		Category:    category,
		Description: desc,
		CreatedAt:   now().UTC(),
	}
}

// Extractor is one strategy of the extraction cascade.
type Extractor interface {
	Name() string
	Extract(ctx context.Context, message string) (domain.TransactionRecord, error)
}
