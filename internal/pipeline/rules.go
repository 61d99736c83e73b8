package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/dvloznov/finance-chat/internal/domain"
)

// rulePatterns cover the common phrasings. Order matters: the first pattern
// with a valid amount wins.
var rulePatterns = []ParsePattern{
	newPattern("spent-amount-on", domain.Expense,
		`\b(?:spent|paid|bought|purchased?)\s+(AMT)\s+(?:on|for|at)\s+(.+)`),
	newPattern("bought-item-for", domain.Expense,
		`\b(?:bought|got)\s+(.+?)\s+(?:for|at|costs?)\s+(AMT)`).reversed(),
	newPattern("amount-on", domain.Expense,
		`(AMT)\s+(?:on|for)\s+(.+)`),
	newPattern("received-amount-from", domain.Income,
		`\b(?:received|earned|got|made)\s+(AMT)\s+(?:from|as|for)\s+(.+)`),
	newPattern("salary-of", domain.Income,
		`\b(?:salary|wage|income|freelance|job)\s+(?:of\s+)?(AMT)`).describedAs("salary"),
}

// RuleBasedExtractor recognizes messages with fixed patterns and never calls
// out of process.
type RuleBasedExtractor struct {
	patterns []ParsePattern
	records  recordFactory
}

func NewRuleBasedExtractor() *RuleBasedExtractor {
	return &RuleBasedExtractor{
		patterns: rulePatterns,
		records:  recordFactory{prefix: "rule"},
	}
}

// WithClock overrides the creation timestamp source.
func (r *RuleBasedExtractor) WithClock(now func() time.Time) *RuleBasedExtractor {
	r.records.now = now
	return r
}

func (r *RuleBasedExtractor) Name() string { return "rule" }

// Match returns a record when one of the patterns yields a positive amount.
func (r *RuleBasedExtractor) Match(message string) (domain.TransactionRecord, bool) {
	message = strings.TrimSpace(message)
	m, ok := evaluatePatterns(r.patterns, message)
	if !ok {
		return domain.TransactionRecord{}, false
	}
	category := resolveCategory(m.Pattern.Type, "", m.Description, message)
	return r.records.build(m.Pattern.Type, m.Amount, category, m.Description), true
}

func (r *RuleBasedExtractor) Extract(_ context.Context, message string) (domain.TransactionRecord, error) {
	rec, ok := r.Match(message)
	if !ok {
		return domain.TransactionRecord{}, ErrNoMatch
	}
	return rec, nil
}
