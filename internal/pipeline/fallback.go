package pipeline

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/dvloznov/finance-chat/internal/domain"
)

// fallbackPatterns tolerate looser phrasing than rulePatterns.
var fallbackPatterns = []ParsePattern{
	newPattern("spent", domain.Expense, `\bspent\s+(AMT)\s+(?:on|for)\s+(.+)`),
	newPattern("paid", domain.Expense, `\bpaid\s+(AMT)\s+(?:for|on)\s+(.+)`),
	newPattern("bought", domain.Expense, `\bbought\s+(.+?)\s+(?:for|at)\s+(AMT)`).reversed(),
	newPattern("purchased", domain.Expense, `\bpurchased\s+(.+?)\s+(?:for|at)\s+(AMT)`).reversed(),
	newPattern("amount-spent-on", domain.Expense, `(AMT)\s+(?:on|for|spent on)\s+(.+)`),
	newPattern("item-costs", domain.Expense, `(.+?)\s+costs?\s+(AMT)`).reversed(),

	newPattern("received", domain.Income, `\breceived\s+(AMT)\s+(?:as|from)\s+(.+)`),
	newPattern("earned", domain.Income, `\bearned\s+(AMT)\s+(?:from|as)\s+(.+)`),
	newPattern("got", domain.Income, `\bgot\s+(AMT)\s+(?:from|as)\s+(.+)`),
	newPattern("made", domain.Income, `\bmade\s+(AMT)\s+(?:from|through)\s+(.+)`),
	newPattern("salary-word", domain.Income, `\b(salary|income|wage)\s+(?:of\s+)?(AMT)`).reversed(),
	newPattern("amount-salary", domain.Income, `(AMT)\s+(?:salary|income|received)`).describedAs("income"),
}

// trailingAmount catches "<description> <amount> [rupees]". Like the bare
// number rule its type comes from incomeHint rather than the pattern.
var trailingAmount = newPattern("trailing-amount", domain.Expense,
	`(.+?)\s+(AMT)\s*(?:rupees?|rs\.?|₹)?$`).reversed()

// incomeHint is a substring match: "gotta" and "salaryday" both hint income.
var incomeHint = regexp.MustCompile(`(?i)(salary|income|earned|received|got|made)`)

// FallbackExtractor is the terminal stage. When no pattern matches it takes
// the first number in the message; without one it fails with a ParseError
// wrapping ErrAmountNotFound.
type FallbackExtractor struct {
	patterns []ParsePattern
	records  recordFactory
}

func NewFallbackExtractor() *FallbackExtractor {
	return &FallbackExtractor{
		patterns: fallbackPatterns,
		records:  recordFactory{prefix: "fallback"},
	}
}

func (f *FallbackExtractor) WithClock(now func() time.Time) *FallbackExtractor {
	f.records.now = now
	return f
}

func (f *FallbackExtractor) Name() string { return "fallback" }

func (f *FallbackExtractor) Extract(_ context.Context, message string) (domain.TransactionRecord, error) {
	message = strings.TrimSpace(message)

	if m, ok := evaluatePatterns(f.patterns, message); ok {
		category := fallbackCategory(m.Pattern.Type, m.Description, message)
		return f.records.build(m.Pattern.Type, m.Amount, category, m.Description), nil
	}

	typ := guessType(message)

	if m, ok := evaluatePatterns([]ParsePattern{trailingAmount}, message); ok {
		category := fallbackCategory(typ, m.Description, message)
		return f.records.build(typ, m.Amount, category, m.Description), nil
	}

	amount, ok := firstNumber(message)
	if !ok {
		return domain.TransactionRecord{}, newParseError(message, ErrAmountNotFound)
	}

	return f.records.build(typ, amount, fallbackCategory(typ, message, message), message), nil
}

// fallbackCategory guesses expense categories from text. Income from this
// stage is always salary, or freelance when the message says so.
func fallbackCategory(typ domain.TransactionType, text, message string) domain.Category {
	if typ == domain.Income {
		text = ""
	}
	return resolveCategory(typ, "", text, message)
}

func guessType(message string) domain.TransactionType {
	if incomeHint.MatchString(message) {
		return domain.Income
	}
	return domain.Expense
}
