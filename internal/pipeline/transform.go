package pipeline

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/dvloznov/finance-chat/internal/domain"
)

var (
	// Both hints match anywhere in the text, so "salaryday" counts as salary.
	expenseHint = regexp.MustCompile(`(?i)(spent|paid|bought|purchased|cost|expense)`)
	incomeVerb  = regexp.MustCompile(`(?i)(received|earned|got|made|income|salary)`)
)

// modelFields is the repaired view of the object the model returned.
type modelFields struct {
	Type        domain.TransactionType
	Amount      float64
	Category    domain.Category
	Description string
}

// repairModelFields validates each field of obj on its own and back-fills
// anything missing from the original message.
func repairModelFields(obj map[string]interface{}, message string) (modelFields, error) {
	var out modelFields

	typ, _ := getStringField(obj, "type")
	out.Type = domain.TransactionType(strings.ToLower(strings.TrimSpace(typ)))
	if !out.Type.Valid() {
		out.Type = inferType(message)
	}

	amount, ok := getAmountField(obj, "amount")
	if !ok {
		amount, ok = firstNumber(message)
	}
	if !ok {
		return modelFields{}, fmt.Errorf("repairModelFields: %w", ErrMissingAmount)
	}
	out.Amount = amount

	desc, _ := getStringField(obj, "description")
	out.Description = strings.TrimSpace(desc)
	hint := out.Description
	if out.Description == "" {
		out.Description = message
		hint = message
	}

	category, _ := getStringField(obj, "category")
	out.Category = resolveCategory(out.Type, category, hint, message)

	return out, nil
}

// inferType classifies by verb when the model gave no usable type. Expense
// verbs are checked first and ambiguous text is an expense.
func inferType(message string) domain.TransactionType {
	switch {
	case expenseHint.MatchString(message):
		return domain.Expense
	case incomeVerb.MatchString(message):
		return domain.Income
	default:
		return domain.Expense
	}
}

func getStringField(m map[string]interface{}, key string) (string, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", false
	}
	switch val := v.(type) {
	case string:
		if strings.TrimSpace(val) == "" {
			return "", false
		}
		return val, true
	default:
		return "", false
	}
}

// getAmountField accepts numbers and numeric strings such as "₹1,250".
func getAmountField(m map[string]interface{}, key string) (float64, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) || val <= 0 {
			return 0, false
		}
		return val, true
	case string:
		return parseAmount(val)
	default:
		return 0, false
	}
}
