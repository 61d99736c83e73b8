package pipeline

import (
	"strings"

	"github.com/dvloznov/finance-chat/internal/domain"
)

// categoryKeywords is evaluated top to bottom; the first group with a
// keyword contained in the text wins.
var categoryKeywords = []struct {
	category domain.Category
	keywords []string
}{
	{domain.CategoryFood, []string{"food", "lunch", "dinner"}},
	{domain.CategoryRent, []string{"rent", "housing"}},
	{domain.CategoryTransport, []string{"bus", "train", "uber"}},
	{domain.CategoryEntertainment, []string{"movie", "game", "concert"}},
	{domain.CategoryShopping, []string{"clothes", "shopping"}},
}

// GuessCategory maps free text to a category by case-insensitive substring
// match. Text matching nothing is "others".
func GuessCategory(text string) domain.Category {
	lower := strings.ToLower(text)
	for _, group := range categoryKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				return group.category
			}
		}
	}
	return domain.CategoryOthers
}

// resolveCategory picks the record category. A candidate from the model is
// kept when it is in the vocabulary; otherwise the text is guessed. Income
// never ends up as "others".
func resolveCategory(typ domain.TransactionType, candidate, text, message string) domain.Category {
	category, ok := domain.ParseCategory(candidate)
	if !ok {
		category = GuessCategory(text)
	}
	if typ == domain.Income && category == domain.CategoryOthers {
		if strings.Contains(strings.ToLower(message), "freelance") {
			return domain.CategoryFreelance
		}
		return domain.CategorySalary
	}
	return category
}
