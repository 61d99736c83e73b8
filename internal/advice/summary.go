// Package advice computes spending summaries and turns them into advice and
// tips, using the remote model when one is reachable and fixed rule tables
// otherwise.
package advice

import (
	"sort"

	"github.com/dvloznov/finance-chat/internal/domain"
)

// CategoryTotal is the expense total of one category.
type CategoryTotal struct {
	Category domain.Category `json:"category"`
	Amount   float64         `json:"amount"`
	Count    int             `json:"count"`
}

// Summary is the financial context shared by advice and tips.
type Summary struct {
	TotalIncome   float64         `json:"totalIncome"`
	TotalExpenses float64         `json:"totalExpenses"`
	Balance       float64         `json:"balance"`
	Categories    []CategoryTotal `json:"categories"` // expenses only, largest first
	Count         int             `json:"count"`
}

// Summarize totals txs. Categories are sorted by amount descending with ties
// broken by name.
func Summarize(txs []domain.TransactionRecord) Summary {
	s := Summary{Count: len(txs)}
	byCategory := make(map[domain.Category]*CategoryTotal)

	for _, tx := range txs {
		switch tx.Type {
		case domain.Income:
			s.TotalIncome += tx.Amount
		case domain.Expense:
			s.TotalExpenses += tx.Amount
			ct, ok := byCategory[tx.Category]
			if !ok {
				ct = &CategoryTotal{Category: tx.Category}
				byCategory[tx.Category] = ct
			}
			ct.Amount += tx.Amount
			ct.Count++
		}
	}
	s.Balance = s.TotalIncome - s.TotalExpenses

	s.Categories = make([]CategoryTotal, 0, len(byCategory))
	for _, ct := range byCategory {
		s.Categories = append(s.Categories, *ct)
	}
	sort.Slice(s.Categories, func(i, j int) bool {
		if s.Categories[i].Amount != s.Categories[j].Amount {
			return s.Categories[i].Amount > s.Categories[j].Amount
		}
		return s.Categories[i].Category < s.Categories[j].Category
	})
	return s
}

// Top returns at most n of the largest expense categories.
func (s Summary) Top(n int) []CategoryTotal {
	if n > len(s.Categories) {
		n = len(s.Categories)
	}
	return s.Categories[:n]
}

// CategoryCount returns how many expenses fell into c.
func (s Summary) CategoryCount(c domain.Category) int {
	for _, ct := range s.Categories {
		if ct.Category == c {
			return ct.Count
		}
	}
	return 0
}
