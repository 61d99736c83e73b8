package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// TransactionType says which way money moved.
type TransactionType string

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// Category is one entry of the closed category vocabulary.
type Category string

const (
	CategoryFood          Category = "food"
	CategoryRent          Category = "rent"
	CategoryTransport     Category = "transport"
	CategoryEntertainment Category = "entertainment"
	CategoryShopping      Category = "shopping"
	CategorySalary        Category = "salary"
	CategoryFreelance     Category = "freelance"
	CategoryOthers        Category = "others"
)

// Categories lists the vocabulary in display order.
var Categories = []Category{
	CategoryFood,
	CategoryRent,
	CategoryTransport,
	CategoryEntertainment,
	CategoryShopping,
	CategorySalary,
	CategoryFreelance,
	CategoryOthers,
}

// Valid reports whether c belongs to the vocabulary.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory normalizes s (case and surrounding whitespace) and checks it
// against the vocabulary.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	return c, c.Valid()
}

// TransactionRecord is a single extracted income or expense.
// CreatedAt is the extraction time, not the time of the real-world event.
type TransactionRecord struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId,omitempty"`
	Type        TransactionType `json:"type"`
	Amount      float64         `json:"amount"`
	Category    Category        `json:"category"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"createdAt"`
}

var (
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidAmount      = errors.New("amount must be a positive number")
	ErrInvalidCategory    = errors.New("unknown category")
	ErrMissingDescription = errors.New("description is required")
)

// Validate checks the record invariants. Stores call it before writing
// records that did not come out of the extraction cascade.
func (r TransactionRecord) Validate() error {
	if !r.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, r.Type)
	}
	if math.IsNaN(r.Amount) || math.IsInf(r.Amount, 0) || r.Amount <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, r.Amount)
	}
	if !r.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, r.Category)
	}
	if strings.TrimSpace(r.Description) == "" {
		return ErrMissingDescription
	}
	return nil
}

// Sender identifies who wrote a conversation turn.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// ConversationTurn is one line of the visible chat transcript.
type ConversationTurn struct {
	Sender Sender `json:"sender"`
	Text   string `json:"text"`
}
