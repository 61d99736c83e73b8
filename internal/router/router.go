// Package router decides what a chat message is asking for: a view change,
// financial advice, or a transaction to record.
package router

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dvloznov/finance-chat/internal/advice"
	"github.com/dvloznov/finance-chat/internal/domain"
	"github.com/dvloznov/finance-chat/internal/logger"
	"github.com/dvloznov/finance-chat/internal/pipeline"
)

type ActionKind string

const (
	ActionChangeView        ActionKind = "change_view"
	ActionAdvice            ActionKind = "advice"
	ActionRecordTransaction ActionKind = "record_transaction"
	ActionParseFailed       ActionKind = "parse_failed"
)

// View is a screen of the surrounding product.
type View string

const (
	ViewSummary View = "summary"
	ViewChart   View = "chart"
	ViewTips    View = "tips"
)

// Action is the router's decision for one message. Reply is the bot text to
// show; Transaction is set only for ActionRecordTransaction.
type Action struct {
	Kind        ActionKind                `json:"kind"`
	View        View                      `json:"view,omitempty"`
	Reply       string                    `json:"reply"`
	Transaction *domain.TransactionRecord `json:"transaction,omitempty"`
	Suggestions []string                  `json:"suggestions,omitempty"`
}

// TransactionExtractor turns a message into a record or a *pipeline.ParseError.
type TransactionExtractor interface {
	Extract(ctx context.Context, message string) (domain.TransactionRecord, error)
}

// AdviceGenerator answers advice questions; it never fails.
type AdviceGenerator interface {
	Advice(ctx context.Context, message string, history []domain.ConversationTurn, txs []domain.TransactionRecord) string
}

var viewCommands = []struct {
	phrase string
	view   View
	reply  string
}{
	{"show summary", ViewSummary, "Here's your financial summary!"},
	{"show chart", ViewChart, "Here's a breakdown of your spending by category."},
	{"show tips", ViewTips, "Here are some personalized financial tips for you!"},
}

var (
	adviceCue = regexp.MustCompile(`(?i)(\?|how|what|should|can|advice|tip|help|budget|save|invest|emergency|app|` +
		strings.ToLower(advice.ProductName) + `)`)
	// a money verb directly followed by a number means a transaction even
	// when advice cues are present
	transactionCue = regexp.MustCompile(`(?i)(spent|paid|bought|received|earned|got|made)\s+(?:₹\s*|rs\.?\s*|\$\s*)?\d+`)
)

// Router holds no per-conversation state.
type Router struct {
	extractor TransactionExtractor
	advisor   AdviceGenerator
}

func New(extractor TransactionExtractor, advisor AdviceGenerator) *Router {
	return &Router{extractor: extractor, advisor: advisor}
}

// Route classifies message and produces the matching action. It never
// returns an error: parse failures become ActionParseFailed.
func (r *Router) Route(ctx context.Context, message string, history []domain.ConversationTurn, txs []domain.TransactionRecord) Action {
	log := logger.FromContext(ctx)

	if view, reply, ok := MatchView(message); ok {
		log.Debug().Str("view", string(view)).Msg("view change requested")
		return Action{Kind: ActionChangeView, View: view, Reply: reply}
	}

	if IsAdviceQuestion(message) {
		log.Debug().Msg("routing to advice")
		return Action{Kind: ActionAdvice, Reply: r.advisor.Advice(ctx, message, history, txs)}
	}

	rec, err := r.extractor.Extract(ctx, message)
	if err != nil {
		log.Info().Err(err).Msg("could not parse transaction")
		return parseFailed(message, err)
	}

	return Action{
		Kind:        ActionRecordTransaction,
		Reply:       Confirmation(rec),
		Transaction: &rec,
	}
}

// MatchView reports whether message asks for one of the product views.
func MatchView(message string) (View, string, bool) {
	lower := strings.ToLower(message)
	for _, cmd := range viewCommands {
		if strings.Contains(lower, cmd.phrase) {
			return cmd.view, cmd.reply, true
		}
	}
	return "", "", false
}

// IsAdviceQuestion applies the advice heuristic: an advice cue and no money
// verb followed by a number.
func IsAdviceQuestion(message string) bool {
	return adviceCue.MatchString(message) && !transactionCue.MatchString(message)
}

// Confirmation is the bot reply after recording rec.
func Confirmation(rec domain.TransactionRecord) string {
	amount := "₹" + advice.FormatINR(rec.Amount)
	if rec.Type == domain.Income {
		return fmt.Sprintf("Great! I've recorded %s as income from %s.", amount, rec.Description)
	}
	return fmt.Sprintf("Got it! I've recorded %s spent on %s.", amount, rec.Category)
}

func parseFailed(message string, err error) Action {
	var perr *pipeline.ParseError
	if !errors.As(err, &perr) {
		perr = &pipeline.ParseError{Message: message, Examples: pipeline.ExamplePhrasings, Err: err}
	}
	return Action{
		Kind:        ActionParseFailed,
		Reply:       perr.Guidance(),
		Suggestions: perr.Examples,
	}
}
