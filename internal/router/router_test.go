package router

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/finance-chat/internal/domain"
	"github.com/dvloznov/finance-chat/internal/pipeline"
)

type MockExtractor struct {
	ExtractFunc func(ctx context.Context, message string) (domain.TransactionRecord, error)
	Calls       int
}

func (m *MockExtractor) Extract(ctx context.Context, message string) (domain.TransactionRecord, error) {
	m.Calls++
	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, message)
	}
	return domain.TransactionRecord{}, nil
}

type MockAdvisor struct {
	AdviceFunc func(ctx context.Context, message string, history []domain.ConversationTurn, txs []domain.TransactionRecord) string
	Calls      int
}

func (m *MockAdvisor) Advice(ctx context.Context, message string, history []domain.ConversationTurn, txs []domain.TransactionRecord) string {
	m.Calls++
	if m.AdviceFunc != nil {
		return m.AdviceFunc(ctx, message, history, txs)
	}
	return "advice"
}

func TestRoute_ViewCommandsTakePrecedence(t *testing.T) {
	tests := []struct {
		message string
		view    View
	}{
		{"show summary", ViewSummary},
		{"Show Summary, I spent 250 on lunch", ViewSummary},
		{"can you SHOW CHART?", ViewChart},
		{"please show tips", ViewTips},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			ex := &MockExtractor{}
			adv := &MockAdvisor{}
			action := New(ex, adv).Route(context.Background(), tt.message, nil, nil)

			if action.Kind != ActionChangeView || action.View != tt.view {
				t.Errorf("Route(%q) = %+v, want view %s", tt.message, action, tt.view)
			}
			if action.Reply == "" {
				t.Error("expected a reply")
			}
			if ex.Calls != 0 || adv.Calls != 0 {
				t.Errorf("no extraction or advice expected, got %d/%d calls", ex.Calls, adv.Calls)
			}
		})
	}
}

func TestIsAdviceQuestion(t *testing.T) {
	tests := []struct {
		message string
		want    bool
	}{
		{"how do I save more?", true},
		{"Any tips for budgeting", true},
		{"what is ClearBudget", true},
		{"emergency fund", true},
		{"help, I spent 200 on food", false},
		{"should I record that I spent 200 on food", false},
		{"received ₹5000 from dad?", false},
		{"spent 250 on lunch", false},
		{"bought coffee for 50", false},
		{"salary 25000", false},
		{"250", false},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			if got := IsAdviceQuestion(tt.message); got != tt.want {
				t.Errorf("IsAdviceQuestion(%q) = %v, want %v", tt.message, got, tt.want)
			}
		})
	}
}

func TestRoute_Advice(t *testing.T) {
	history := []domain.ConversationTurn{{Sender: domain.SenderUser, Text: "hi"}}
	txs := []domain.TransactionRecord{{ID: "1", Type: domain.Income, Amount: 10, Category: domain.CategorySalary, Description: "x"}}

	adv := &MockAdvisor{AdviceFunc: func(_ context.Context, message string, h []domain.ConversationTurn, got []domain.TransactionRecord) string {
		if len(h) != 1 || len(got) != 1 {
			t.Errorf("advisor did not receive history and transactions")
		}
		return "try the 50/30/20 rule"
	}}
	ex := &MockExtractor{}

	action := New(ex, adv).Route(context.Background(), "how should I budget?", history, txs)
	if action.Kind != ActionAdvice || action.Reply != "try the 50/30/20 rule" {
		t.Errorf("unexpected action %+v", action)
	}
	if ex.Calls != 0 {
		t.Errorf("extractor should not run for advice, got %d calls", ex.Calls)
	}
}

func TestRoute_RecordTransaction(t *testing.T) {
	tests := []struct {
		name  string
		rec   domain.TransactionRecord
		reply string
	}{
		{
			name:  "expense",
			rec:   domain.TransactionRecord{Type: domain.Expense, Amount: 1250, Category: domain.CategoryRent, Description: "rent"},
			reply: "Got it! I've recorded ₹1,250 spent on rent.",
		},
		{
			name:  "income",
			rec:   domain.TransactionRecord{Type: domain.Income, Amount: 5000, Category: domain.CategorySalary, Description: "dad"},
			reply: "Great! I've recorded ₹5,000 as income from dad.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := tt.rec
			rec.ID = "rule-1"
			rec.CreatedAt = time.Now()
			ex := &MockExtractor{ExtractFunc: func(context.Context, string) (domain.TransactionRecord, error) {
				return rec, nil
			}}

			action := New(ex, &MockAdvisor{}).Route(context.Background(), "some transaction", nil, nil)
			if action.Kind != ActionRecordTransaction {
				t.Fatalf("Kind = %s, want record_transaction", action.Kind)
			}
			if action.Transaction == nil || action.Transaction.ID != "rule-1" {
				t.Errorf("Transaction = %+v", action.Transaction)
			}
			if action.Reply != tt.reply {
				t.Errorf("Reply = %q, want %q", action.Reply, tt.reply)
			}
		})
	}
}

func TestRoute_ParseFailed(t *testing.T) {
	parser := pipeline.NewCascade(pipeline.NewRuleBasedExtractor(), pipeline.NewFallbackExtractor())

	action := New(parser, &MockAdvisor{}).Route(context.Background(), "had a great day", nil, nil)
	if action.Kind != ActionParseFailed {
		t.Fatalf("Kind = %s, want parse_failed", action.Kind)
	}
	if action.Transaction != nil {
		t.Error("no transaction expected on failure")
	}
	if len(action.Suggestions) != len(pipeline.ExamplePhrasings) {
		t.Errorf("Suggestions = %v", action.Suggestions)
	}
	if !strings.Contains(action.Reply, "include the amount") {
		t.Errorf("Reply = %q, want guidance", action.Reply)
	}
}
