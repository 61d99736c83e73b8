package advice

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/dvloznov/finance-chat/internal/domain"
)

// ProductName is how the assistant refers to the app.
const ProductName = "ClearBudget"

const (
	historyTurns = 10
	recentTxs    = 15
)

var funcs = template.FuncMap{"rupees": rupees}

var advicePrompt = template.Must(template.New("advice").Funcs(funcs).Parse(
	`You are a friendly financial advisor integrated into {{.Product}}, a personal finance tracking app. The user is asking: "{{.Message}}"

User's Current Financial Status:
- Total Income: {{rupees .Summary.TotalIncome}}
- Total Expenses: {{rupees .Summary.TotalExpenses}}
- Balance: {{rupees .Summary.Balance}}
- Top spending categories: {{.TopCategories}}
- Total transactions tracked: {{.Summary.Count}}
{{if .History}}
Recent conversation:
{{range .History}}- {{.Sender}}: {{.Text}}
{{end}}{{end}}
{{.Product}} App Features:
- AI-powered expense tracking through natural language chat
- Automatic categorization of expenses
- Visual charts and analytics
- Smart financial tips
- Income and expense tracking
- Balance monitoring

Provide a helpful, conversational response as their financial buddy. Be supportive, practical, and reference their actual data when relevant. Keep it friendly and in simple language. No quotes or formal language - talk like a helpful friend.

If they're asking about the app, explain {{.Product}} features. If it's financial advice, make it personalized to their situation.`))

var tipsPrompt = template.Must(template.New("tips").Funcs(funcs).Parse(
	`You are a friendly financial buddy helping an Indian user with their money management through the {{.Product}} app. Be conversational, supportive, and use simple language like talking to a close friend.

User's Financial Summary:
- Total Income: {{rupees .Summary.TotalIncome}}
- Total Expenses: {{rupees .Summary.TotalExpenses}}
- Current Balance: {{rupees .Summary.Balance}}
- Top spending categories: {{.TopCategories}}

Recent Transactions:
{{range .Recent}}{{.Type}} {{rupees .Amount}} on {{.Category}} - {{.Description}}
{{end}}
Provide 4-5 personalized financial tips as a supportive friend. Each tip should:
- Start with a relevant emoji
- Be conversational and encouraging
- Reference their actual spending patterns
- Mention {{.Product}} features when helpful
- Be practical for Indian context
- No double quotes, keep it natural

Format: Just the tips, one per line, no numbering or bullet points.`))

type promptData struct {
	Product       string
	Message       string
	Summary       Summary
	TopCategories string
	History       []domain.ConversationTurn
	Recent        []domain.TransactionRecord
}

func newPromptData(s Summary) promptData {
	top := s.Top(3)
	parts := make([]string, 0, len(top))
	for _, ct := range top {
		parts = append(parts, fmt.Sprintf("%s (%s)", ct.Category, rupees(ct.Amount)))
	}
	topText := strings.Join(parts, ", ")
	if topText == "" {
		topText = "none yet"
	}
	return promptData{Product: ProductName, Summary: s, TopCategories: topText}
}

func buildAdvicePrompt(message string, history []domain.ConversationTurn, s Summary) (string, error) {
	data := newPromptData(s)
	data.Message = message
	if len(history) > historyTurns {
		history = history[len(history)-historyTurns:]
	}
	data.History = history

	var b strings.Builder
	if err := advicePrompt.Execute(&b, data); err != nil {
		return "", fmt.Errorf("buildAdvicePrompt: %w", err)
	}
	return b.String(), nil
}

func buildTipsPrompt(txs []domain.TransactionRecord, s Summary) (string, error) {
	data := newPromptData(s)
	if len(txs) > recentTxs {
		txs = txs[len(txs)-recentTxs:]
	}
	data.Recent = txs

	var b strings.Builder
	if err := tipsPrompt.Execute(&b, data); err != nil {
		return "", fmt.Errorf("buildTipsPrompt: %w", err)
	}
	return b.String(), nil
}
