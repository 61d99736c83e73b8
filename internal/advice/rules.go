package advice

import (
	"fmt"
	"math"
	"strings"
)

// adviceRule answers messages containing any of its keywords. Rules are
// checked in order and the first hit answers.
type adviceRule struct {
	bucket   string
	keywords []string
	answer   func(s Summary) string
}

var adviceRules = []adviceRule{
	{
		bucket:   "budget",
		keywords: []string{"budget", "how much should i spend"},
		answer: func(s Summary) string {
			if s.Balance > 0 {
				return fmt.Sprintf("Hey! Based on your %s income and current spending, you're doing okay! "+
					"Try the 50/30/20 rule: %s for needs, %s for wants, and %s for savings.",
					rupees(s.TotalIncome), rupees(s.TotalIncome*0.5), rupees(s.TotalIncome*0.3), rupees(s.TotalIncome*0.2))
			}
			return fmt.Sprintf("Your current expenses are %s vs income of %s. Let's work on reducing expenses by %s to get back on track!",
				rupees(s.TotalExpenses), rupees(s.TotalIncome), rupees(math.Abs(s.Balance)))
		},
	},
	{
		bucket:   "save",
		keywords: []string{"save", "saving"},
		answer: func(s Summary) string {
			switch {
			case s.Balance > s.TotalIncome*0.2:
				return fmt.Sprintf("🎉 You're already saving well with %s leftover! Consider investing in SIPs or FDs for better growth. "+
					"Even ₹1000/month in SIP can grow to lakhs over time!", rupees(s.Balance))
			case s.Balance > 0:
				return fmt.Sprintf("You have %s left after expenses. Try to increase this to at least 20%% of income (%s). "+
					"Start by reducing your top expense category!", rupees(s.Balance), rupees(s.TotalIncome*0.2))
			default:
				return fmt.Sprintf("First, let's balance your spending! You're %s in the red. "+
					"Use %s's charts to see where most money goes and cut back there.", rupees(math.Abs(s.Balance)), ProductName)
			}
		},
	},
	{
		bucket:   "invest",
		keywords: []string{"invest", "where to invest"},
		answer: func(Summary) string {
			return "💡 Great question! For beginners, start with SIPs in diversified mutual funds. Once you have 6-month emergency fund, consider: " +
				"1) ELSS for tax saving 2) Index funds for steady growth 3) FD for safe returns. Start small with ₹500-1000 monthly!"
		},
	},
	{
		bucket:   "app",
		keywords: []string{"app", strings.ToLower(ProductName), "how to use"},
		answer: func(Summary) string {
			return fmt.Sprintf("🚀 %s makes money tracking super easy! Just chat with me like: 'spent 250 on lunch', 'got 5000 salary', "+
				"'bought coffee for 50'. I'll automatically categorize everything! Check the Analytics tab for spending charts and "+
				"Smart Tips for personalized advice. Everything updates in real-time!", ProductName)
		},
	},
	{
		bucket:   "emergency",
		keywords: []string{"emergency fund", "emergency"},
		answer: func(s Summary) string {
			return fmt.Sprintf("💪 Emergency funds are crucial! Aim for 6 months of expenses = %s. Seems big? "+
				"Start with ₹500-1000 monthly in a separate savings account. Use %s to track this as 'emergency fund' income!",
				rupees(s.TotalExpenses*6), ProductName)
		},
	},
}

func defaultAdvice(s Summary) string {
	return fmt.Sprintf("🤔 I'm here to help with all your money questions! You can ask me about budgeting, saving, investing, "+
		"or how to use %s better. Your current balance is %s - want specific advice about improving it?", ProductName, rupees(s.Balance))
}

// ruleAdvice answers from the keyword buckets. It returns the bucket name
// for logging.
func ruleAdvice(message string, s Summary) (string, string) {
	lower := strings.ToLower(message)
	for _, rule := range adviceRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.answer(s), rule.bucket
			}
		}
	}
	return defaultAdvice(s), "default"
}
