package advice

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dvloznov/finance-chat/internal/domain"
)

const (
	maxTips       = 5
	minRuleTips   = 4
	minTipLength  = 20
	maxTipLength  = 300
	defaultEmoji  = "💡"
	frequentMeals = 15
)

var welcomeTips = []string{
	"Hey buddy! 👋 Start tracking your expenses here in " + ProductName + " to unlock personalized financial insights!",
	"💡 Pro tip: Once you log some transactions, I'll analyze your spending patterns and give you smart money advice!",
	"🎯 " + ProductName + " makes it super easy - just chat with me like 'spent 250 on lunch' and I'll handle the rest!",
}

var generalTips = []string{
	"🎯 Pro tip: The 50/30/20 rule works wonders - 50% needs, 30% wants, 20% savings. Start small and build up!",
	"📱 " + ProductName + "'s chat makes tracking super easy! Just tell me 'spent 200 on groceries' and I'll handle the categorization.",
	"🎓 Always look for student discounts! Apps like HDFC Smartbuy, Amazon Prime Student can save you 10-40% on purchases.",
	"📦 Try the 'envelope method' - set monthly limits for categories and stick to them. " + ProductName + " helps you track this automatically!",
	"💰 Emergency fund tip: Save ₹100-500 weekly in a separate account. Small amounts compound into big security!",
}

var (
	tipNumbering = regexp.MustCompile(`^[\d\-*.)\s]+`)
	tipQuotes    = regexp.MustCompile(`^["']|["']$`)
)

// parseModelTips turns a model reply into tips: one per line, lines of
// 21 to 299 characters, numbering and quotes stripped, emoji guaranteed.
func parseModelTips(text string) []string {
	var tips []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		n := utf8.RuneCountInString(line)
		if n <= minTipLength || n >= maxTipLength {
			continue
		}

		line = tipNumbering.ReplaceAllString(line, "")
		line = tipQuotes.ReplaceAllString(line, "")
		if !startsWithEmoji(line) {
			line = defaultEmoji + " " + line
		}

		tips = append(tips, line)
		if len(tips) == maxTips {
			break
		}
	}
	return tips
}

func startsWithEmoji(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	switch {
	case r >= 0x1F300 && r <= 0x1F8FF:
		return true
	case r >= 0x2600 && r <= 0x27BF:
		return true
	}
	return false
}

// ruleTips derives tips from the summary. intn picks from the general pool,
// which is drawn without replacement until minRuleTips is reached.
func ruleTips(s Summary, intn func(int) int) []string {
	var tips []string

	if s.Count < 5 {
		tips = append(tips, "👋 Hey there! Great start tracking your money in "+ProductName+"! Keep logging transactions to get more personalized insights.")
	}

	switch {
	case s.Balance < 0:
		tips = append(tips, "🚨 Buddy, you're spending more than you're earning! Let's work together to create a budget and find areas to cut back.")
	case s.Balance > 0 && s.Balance < s.TotalIncome*0.1:
		tips = append(tips, "🔥 You're living paycheck to paycheck! Try to save at least 10-20% of your income. Even ₹500/month is a great start!")
	case s.Balance > s.TotalIncome*0.3:
		tips = append(tips, "🎆 Awesome! You're saving well! Consider investing some of that surplus in SIPs or fixed deposits for better returns.")
	}

	if top := s.Top(1); len(top) == 1 {
		if tip, ok := topCategoryTip(top[0], s.TotalExpenses); ok {
			tips = append(tips, tip)
		}
	}

	if s.CategoryCount(domain.CategoryFood) > frequentMeals {
		tips = append(tips, "🍲 You're eating out quite often! Meal prepping on Sundays can save you both time and money. Try it for a week!")
	}

	// With no income the ratio is +Inf and the tip fires; with nothing at
	// all it is NaN and it does not.
	if s.TotalExpenses/s.TotalIncome > 0.8 {
		tips = append(tips, "📊 You're using 80%+ of your income! Use "+ProductName+"'s analytics to identify your top 3 expenses and see where you can trim ₹1000-2000.")
	}

	if s.Count > 20 {
		tips = append(tips, "📈 You're doing great tracking in "+ProductName+"! Check your charts regularly - visual patterns help you make better money decisions.")
	}

	pool := append([]string(nil), generalTips...)
	for len(tips) < minRuleTips && len(pool) > 0 {
		i := intn(len(pool))
		tips = append(tips, pool[i])
		pool = append(pool[:i], pool[i+1:]...)
	}

	if len(tips) > maxTips {
		tips = tips[:maxTips]
	}
	return tips
}

func topCategoryTip(top CategoryTotal, totalExpenses float64) (string, bool) {
	pct := top.Amount / totalExpenses * 100
	amount := rupees(float64(int64(top.Amount + 0.5)))

	switch {
	case top.Category == domain.CategoryFood && pct > 30:
		return fmt.Sprintf("🍴 I see you're spending %s on food (%.0f%% of expenses). Try cooking at home more often - you could save ₹5000+ monthly!", amount, pct), true
	case top.Category == domain.CategoryTransport && pct > 20:
		return fmt.Sprintf("🚌 Transport is eating up %s of your budget! Consider monthly passes or carpooling to reduce costs.", amount), true
	case top.Category == domain.CategoryEntertainment && pct > 25:
		return fmt.Sprintf("🎬 You're spending %s on entertainment. Balance is key! Try free activities or student discounts to enjoy while saving.", amount), true
	case top.Category == domain.CategoryShopping && pct > 20:
		return fmt.Sprintf("🛍️ Shopping costs are at %s. Before buying, ask yourself: Do I need this or want this? Wait 24 hours before non-essential purchases!", amount), true
	}
	return "", false
}
