package pipeline

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// amountExpr matches an amount token with an optional currency prefix and
// thousands separators, e.g. "₹1,250", "rs. 99.5", "$40".
const amountExpr = `(?:₹\s*|\$\s*|rs\.?\s*|inr\s*)?\d[\d,]*(?:\.\d+)?`

var (
	numberToken   = regexp.MustCompile(`\d+(?:,\d+)*(?:\.\d+)?`)
	currencyNoise = strings.NewReplacer("₹", "", "$", "", ",", "", " ", "")
)

// parseAmount converts an amount token to a number. It reports false unless
// the result is finite and strictly positive.
func parseAmount(token string) (float64, bool) {
	s := strings.ToLower(strings.TrimSpace(token))
	s = strings.TrimPrefix(s, "inr")
	s = strings.TrimPrefix(s, "rs.")
	s = strings.TrimPrefix(s, "rs")
	s = currencyNoise.Replace(s)
	if s == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, false
	}
	return v, true
}

// firstNumber returns the first strictly positive numeric token in message.
func firstNumber(message string) (float64, bool) {
	for _, tok := range numberToken.FindAllString(message, -1) {
		if v, ok := parseAmount(tok); ok {
			return v, true
		}
	}
	return 0, false
}
