package advice

import (
	"context"
	"errors"
	"math/rand/v2"
	"regexp"
	"strings"
	"sync"

	"github.com/dvloznov/finance-chat/internal/domain"
	"github.com/dvloznov/finance-chat/internal/llm"
	"github.com/dvloznov/finance-chat/internal/logger"
)

var surroundingQuotes = regexp.MustCompile(`^["']|["']$`)

// Advisor answers advice questions and produces tips. Its methods never
// fail: remote problems degrade to the rule tables.
type Advisor struct {
	querier llm.Querier
	cache   TipCache

	mu  sync.Mutex
	rng *rand.Rand
}

type Option func(*Advisor)

// WithRand fixes the random source used to sample general tips.
func WithRand(r *rand.Rand) Option {
	return func(a *Advisor) { a.rng = r }
}

// WithTipCache caches model-generated tips per transaction history.
func WithTipCache(c TipCache) Option {
	return func(a *Advisor) { a.cache = c }
}

func NewAdvisor(q llm.Querier, opts ...Option) *Advisor {
	a := &Advisor{querier: q}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Advice answers message using the transaction history as context.
func (a *Advisor) Advice(ctx context.Context, message string, history []domain.ConversationTurn, txs []domain.TransactionRecord) string {
	log := logger.FromContext(ctx)
	s := Summarize(txs)

	if a.querier != nil {
		text, err := a.modelAdvice(ctx, message, history, s)
		if err == nil {
			return text
		}
		logRemoteFailure(ctx, err, "advice")
	}

	text, bucket := ruleAdvice(message, s)
	log.Debug().Str("bucket", bucket).Msg("rule-based advice")
	return text
}

func (a *Advisor) modelAdvice(ctx context.Context, message string, history []domain.ConversationTurn, s Summary) (string, error) {
	prompt, err := buildAdvicePrompt(message, history, s)
	if err != nil {
		return "", err
	}
	raw, err := a.querier.Query(ctx, prompt)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(surroundingQuotes.ReplaceAllString(strings.TrimSpace(raw), ""))
	if text == "" {
		return "", errors.New("empty advice from model")
	}
	return text, nil
}

// Tips returns three to five short tips, each starting with an emoji.
func (a *Advisor) Tips(ctx context.Context, txs []domain.TransactionRecord) []string {
	if len(txs) == 0 {
		return append([]string(nil), welcomeTips...)
	}

	log := logger.FromContext(ctx)
	s := Summarize(txs)
	key := historyKey(txs)

	if a.cache != nil {
		tips, ok, err := a.cache.Get(ctx, key)
		if err != nil {
			log.Warn().Err(err).Msg("tip cache read failed")
		} else if ok && len(tips) > 0 {
			return tips
		}
	}

	if a.querier != nil {
		tips, err := a.modelTips(ctx, txs, s)
		if err == nil && len(tips) > 0 {
			if a.cache != nil {
				if err := a.cache.Set(ctx, key, tips); err != nil {
					log.Warn().Err(err).Msg("tip cache write failed")
				}
			}
			return tips
		}
		if err != nil {
			logRemoteFailure(ctx, err, "tips")
		}
	}

	return ruleTips(s, a.intn)
}

func (a *Advisor) modelTips(ctx context.Context, txs []domain.TransactionRecord, s Summary) ([]string, error) {
	prompt, err := buildTipsPrompt(txs, s)
	if err != nil {
		return nil, err
	}
	raw, err := a.querier.Query(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return parseModelTips(raw), nil
}

func (a *Advisor) intn(n int) int {
	if a.rng == nil {
		return rand.IntN(n)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rng.IntN(n)
}

func logRemoteFailure(ctx context.Context, err error, what string) {
	log := logger.FromContext(ctx)
	if errors.Is(err, llm.ErrNoCredential) {
		log.Debug().Str("what", what).Msg("no model credential, using rules")
		return
	}
	log.Warn().Err(err).Str("what", what).Msg("model unavailable, using rules")
}
