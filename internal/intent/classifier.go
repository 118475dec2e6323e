// Package intent classifies natural-language science queries into a
// structured Intent: a coarse category, a scientific domain, a fine-grained
// action, extracted parameters, and a weighted confidence. Classification is
// pure keyword/regex scoring over declarative tables; it performs no I/O and
// never fails — the worst case is an unknown/general intent with a low
// confidence floor.
package intent

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/nyxlab/nyx/api/schemas"
	"github.com/nyxlab/nyx/internal/observability"
)

// Classifier turns raw queries into Intents. It is safe for concurrent use:
// the scoring tables are immutable after init and the memoization cache is
// guarded by a mutex.
type Classifier struct {
	logger *zap.Logger

	cacheEnabled bool
	mu           sync.RWMutex
	cache        map[string]schemas.Intent
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithLogger overrides the default process logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Classifier) { c.logger = l }
}

// WithCache toggles memoization of classifications by exact query text.
// Cached entries never include caller context; it is merged in per call.
func WithCache(enabled bool) Option {
	return func(c *Classifier) { c.cacheEnabled = enabled }
}

// NewClassifier builds a Classifier with the built-in scoring tables.
func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{
		cacheEnabled: true,
		cache:        make(map[string]schemas.Intent),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = observability.GetLogger().Named("intent")
	}
	return c
}

// Detect classifies a query. Detection is deterministic and idempotent:
// the same query and context always produce the same Intent, and the caller's
// context map is carried verbatim under parameters["context"] without
// influencing any score.
func (c *Classifier) Detect(query string, context map[string]any) schemas.Intent {
	if c.cacheEnabled {
		c.mu.RLock()
		cached, ok := c.cache[query]
		c.mu.RUnlock()
		if ok {
			return withContext(cached, context)
		}
	}

	lower := strings.ToLower(query)

	category, categoryScore := detectCategory(lower)
	domain, domainScore := detectDomain(lower)
	action, actionScore := detectAction(lower)
	if actionScore == 0 {
		action, actionScore = defaultAction(category, domain)
	}

	intent := schemas.Intent{
		Category:        category,
		Domain:          domain,
		Action:          action,
		Confidence:      categoryWeight*categoryScore + domainWeight*domainScore + actionWeight*actionScore,
		Parameters:      extractParameters(query, domain),
		RequiresSandbox: sandboxCategories[category] || sandboxActions[action],
		OriginalQuery:   query,
	}

	if c.cacheEnabled {
		c.mu.Lock()
		c.cache[query] = intent
		c.mu.Unlock()
	}

	c.logger.Debug("intent detected",
		zap.String("category", string(category)),
		zap.String("domain", string(domain)),
		zap.String("action", string(action)),
		zap.Float64("confidence", intent.Confidence),
	)

	return withContext(intent, context)
}

// CacheSize reports the number of memoized classifications.
func (c *Classifier) CacheSize() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// ClearCache drops all memoized classifications.
func (c *Classifier) ClearCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]schemas.Intent)
}

// withContext returns a copy of the intent with the caller context merged
// under parameters["context"]. The cached intent's parameter map is never
// aliased to callers.
func withContext(intent schemas.Intent, context map[string]any) schemas.Intent {
	params := make(map[string]any, len(intent.Parameters)+1)
	for k, v := range intent.Parameters {
		params[k] = v
	}
	if len(context) > 0 {
		params["context"] = context
	}
	intent.Parameters = params
	return intent
}

// detectCategory returns the first category whose pattern group matches.
// Every pattern scores the same base, so group declaration order is the
// tie-break. Queries with no pattern match fall back on compute keywords,
// then on the generic query category.
func detectCategory(lower string) (schemas.Category, float64) {
	for _, group := range categoryGroups {
		for _, pattern := range group.patterns {
			if pattern.MatchString(lower) {
				return group.category, categoryBaseScore
			}
		}
	}
	for _, kw := range computeFallbackKeywords {
		if strings.Contains(lower, kw) {
			return schemas.CategoryCompute, computeFallbackScore
		}
	}
	return schemas.CategoryQuery, queryFallbackScore
}

// detectDomain sums the presence weights of each domain's keywords and keeps
// the highest raw sum, clamped to 1.0 afterwards. Strict comparison over the
// fixed domain order makes ties resolve to the first-listed domain.
func detectDomain(lower string) (schemas.Domain, float64) {
	best := schemas.DomainGeneral
	bestScore := 0.0
	for _, domain := range domainOrder {
		score := 0.0
		for keyword, weight := range domainKeywords[domain] {
			if strings.Contains(lower, keyword) {
				score += weight
			}
		}
		if score > bestScore {
			bestScore = score
			best = domain
		}
	}
	if bestScore == 0 {
		return schemas.DomainGeneral, generalDomainScore
	}
	return best, min(bestScore, 1.0)
}

// detectAction applies the same additive scoring as detectDomain over the
// action table. A zero score means no keyword matched; the caller then falls
// back to the (category, domain) default table.
func detectAction(lower string) (schemas.Action, float64) {
	var best schemas.Action
	bestScore := 0.0
	for _, entry := range actionTable {
		score := 0.0
		for keyword, weight := range entry.keywords {
			if strings.Contains(lower, keyword) {
				score += weight
			}
		}
		if score > bestScore {
			bestScore = score
			best = entry.action
		}
	}
	if bestScore == 0 {
		return "", 0
	}
	return best, min(bestScore, 1.0)
}

func defaultAction(category schemas.Category, domain schemas.Domain) (schemas.Action, float64) {
	if action, ok := defaultActions[[2]string{string(category), string(domain)}]; ok {
		return action, defaultActionScore
	}
	return schemas.ActionCompute, defaultActionScore
}
