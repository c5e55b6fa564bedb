// Package engine contains the categorization orchestrator: the single
// decision point that ties together cache, AI classifier, and rule-based
// fallback. Keeping the fallback policy here, out of the AI adapter and any
// outer transport, makes it testable in isolation.
package engine

import (
	"context"

	"github.com/RafiulM/business-finance-tracker-ai-sub001/internal/aiclient"
	"github.com/RafiulM/business-finance-tracker-ai-sub001/internal/cache"
	"github.com/RafiulM/business-finance-tracker-ai-sub001/internal/models"
	"github.com/RafiulM/business-finance-tracker-ai-sub001/internal/rules"
	"github.com/RafiulM/business-finance-tracker-ai-sub001/pkg/errors"
	"github.com/RafiulM/business-finance-tracker-ai-sub001/pkg/logger"
)

// FallbackWarning is attached to results produced by the rule fallback
// after an AI failure. Callers match on this exact string.
const FallbackWarning = "AI service unavailable - using fallback categorization"

// CategorizationContext carries the per-caller inputs for a categorization:
// an opaque cache scope (session or user), the available categories, and a
// bounded window of recent transactions for the AI prompt.
type CategorizationContext struct {
	Scope  string
	Signal models.CategorySignal
	Recent []models.Transaction
}

// Engine orchestrates transaction categorization.
type Engine struct {
	classifier aiclient.Classifier
	fallback   *rules.Categorizer
	cache      *cache.ResultCache
	config     *Config
	logger     logger.Logger
}

// New creates a categorization engine. A nil config uses defaults; the
// cache is owned by the caller and must outlive the engine.
func New(classifier aiclient.Classifier, fallback *rules.Categorizer, resultCache *cache.ResultCache, config *Config, log logger.Logger) (*Engine, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	return &Engine{
		classifier: classifier,
		fallback:   fallback,
		cache:      resultCache,
		config:     config.Clone(),
		logger:     log.WithComponent("engine"),
	}, nil
}

// CategorizeTransaction produces a categorization for tx, degrading
// gracefully: validation failures are the only errors that propagate. AI
// failures fall back to the rule categorizer with a warning attached, and
// the result, whether AI or fallback, is cached so a failing provider is not
// re-hit for the same input within the TTL.
func (e *Engine) CategorizeTransaction(ctx context.Context, tx models.Transaction, catCtx CategorizationContext) (*models.CategorizationResult, error) {
	if err := tx.Validate(); err != nil {
		return nil, err
	}

	key := cache.Key(catCtx.Scope, tx.Description, tx.Amount, tx.CurrencyCode)
	if cached, ok := e.cache.Get(key); ok {
		e.logger.WithField("key", key).Debug("cache hit")
		return cached, nil
	}

	aiCtx, cancel := context.WithTimeout(ctx, e.config.AITimeout)
	defer cancel()

	result, err := e.classifier.Categorize(aiCtx, tx, catCtx.Signal, catCtx.Recent)
	if err == nil {
		if verr := result.Validate(); verr != nil {
			err = errors.MalformedResponseError("classifier returned an invalid result", verr)
		}
	}

	if err != nil {
		// Classifier errors outside the service taxonomy are normalized
		// before the recovery decision so a result is still produced.
		if !errors.IsRecoverable(err) {
			err = errors.ServiceUnavailableError("ai categorization", err)
		}
		e.logger.WithError(err).Warn("ai categorization failed, using rule fallback")
		result = e.fallback.Categorize(tx, catCtx.Signal)
		result.Warnings = []string{FallbackWarning}
	}

	e.cache.Put(key, result)
	return result, nil
}
