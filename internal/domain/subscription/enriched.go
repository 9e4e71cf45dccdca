package subscription

import (
	"math"
	"time"
)

// EnrichedSubscription is a backend record merged with live chain state.
// It is derived per read and never persisted.
type EnrichedSubscription struct {
	Subscription
	OnChainActive     bool   `json:"onChainActive"`
	NextExecutionTime *int64 `json:"nextExecutionTime"`
	ExecutionCount    *int64 `json:"executionCount"`
	IsOverdue         bool   `json:"isOverdue"`
}

// Enrich merges record with onChain. A nil onChain (no id, unknown chain or
// failed read) keeps the backend-derived defaults. The result depends only on
// its arguments.
func Enrich(record Subscription, onChain *OnChainSubscription, now time.Time) EnrichedSubscription {
	enriched := EnrichedSubscription{
		Subscription:  record,
		OnChainActive: record.BackendActive(),
	}

	if onChain != nil {
		next := clampInt64(onChain.NextExecutionTime)
		count := int64(onChain.ExecutionCount)
		enriched.OnChainActive = onChain.Active
		enriched.NextExecutionTime = &next
		enriched.ExecutionCount = &count
	}

	enriched.IsOverdue = enriched.OnChainActive &&
		enriched.NextExecutionTime != nil &&
		*enriched.NextExecutionTime <= now.Unix()

	return enriched
}

func clampInt64(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}
