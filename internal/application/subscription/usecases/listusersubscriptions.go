package usecases

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/subeth/subeth/internal/domain/subscription"
	"github.com/subeth/subeth/internal/shared/logger"
)

const defaultEnrichConcurrency = 8

type ListUserSubscriptionsQuery struct {
	Account common.Address
	// ChainID may be zero when the wallet has no chain; records are then
	// returned with backend-derived state only.
	ChainID int64
}

type ListUserSubscriptionsUseCase struct {
	backend     subscription.BackendGateway
	enrich      *EnrichSubscriptionUseCase
	concurrency int
	logger      logger.Interface
}

func NewListUserSubscriptionsUseCase(
	backend subscription.BackendGateway,
	enrich *EnrichSubscriptionUseCase,
	concurrency int,
	logger logger.Interface,
) *ListUserSubscriptionsUseCase {
	if concurrency <= 0 {
		concurrency = defaultEnrichConcurrency
	}
	return &ListUserSubscriptionsUseCase{
		backend:     backend,
		enrich:      enrich,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Execute lists the account's records and enriches them in parallel, keeping
// the backend's order.
func (uc *ListUserSubscriptionsUseCase) Execute(ctx context.Context, query ListUserSubscriptionsQuery) ([]subscription.EnrichedSubscription, error) {
	if query.Account == (common.Address{}) {
		return []subscription.EnrichedSubscription{}, nil
	}

	records, err := uc.backend.ListUserSubscriptions(ctx, query.Account.Hex())
	if err != nil {
		uc.logger.Errorw("failed to list user subscriptions",
			"account", query.Account.Hex(),
			"error", err,
		)
		return nil, err
	}

	result := make([]subscription.EnrichedSubscription, len(records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.concurrency)
	for i, record := range records {
		if record == nil {
			continue
		}
		g.Go(func() error {
			result[i] = uc.enrich.Execute(gctx, query.Account, query.ChainID, *record)
			return nil
		})
	}
	_ = g.Wait()

	out := result[:0]
	for i, record := range records {
		if record != nil {
			out = append(out, result[i])
		}
	}

	uc.logger.Debugw("user subscriptions listed",
		"account", query.Account.Hex(),
		"chain_id", query.ChainID,
		"count", len(out),
	)
	return out, nil
}
