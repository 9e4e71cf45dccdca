package usecases

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/subeth/subeth/internal/domain/subscription"
)

// EnrichSubscriptionUseCase merges a backend record with its on-chain state.
type EnrichSubscriptionUseCase struct {
	reader ChainReader
	now    func() time.Time
}

func NewEnrichSubscriptionUseCase(reader ChainReader) *EnrichSubscriptionUseCase {
	return &EnrichSubscriptionUseCase{reader: reader, now: time.Now}
}

// Execute reads the chain only when the record has an on-chain id and a chain
// is known. Read failures fall back to backend-derived values.
func (uc *EnrichSubscriptionUseCase) Execute(ctx context.Context, account common.Address, chainID int64, record subscription.Subscription) subscription.EnrichedSubscription {
	var onChain *subscription.OnChainSubscription
	if record.HasOnChainID() && chainID > 0 && account != (common.Address{}) {
		onChain = uc.reader.GetSubscription(ctx, account, chainID, record.OnChainSubscriptionID)
	}
	return subscription.Enrich(record, onChain, uc.now())
}
