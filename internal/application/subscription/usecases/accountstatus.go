package usecases

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/subeth/subeth/internal/application/subscription/dto"
	"github.com/subeth/subeth/internal/shared/errors"
	"github.com/subeth/subeth/internal/shared/logger"
)

// AccountStatusUseCase reports delegation on each configured chain and
// whether the backend treats the account as an admin.
type AccountStatusUseCase struct {
	delegation DelegationChecker
	admins     AdminChecker
	chainIDs   []int64
	logger     logger.Interface
}

func NewAccountStatusUseCase(
	delegation DelegationChecker,
	admins AdminChecker,
	chainIDs []int64,
	logger logger.Interface,
) *AccountStatusUseCase {
	return &AccountStatusUseCase{
		delegation: delegation,
		admins:     admins,
		chainIDs:   chainIDs,
		logger:     logger,
	}
}

// Execute checks the given chain, or every configured chain when chainID is 0.
func (uc *AccountStatusUseCase) Execute(ctx context.Context, account common.Address, chainID int64) (*dto.AccountStatusDTO, error) {
	if account == (common.Address{}) {
		return nil, errors.NewValidationError(msgWalletNotConnected)
	}

	chains := uc.chainIDs
	if chainID > 0 {
		chains = []int64{chainID}
	}

	status := &dto.AccountStatusDTO{
		Account:     account.Hex(),
		Delegations: make([]*dto.DelegationStatusDTO, len(chains)),
	}
	impl := uc.delegation.Implementation().Hex()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if uc.admins != nil {
			status.IsAdmin = uc.admins.CheckAdmin(gctx, account.Hex())
		}
		return nil
	})
	for i, cid := range chains {
		g.Go(func() error {
			d := &dto.DelegationStatusDTO{ChainID: cid, Implementation: impl}
			if target, ok := uc.delegation.ImplementationOf(gctx, account, cid); ok {
				d.Target = target.Hex()
				d.Delegated = target == uc.delegation.Implementation()
			}
			status.Delegations[i] = d
			return nil
		})
	}
	_ = g.Wait()

	uc.logger.Debugw("account status checked",
		"account", account.Hex(),
		"chains", len(chains),
		"is_admin", status.IsAdmin,
	)
	return status, nil
}
