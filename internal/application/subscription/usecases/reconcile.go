package usecases

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/subeth/subeth/internal/application/subscription/dto"
	"github.com/subeth/subeth/internal/domain/subscription"
	"github.com/subeth/subeth/internal/shared/errors"
	"github.com/subeth/subeth/internal/shared/logger"
)

const (
	DefaultMaxScan     = 256
	reconcileReadLimit = 8
)

type ReconcileCommand struct {
	Account common.Address
	ChainID int64
	// Repair replays journaled notifications and fixes backend records.
	// Without it the use case only reports.
	Repair bool
	// MaxScan caps how many of the newest on-chain ids are read. Ids referenced
	// by backend records are always read.
	MaxScan int
}

// ReconcileAccountUseCase compares an account's backend records with the
// delegate's storage and, when asked, moves the backend towards the chain.
// The chain is never modified.
type ReconcileAccountUseCase struct {
	backend subscription.BackendGateway
	catalog subscription.PlanCatalog
	journal subscription.NotificationJournal
	reader  ChainReader
	logger  logger.Interface
}

func NewReconcileAccountUseCase(
	backend subscription.BackendGateway,
	catalog subscription.PlanCatalog,
	journal subscription.NotificationJournal,
	reader ChainReader,
	logger logger.Interface,
) *ReconcileAccountUseCase {
	return &ReconcileAccountUseCase{
		backend: backend,
		catalog: catalog,
		journal: journal,
		reader:  reader,
		logger:  logger,
	}
}

// Execute returns drift as observed before any repair ran.
func (uc *ReconcileAccountUseCase) Execute(ctx context.Context, cmd ReconcileCommand) (*dto.ReconcileReport, error) {
	if cmd.Account == (common.Address{}) {
		return nil, errors.NewValidationError(msgWalletNotConnected)
	}
	if err := checkChain(cmd.ChainID); err != nil {
		return nil, err
	}
	if cmd.MaxScan <= 0 {
		cmd.MaxScan = DefaultMaxScan
	}

	log := uc.logger.With("account", cmd.Account.Hex(), "chain_id", cmd.ChainID, "repair", cmd.Repair)
	report := &dto.ReconcileReport{Account: cmd.Account.Hex(), ChainID: cmd.ChainID}

	journaled, err := uc.replayJournal(ctx, log, cmd, report)
	if err != nil {
		return nil, err
	}

	records, err := uc.backend.ListUserSubscriptions(ctx, cmd.Account.Hex())
	if err != nil {
		log.Errorw("failed to list backend records", "error", err)
		return nil, err
	}
	records = onChain(records, cmd.ChainID)

	count, err := uc.reader.GetSubscriptionCount(ctx, cmd.Account, cmd.ChainID, nil)
	if err != nil {
		log.Errorw("failed to read subscription count", "error", err)
		return nil, err
	}
	report.OnChainCount = count

	ids := scanIDs(count, cmd.MaxScan, records)
	report.Scanned = len(ids)
	chainState := uc.readAll(ctx, cmd.Account, cmd.ChainID, ids)

	report.Drift = subscription.DetectDrift(records, chainState)
	if cmd.Repair {
		report.Repairs = uc.repair(ctx, log, cmd, report.Drift, journaled)
	}

	log.Infow("account reconciled",
		"on_chain_count", count.String(),
		"scanned", report.Scanned,
		"drift", len(report.Drift),
		"pending_journal", report.PendingJournal,
		"replayed", report.Replayed,
		"in_sync", report.InSync(),
	)
	return report, nil
}

// replayJournal returns the on-chain ids whose journaled create is still
// pending after the replay.
func (uc *ReconcileAccountUseCase) replayJournal(ctx context.Context, log logger.Interface, cmd ReconcileCommand, report *dto.ReconcileReport) (map[string]bool, error) {
	if uc.journal == nil {
		return nil, nil
	}
	pending, err := uc.journal.ListPending(ctx, cmd.ChainID, cmd.Account.Hex())
	if err != nil {
		log.Errorw("failed to list pending notifications", "error", err)
		return nil, err
	}
	report.PendingJournal = len(pending)
	if !cmd.Repair {
		return nil, nil
	}

	journaled := make(map[string]bool)

	for _, n := range pending {
		var err error
		switch n.Kind {
		case subscription.NotificationCreate:
			_, err = uc.backend.CreateSubscription(ctx, n.CreateRequest())
		case subscription.NotificationCancel:
			err = uc.backend.CancelSubscription(ctx, n.BackendSubID)
		default:
			err = fmt.Errorf("unknown notification kind %q", n.Kind)
		}

		if err != nil {
			report.ReplayFailed++
			log.Warnw("notification replay failed", "journal_id", n.ID, "kind", n.Kind, "error", err)
			if markErr := uc.journal.MarkFailed(ctx, n.ID, errors.Message(err)); markErr != nil {
				log.Errorw("failed to mark notification failed", "journal_id", n.ID, "error", markErr)
			}
			if n.Kind == subscription.NotificationCreate && n.OnChainSubID != nil {
				journaled[n.OnChainSubID.String()] = true
			}
			continue
		}
		report.Replayed++
		if markErr := uc.journal.MarkDone(ctx, n.ID); markErr != nil {
			log.Errorw("failed to mark notification done", "journal_id", n.ID, "error", markErr)
		}
	}
	return journaled, nil
}

// onChain drops records bound to a plan on another chain.
func onChain(records []*subscription.Subscription, chainID int64) []*subscription.Subscription {
	kept := make([]*subscription.Subscription, 0, len(records))
	for _, r := range records {
		if r == nil {
			continue
		}
		if r.Plan != nil && r.Plan.ChainID != nil && *r.Plan.ChainID != chainID {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

// scanIDs returns the newest maxScan ids up to count plus every id a record
// references, without duplicates.
func scanIDs(count *big.Int, maxScan int, records []*subscription.Subscription) []*big.Int {
	seen := make(map[string]bool)
	var ids []*big.Int
	add := func(id *big.Int) {
		key := id.String()
		if !seen[key] {
			seen[key] = true
			ids = append(ids, id)
		}
	}

	if count != nil && count.Sign() > 0 {
		first := new(big.Int).Sub(count, big.NewInt(int64(maxScan-1)))
		if first.Sign() < 1 {
			first = big.NewInt(1)
		}
		for id := first; id.Cmp(count) <= 0; id = new(big.Int).Add(id, big.NewInt(1)) {
			add(id)
		}
	}
	for _, r := range records {
		if r.HasOnChainID() && r.OnChainSubscriptionID.Sign() > 0 {
			add(r.OnChainSubscriptionID)
		}
	}
	return ids
}

// readAll reads ids concurrently. Failed reads are stored as nil.
func (uc *ReconcileAccountUseCase) readAll(ctx context.Context, account common.Address, chainID int64, ids []*big.Int) map[string]*subscription.OnChainSubscription {
	var mu sync.Mutex
	state := make(map[string]*subscription.OnChainSubscription, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reconcileReadLimit)
	for _, id := range ids {
		g.Go(func() error {
			s := uc.reader.GetSubscription(gctx, account, chainID, id)
			mu.Lock()
			state[id.String()] = s
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return state
}

// repair leaves unrecorded ids with a pending journaled create to the journal,
// so a later replay cannot record them twice.
func (uc *ReconcileAccountUseCase) repair(ctx context.Context, log logger.Interface, cmd ReconcileCommand, drift []subscription.DriftEntry, journaled map[string]bool) []dto.RepairAction {
	var (
		actions []dto.RepairAction
		plans   []*subscription.Plan
		loaded  bool
	)

	for _, entry := range drift {
		action := dto.RepairAction{Kind: entry.Kind, OnChainID: entry.OnChainID, Outcome: dto.RepairSkipped}
		if entry.Record != nil {
			action.BackendID = entry.Record.ID
			action.PlanID = entry.Record.PlanID
		}

		switch entry.Kind {
		case subscription.DriftInSync:
			continue
		case subscription.DriftStale:
			if err := uc.backend.CancelSubscription(ctx, entry.Record.ID); err != nil {
				action.Outcome, action.Detail = dto.RepairFailed, errors.Message(err)
			} else {
				action.Outcome = dto.RepairApplied
				action.Detail = "backend record cancelled"
			}
		case subscription.DriftUnrecorded:
			if entry.OnChainID != nil && journaled[entry.OnChainID.String()] {
				action.Detail = "journaled create pending replay"
				break
			}
			if !loaded {
				var err error
				if plans, err = uc.catalog.ListPlans(ctx); err != nil {
					log.Warnw("failed to load plans for repair", "error", err)
				}
				loaded = true
			}
			uc.recordUnrecorded(ctx, cmd, entry, plans, &action)
		case subscription.DriftDiverged:
			action.Detail = "chain subscription still active; cancel it on chain to converge"
		case subscription.DriftUnknown:
			action.Detail = "on-chain state could not be read"
		}

		log.Infow("drift repair",
			"kind", action.Kind,
			"on_chain_id", action.OnChainID.String(),
			"backend_id", action.BackendID,
			"outcome", action.Outcome,
			"detail", action.Detail,
		)
		actions = append(actions, action)
	}
	return actions
}

func (uc *ReconcileAccountUseCase) recordUnrecorded(ctx context.Context, cmd ReconcileCommand, entry subscription.DriftEntry, plans []*subscription.Plan, action *dto.RepairAction) {
	var matched []*subscription.Plan
	for _, p := range plans {
		if p == nil || (p.ChainID != nil && *p.ChainID != cmd.ChainID) {
			continue
		}
		terms, err := p.Terms()
		if err != nil {
			continue
		}
		if entry.OnChain.Matches(terms) {
			matched = append(matched, p)
		}
	}

	switch len(matched) {
	case 0:
		action.Detail = "no plan matches the on-chain terms"
		return
	case 1:
	default:
		action.Detail = fmt.Sprintf("%d plans match the on-chain terms", len(matched))
		return
	}

	action.PlanID = matched[0].ID
	created, err := uc.backend.CreateSubscription(ctx, subscription.CreateRecordRequest{
		UserID:                cmd.Account.Hex(),
		PlanID:                matched[0].ID,
		OnChainSubscriptionID: entry.OnChainID,
		ChainID:               cmd.ChainID,
	})
	if err != nil {
		action.Outcome, action.Detail = dto.RepairFailed, errors.Message(err)
		return
	}
	action.Outcome = dto.RepairApplied
	action.Detail = "backend record created"
	if created != nil {
		action.BackendID = created.ID
	}
}
