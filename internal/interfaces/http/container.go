package http

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/subeth/subeth/internal/application/subscription/dto"
	"github.com/subeth/subeth/internal/application/subscription/usecases"
	"github.com/subeth/subeth/internal/domain/subscription"
	vo "github.com/subeth/subeth/internal/domain/subscription/valueobjects"
	"github.com/subeth/subeth/internal/infrastructure/backend"
	"github.com/subeth/subeth/internal/infrastructure/blockchain"
	"github.com/subeth/subeth/internal/infrastructure/config"
	"github.com/subeth/subeth/internal/infrastructure/lock"
	"github.com/subeth/subeth/internal/infrastructure/repository"
	"github.com/subeth/subeth/internal/infrastructure/scheduler"
	"github.com/subeth/subeth/internal/infrastructure/wallet"
	"github.com/subeth/subeth/internal/interfaces/http/handlers"
	"github.com/subeth/subeth/internal/shared/logger"
)

// Options carries the optional collaborators a Container can run without.
type Options struct {
	// Wallet signs for the gateway's own account. Nil leaves write
	// operations failing with "Wallet not connected".
	Wallet *wallet.KeyWallet
	// DB backs the notification journal. Nil disables journaling.
	DB *gorm.DB
}

// Container wires configuration into chain clients, the backend client and
// the subscription use cases. The CLI and the HTTP gateway share it.
type Container struct {
	cfg    *config.Config
	log    logger.Interface
	wallet *wallet.KeyWallet

	registry *blockchain.Registry
	redis    *redis.Client

	Backend    *backend.Client
	Delegation *blockchain.DelegationChecker
	Reader     *blockchain.ChainReader
	Journal    subscription.NotificationJournal

	ListSubscriptions *usecases.ListUserSubscriptionsUseCase
	Subscribe         *usecases.SubscribeUseCase
	Unsubscribe       *usecases.UnsubscribeUseCase
	ListPlans         *usecases.ListPlansUseCase
	GetPlan           *usecases.GetPlanUseCase
	ManagePlan        *usecases.ManagePlanUseCase
	AccountStatus     *usecases.AccountStatusUseCase
	Reconcile         *usecases.ReconcileAccountUseCase
}

// NewContainer builds every component. Redis is used for locking and rate
// limiting when configured; otherwise locks are process-local.
func NewContainer(cfg *config.Config, opts Options, log logger.Interface) (*Container, error) {
	c := &Container{
		cfg:    cfg,
		log:    log,
		wallet: opts.Wallet,
	}

	c.registry = blockchain.NewRegistry(cfg.RPCURLs(), log.With("component", "blockchain.registry"))
	c.Delegation = blockchain.NewDelegationChecker(c.registry, cfg.Delegation.ImplementationAddress, log.With("component", "blockchain.delegation"))
	c.Reader = blockchain.NewChainReader(c.registry, log.With("component", "blockchain.reader"))
	typedData := blockchain.NewTypedDataSigner(log.With("component", "blockchain.typeddata"))
	transactor := blockchain.NewTransactor(c.registry, cfg.Executor.ConfirmTimeout, cfg.Executor.ReceiptPoll, log.With("component", "blockchain.transactor"))

	c.Backend = backend.NewClient(cfg.API.BaseURL, cfg.API.Timeout, log.With("component", "backend"))

	var locker lock.Locker = lock.NewMemoryLocker()
	if cfg.Redis.IsConfigured() {
		c.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.GetAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := c.redis.Ping(context.Background()).Err(); err != nil {
			_ = c.redis.Close()
			c.registry.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		locker = lock.NewRedisLocker(c.redis, cfg.Executor.LockTTL, cfg.Executor.LockWait, log.With("component", "lock.redis"))
		log.Infow("using redis account locks", "addr", cfg.Redis.GetAddr())
	}

	if opts.DB != nil {
		c.Journal = repository.NewNotificationJournalRepository(opts.DB)
	}

	deps := usecases.ExecutorDeps{
		Delegation: c.Delegation,
		Reader:     c.Reader,
		TypedData:  typedData,
		Transactor: transactor,
		Backend:    c.Backend,
		Journal:    c.Journal,
		Locker:     locker,
		Logger:     log.With("component", "executor"),
	}

	enrich := usecases.NewEnrichSubscriptionUseCase(c.Reader)
	c.ListSubscriptions = usecases.NewListUserSubscriptionsUseCase(c.Backend, enrich, cfg.Executor.EnrichConcurrency, log)
	c.Subscribe = usecases.NewSubscribeUseCase(deps)
	c.Unsubscribe = usecases.NewUnsubscribeUseCase(deps)
	c.ListPlans = usecases.NewListPlansUseCase(c.Backend, log)
	c.GetPlan = usecases.NewGetPlanUseCase(c.Backend, log)
	c.ManagePlan = usecases.NewManagePlanUseCase(c.Backend, c.Backend, log)
	c.AccountStatus = usecases.NewAccountStatusUseCase(c.Delegation, c.Backend, cfg.ChainIDs(), log)
	c.Reconcile = usecases.NewReconcileAccountUseCase(c.Backend, c.Backend, c.Journal, c.Reader, log)

	return c, nil
}

// Config returns the configuration the container was built from.
func (c *Container) Config() *config.Config {
	return c.cfg
}

// Wallet returns the gateway wallet, or nil.
func (c *Container) Wallet() *wallet.KeyWallet {
	return c.wallet
}

// Signer returns the wallet as a subscription.Signer, nil when unset.
func (c *Container) Signer() subscription.Signer {
	if c.wallet == nil {
		return nil
	}
	return c.wallet
}

// MessageSigner returns the wallet for admin plan mutations, nil when unset.
func (c *Container) MessageSigner() usecases.MessageSigner {
	if c.wallet == nil {
		return nil
	}
	return c.wallet
}

// DefaultPath is the configured execution path.
func (c *Container) DefaultPath() vo.ExecutionPath {
	return vo.ExecutionPath(c.cfg.Executor.Path)
}

// Redis returns the shared client, or nil when Redis is not configured.
func (c *Container) Redis() *redis.Client {
	return c.redis
}

// ReconcileJob reconciles the wallet's account on every configured chain.
// The count it reports is the number of repairs applied.
func (c *Container) ReconcileJob() scheduler.BatchJob {
	return scheduler.BatchJobFunc(func(ctx context.Context) (int, error) {
		if c.wallet == nil {
			return 0, fmt.Errorf("wallet not configured")
		}

		repaired := 0
		var firstErr error
		for _, chainID := range c.cfg.ChainIDs() {
			report, err := c.Reconcile.Execute(ctx, usecases.ReconcileCommand{
				Account: c.wallet.Address(),
				ChainID: chainID,
				Repair:  c.cfg.Reconcile.Repair,
				MaxScan: c.cfg.Reconcile.MaxScan,
			})
			if err != nil {
				c.log.Warnw("scheduled reconcile failed", "chain_id", chainID, "error", err)
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			for _, r := range report.Repairs {
				if r.Outcome == dto.RepairApplied {
					repaired++
				}
			}
		}
		return repaired, firstErr
	})
}

func (c *Container) newHandlers() (*handlers.SubscriptionHandler, *handlers.PlanHandler, *handlers.AccountHandler, *handlers.HealthHandler) {
	var w handlers.Wallet
	if c.wallet != nil {
		w = c.wallet
	}

	subs := handlers.NewSubscriptionHandler(
		c.ListSubscriptions, c.Subscribe, c.Unsubscribe, c.GetPlan, c.Reconcile,
		w, c.DefaultPath(), c.log.With("component", "handler.subscription"),
	)
	plans := handlers.NewPlanHandler(c.ListPlans, c.GetPlan, c.ManagePlan, w, c.log.With("component", "handler.plan"))
	accounts := handlers.NewAccountHandler(c.AccountStatus, c.log.With("component", "handler.account"))
	health := handlers.NewHealthHandler(c.cfg.ChainIDs(), w)
	return subs, plans, accounts, health
}

// Shutdown releases chain clients and Redis.
func (c *Container) Shutdown() {
	c.registry.Close()
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			c.log.Warnw("failed to close redis", "error", err)
		}
	}
}
