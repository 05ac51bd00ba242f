package app

import (
	"context"
	"sync"

	"github.com/iov-one/lockpay"
	"github.com/iov-one/lockpay/errors"
	"github.com/iov-one/lockpay/x"
	"github.com/tendermint/tendermint/libs/log"
)

// Executor runs transactions against a committing store. Each delivered
// transaction is atomic: it is either fully committed or leaves no trace.
// Transactions are executed one at a time.
//
// The executor is the host of the application. It decides who signed a
// transaction and passes the signers along with it.
type Executor struct {
	mu      sync.Mutex
	store   lockpay.CommitKVStore
	handler lockpay.Handler
	decoder lockpay.TxDecoder
	logger  log.Logger
	chainID string
}

// NewExecutor loads the latest version of the store and returns an
// executor on top of it.
func NewExecutor(store lockpay.CommitKVStore, handler lockpay.Handler, decoder lockpay.TxDecoder, logger log.Logger) (*Executor, error) {
	if err := store.LoadLatestVersion(); err != nil {
		return nil, errors.Wrap(err, "load store")
	}
	view := store.CacheWrap()
	chainID, err := loadChainID(view)
	view.Discard()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Executor{
		store:   store,
		handler: handler,
		decoder: decoder,
		logger:  logger,
		chainID: chainID,
	}, nil
}

// ChainID returns the chain id set by the genesis, or an empty string if
// the genesis was not loaded yet.
func (e *Executor) ChainID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.chainID
}

// InitGenesis stores the chain id and runs the initializer against the
// application state of the genesis. It can be called only once.
func (e *Executor) InitGenesis(gen Genesis, init lockpay.Initializer) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.chainID != "" {
		return errors.Wrapf(errors.ErrDuplicate, "genesis already loaded for %q", e.chainID)
	}
	cache := e.store.CacheWrap()
	if err := saveChainID(cache, gen.ChainID); err != nil {
		cache.Discard()
		return err
	}
	if err := init.FromGenesis(gen.AppState, cache); err != nil {
		cache.Discard()
		return errors.Wrap(err, "genesis")
	}
	if err := e.commit(cache); err != nil {
		return err
	}
	e.chainID = gen.ChainID
	e.logger.Info("genesis loaded", "chainID", gen.ChainID)
	return nil
}

// Check runs the transaction without persisting any change.
func (e *Executor) Check(raw []byte, signers ...lockpay.Condition) (*lockpay.CheckResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	tx, err := e.decoder(raw)
	if err != nil {
		return nil, err
	}
	ctx, err := e.context(signers)
	if err != nil {
		return nil, err
	}
	cache := e.store.CacheWrap()
	defer cache.Discard()
	return e.handler.Check(ctx, cache, tx)
}

// Deliver runs the transaction and commits its changes. On failure the
// state is left untouched.
func (e *Executor) Deliver(raw []byte, signers ...lockpay.Condition) (*lockpay.DeliverResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	tx, err := e.decoder(raw)
	if err != nil {
		return nil, err
	}
	ctx, err := e.context(signers)
	if err != nil {
		return nil, err
	}

	// Check must pass before any state is modified.
	check := e.store.CacheWrap()
	_, err = e.handler.Check(ctx, check, tx)
	check.Discard()
	if err != nil {
		return nil, err
	}

	cache := e.store.CacheWrap()
	res, err := e.handler.Deliver(ctx, cache, tx)
	if err != nil {
		cache.Discard()
		return nil, err
	}
	if err := e.commit(cache); err != nil {
		return nil, err
	}
	return res, nil
}

// Query calls fn with a read only view of the latest committed state.
func (e *Executor) Query(fn func(db lockpay.ReadOnlyKVStore) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	cache := e.store.CacheWrap()
	defer cache.Discard()
	return fn(cache)
}

// LatestVersion returns information about the last commit.
func (e *Executor) LatestVersion() (lockpay.CommitID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.LatestVersion()
}

func (e *Executor) context(signers []lockpay.Condition) (lockpay.Context, error) {
	if e.chainID == "" {
		return nil, errors.Wrap(errors.ErrInvalidState, "genesis not loaded")
	}
	version, err := e.store.LatestVersion()
	if err != nil {
		return nil, errors.Wrap(err, "latest version")
	}
	ctx := lockpay.WithLogger(context.Background(), e.logger)
	ctx = lockpay.WithChainID(ctx, e.chainID)
	ctx = lockpay.WithHeight(ctx, version.Version+1)
	return x.WithSigners(ctx, signers...), nil
}

// commit persists the cache. If that fails, all changes made since the
// last commit are dropped so that they never become visible.
func (e *Executor) commit(cache lockpay.KVCacheWrap) error {
	if err := cache.Write(); err != nil {
		return e.rollback(errors.Wrap(err, "write cache"))
	}
	id, err := e.store.Commit()
	if err != nil {
		return e.rollback(errors.Wrap(err, "commit"))
	}
	e.logger.Debug("commit", "version", id.Version, "hash", id.Hash)
	return nil
}

func (e *Executor) rollback(cause error) error {
	if err := e.store.LoadLatestVersion(); err != nil {
		e.logger.Error("rollback failed", "err", err)
		return errors.Wrapf(cause, "rollback: %s", err)
	}
	return cause
}

// Close releases the underlying store.
func (e *Executor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Close()
}
