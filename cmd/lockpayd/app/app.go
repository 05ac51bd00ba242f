/*
Package app links together all the various components
to construct the lockpayd application.
*/
package app

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/iov-one/lockpay"
	"github.com/iov-one/lockpay/app"
	"github.com/iov-one/lockpay/store/bolt"
	"github.com/iov-one/lockpay/store/iavl"
	"github.com/iov-one/lockpay/x"
	"github.com/iov-one/lockpay/x/cash"
	"github.com/iov-one/lockpay/x/escrow"
	"github.com/iov-one/lockpay/x/utils"
	"github.com/tendermint/tendermint/libs/log"
)

// Authenticator returns the authentication used by all handlers. Signers
// are provided by the executor.
func Authenticator() x.Authenticator {
	return x.ContextAuth{}
}

// Bank returns the controller of the native token balances.
func Bank() cash.Controller {
	return cash.NewController(cash.NewBucket())
}

// Chain returns a chain of decorators, to handle logging and recovery
func Chain() app.Decorators {
	return app.ChainDecorators(
		utils.NewLogging(),
		utils.NewRecovery(),
		// bad transactions never affect state
		utils.NewSavepoint().OnCheck().OnDeliver(),
	)
}

// Router returns a router dispatching to the escrow handlers.
func Router(authFn x.Authenticator, bank cash.Controller) *app.Router {
	r := app.NewRouter()
	escrow.RegisterRoutes(r, authFn, bank)
	return r
}

// Stack wires up a standard router with a standard decorator
// chain. This can be passed into the Executor.
func Stack() lockpay.Handler {
	return Chain().WithHandler(Router(Authenticator(), Bank()))
}

// Codec returns a codec aware of all messages accepted by the application.
func Codec() *app.Codec {
	return app.NewCodec(
		&escrow.InitializeMsg{},
		&escrow.ClaimMsg{},
		&escrow.CancelMsg{},
	)
}

// Initializers returns all extensions loading state from the genesis.
func Initializers() lockpay.Initializer {
	return app.ChainInitializers(
		cash.Initializer{},
		escrow.Initializer{},
	)
}

// NewExecutor returns an executor running the standard stack on top of
// given store.
func NewExecutor(store lockpay.CommitKVStore, logger log.Logger) (*app.Executor, error) {
	return app.NewExecutor(store, Stack(), Codec().Decode, logger)
}

// Supported storage engines.
const (
	StoreBolt = "bolt"
	StoreIAVL = "iavl"
	StoreMem  = "mem"
)

// CommitKVStore returns an initialized store that persists the data in
// given directory using the requested engine.
func CommitKVStore(engine, dir string) (lockpay.CommitKVStore, error) {
	if engine == StoreMem {
		return iavl.NewMemCommitStore(), nil
	}

	// Expand the path fully
	path, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid database directory: %s", dir)
	}

	switch strings.ToLower(engine) {
	case StoreBolt:
		return bolt.NewCommitStore(filepath.Join(path, "state.db"))
	case StoreIAVL:
		return iavl.NewCommitStore(path, "state")
	default:
		return nil, fmt.Errorf("unknown store engine %q", engine)
	}
}
