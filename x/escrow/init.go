package escrow

import (
	"github.com/iov-one/lockpay"
	"github.com/iov-one/lockpay/errors"
	"github.com/iov-one/lockpay/gconf"
)

// Initializer fulfils the Initializer interface to load the escrow
// configuration from the genesis file.
type Initializer struct{}

var _ lockpay.Initializer = Initializer{}

// FromGenesis stores the escrow configuration if the genesis provides
// one. Values missing from the genesis keep their defaults. Without any
// configuration the default one applies.
func (Initializer) FromGenesis(opts lockpay.Options, db lockpay.KVStore) error {
	conf := DefaultConfiguration()
	err := gconf.InitConfig(db, opts, confPkg, &conf)
	if errors.ErrNotFound.Is(err) {
		return nil
	}
	return err
}
