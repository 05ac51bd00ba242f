package cash

import (
	"bytes"

	"github.com/iov-one/lockpay/errors"
	"github.com/iov-one/lockpay/orm"
	xdr3 "github.com/stellar/go-xdr/xdr3"
)

// BucketName is where we store the balances
const BucketName = "cash"

// Wallet is the state of a single account.
type Wallet struct {
	Balance uint64
}

var _ orm.Model = (*Wallet)(nil)

// Validate rejects empty wallets. Those are never stored.
func (w *Wallet) Validate() error {
	if w.Balance == 0 {
		return errors.Wrap(errors.ErrEmpty, "balance")
	}
	return nil
}

// Marshal encodes the wallet using XDR.
func (w *Wallet) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	e := xdr3.NewEncoder(&buf)
	if _, err := e.EncodeUhyper(w.Balance); err != nil {
		return nil, errors.Wrap(errors.ErrModel, err.Error())
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes an XDR encoded wallet.
func (w *Wallet) Unmarshal(raw []byte) error {
	d := xdr3.NewDecoder(bytes.NewReader(raw))
	balance, _, err := d.DecodeUhyper()
	if err != nil {
		return errors.Wrap(errors.ErrModel, err.Error())
	}
	w.Balance = balance
	return nil
}

// NewBucket returns a bucket storing wallets by their address.
func NewBucket() orm.ModelBucket {
	return orm.NewModelBucket(BucketName, &Wallet{})
}
