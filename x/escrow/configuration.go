package escrow

import (
	"bytes"

	"github.com/iov-one/lockpay"
	"github.com/iov-one/lockpay/errors"
	"github.com/iov-one/lockpay/gconf"
	xdr3 "github.com/stellar/go-xdr/xdr3"
)

const confPkg = "escrow"

// Configuration holds the amounts the escrow operates with.
type Configuration struct {
	// MinAmount is the smallest amount a vault can be initialized with.
	MinAmount uint64 `json:"min_amount"`
	// VaultDeposit is paid by the sender for the vault storage. It is
	// returned to the sender when the vault is settled.
	VaultDeposit uint64 `json:"vault_deposit"`
	// CustodianReserve is paid once, by the sender that creates the
	// custodian. It stays with the custodian.
	CustodianReserve uint64 `json:"custodian_reserve"`
}

// DefaultConfiguration returns the configuration used when none was
// provided in the genesis.
func DefaultConfiguration() Configuration {
	return Configuration{
		MinAmount:        20000000,
		VaultDeposit:     1461600,
		CustodianReserve: 890880,
	}
}

// Validate rejects zero values.
func (c *Configuration) Validate() error {
	if c.MinAmount == 0 {
		return errors.Wrap(errors.ErrInvalidAmount, "min amount")
	}
	if c.VaultDeposit == 0 {
		return errors.Wrap(errors.ErrInvalidAmount, "vault deposit")
	}
	if c.CustodianReserve == 0 {
		return errors.Wrap(errors.ErrInvalidAmount, "custodian reserve")
	}
	return nil
}

// Marshal encodes the configuration using XDR.
func (c *Configuration) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	e := xdr3.NewEncoder(&buf)
	for _, v := range []uint64{c.MinAmount, c.VaultDeposit, c.CustodianReserve} {
		if _, err := e.EncodeUhyper(v); err != nil {
			return nil, errors.Wrap(errors.ErrModel, err.Error())
		}
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes an XDR encoded configuration.
func (c *Configuration) Unmarshal(raw []byte) error {
	d := xdr3.NewDecoder(bytes.NewReader(raw))
	for _, dst := range []*uint64{&c.MinAmount, &c.VaultDeposit, &c.CustodianReserve} {
		v, _, err := d.DecodeUhyper()
		if err != nil {
			return errors.Wrap(errors.ErrModel, err.Error())
		}
		*dst = v
	}
	return nil
}

// LoadConfiguration returns the stored configuration or the default one if none
// was stored.
func LoadConfiguration(db lockpay.ReadOnlyKVStore) (*Configuration, error) {
	var conf Configuration
	switch err := gconf.Load(db, confPkg, &conf); {
	case err == nil:
		return &conf, nil
	case errors.ErrNotFound.Is(err):
		conf = DefaultConfiguration()
		return &conf, nil
	default:
		return nil, errors.Wrap(err, "load configuration")
	}
}
