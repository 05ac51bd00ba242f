package escrow

import (
	"bytes"

	"github.com/iov-one/lockpay"
	"github.com/iov-one/lockpay/errors"
	"github.com/iov-one/lockpay/orm"
	xdr3 "github.com/stellar/go-xdr/xdr3"
)

const (
	vaultBucketName     = "vault"
	custodianBucketName = "custodian"

	// VaultSize is the length of a serialized vault. It does not depend
	// on the content.
	VaultSize = 56
)

// Vault is the state of a single escrow between a sender and a receiver.
type Vault struct {
	Sender   lockpay.Address `json:"sender"`
	Receiver lockpay.Address `json:"receiver"`
	Amount   uint64          `json:"amount"`
	Claimed  bool            `json:"claimed"`
	// Bump re-derives the vault address from the sender and the receiver.
	Bump uint8 `json:"bump"`
}

var _ orm.Model = (*Vault)(nil)

// Validate ensures the vault is valid
func (v *Vault) Validate() error {
	if err := v.Sender.Validate(); err != nil {
		return errors.Wrap(err, "sender")
	}
	if err := v.Receiver.Validate(); err != nil {
		return errors.Wrap(err, "receiver")
	}
	if v.Claimed && v.Amount != 0 {
		return errors.Wrap(errors.ErrInvalidState, "claimed vault holds funds")
	}
	return nil
}

// Marshal encodes the vault using XDR.
func (v *Vault) Marshal() ([]byte, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Grow(VaultSize)
	e := xdr3.NewEncoder(&buf)
	if _, err := e.EncodeFixedOpaque(v.Sender); err != nil {
		return nil, errors.Wrap(errors.ErrModel, err.Error())
	}
	if _, err := e.EncodeFixedOpaque(v.Receiver); err != nil {
		return nil, errors.Wrap(errors.ErrModel, err.Error())
	}
	if _, err := e.EncodeUhyper(v.Amount); err != nil {
		return nil, errors.Wrap(errors.ErrModel, err.Error())
	}
	if _, err := e.EncodeBool(v.Claimed); err != nil {
		return nil, errors.Wrap(errors.ErrModel, err.Error())
	}
	if _, err := e.EncodeUint(uint32(v.Bump)); err != nil {
		return nil, errors.Wrap(errors.ErrModel, err.Error())
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes an XDR encoded vault.
func (v *Vault) Unmarshal(raw []byte) error {
	if len(raw) != VaultSize {
		return errors.Wrapf(errors.ErrModel, "vault length %d", len(raw))
	}
	d := xdr3.NewDecoder(bytes.NewReader(raw))
	sender, _, err := d.DecodeFixedOpaque(int32(lockpay.AddressLength))
	if err != nil {
		return errors.Wrap(errors.ErrModel, err.Error())
	}
	receiver, _, err := d.DecodeFixedOpaque(int32(lockpay.AddressLength))
	if err != nil {
		return errors.Wrap(errors.ErrModel, err.Error())
	}
	amount, _, err := d.DecodeUhyper()
	if err != nil {
		return errors.Wrap(errors.ErrModel, err.Error())
	}
	claimed, _, err := d.DecodeBool()
	if err != nil {
		return errors.Wrap(errors.ErrModel, err.Error())
	}
	bump, _, err := d.DecodeUint()
	if err != nil {
		return errors.Wrap(errors.ErrModel, err.Error())
	}
	if bump > 255 {
		return errors.Wrapf(errors.ErrModel, "bump %d", bump)
	}
	*v = Vault{
		Sender:   sender,
		Receiver: receiver,
		Amount:   amount,
		Claimed:  claimed,
		Bump:     uint8(bump),
	}
	return nil
}

// Custodian is the stored state of the custodian account.
type Custodian struct {
	// Owner is the address of the program condition. Only custodians
	// owned by this extension are trusted.
	Owner lockpay.Address `json:"owner"`
	Bump  uint8           `json:"bump"`
	// Reserve is the part of the custodian balance that does not belong
	// to any vault.
	Reserve uint64 `json:"reserve"`
}

var _ orm.Model = (*Custodian)(nil)

// Validate ensures the custodian is valid
func (c *Custodian) Validate() error {
	if err := c.Owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	return nil
}

// Marshal encodes the custodian using XDR.
func (c *Custodian) Marshal() ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	e := xdr3.NewEncoder(&buf)
	if _, err := e.EncodeFixedOpaque(c.Owner); err != nil {
		return nil, errors.Wrap(errors.ErrModel, err.Error())
	}
	if _, err := e.EncodeUint(uint32(c.Bump)); err != nil {
		return nil, errors.Wrap(errors.ErrModel, err.Error())
	}
	if _, err := e.EncodeUhyper(c.Reserve); err != nil {
		return nil, errors.Wrap(errors.ErrModel, err.Error())
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes an XDR encoded custodian.
func (c *Custodian) Unmarshal(raw []byte) error {
	d := xdr3.NewDecoder(bytes.NewReader(raw))
	owner, _, err := d.DecodeFixedOpaque(int32(lockpay.AddressLength))
	if err != nil {
		return errors.Wrap(errors.ErrModel, err.Error())
	}
	bump, _, err := d.DecodeUint()
	if err != nil {
		return errors.Wrap(errors.ErrModel, err.Error())
	}
	if bump > 255 {
		return errors.Wrapf(errors.ErrModel, "bump %d", bump)
	}
	reserve, _, err := d.DecodeUhyper()
	if err != nil {
		return errors.Wrap(errors.ErrModel, err.Error())
	}
	*c = Custodian{Owner: owner, Bump: uint8(bump), Reserve: reserve}
	return nil
}

// NewVaultBucket returns a bucket storing vaults by their address.
func NewVaultBucket() orm.ModelBucket {
	return orm.NewModelBucket(vaultBucketName, &Vault{})
}

// NewCustodianBucket returns a bucket storing the custodian under its
// address.
func NewCustodianBucket() orm.ModelBucket {
	return orm.NewModelBucket(custodianBucketName, &Custodian{})
}
