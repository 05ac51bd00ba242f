package escrow

import (
	"math"

	"github.com/iov-one/lockpay"
	"github.com/iov-one/lockpay/errors"
	"github.com/iov-one/lockpay/orm"
	"github.com/iov-one/lockpay/x"
	"github.com/iov-one/lockpay/x/cash"
)

// RegisterRoutes will instantiate and register
// all handlers in this package
func RegisterRoutes(r lockpay.Registry, auth x.Authenticator, bank cash.Controller) {
	vaults := NewVaultBucket()
	custodians := NewCustodianBucket()

	r.Handle(pathInitializeMsg, InitializeHandler{auth: auth, vaults: vaults, custodians: custodians, bank: bank})
	r.Handle(pathClaimMsg, ClaimHandler{settler{auth: auth, vaults: vaults, custodians: custodians, bank: bank}})
	r.Handle(pathCancelMsg, CancelHandler{settler{auth: auth, vaults: vaults, custodians: custodians, bank: bank}})
}

// InitializeHandler creates a vault and locks the funds with the
// custodian.
type InitializeHandler struct {
	auth       x.Authenticator
	vaults     orm.ModelBucket
	custodians orm.ModelBucket
	bank       cash.Controller
}

var _ lockpay.Handler = InitializeHandler{}

// initialization is the outcome of the initialize validation.
type initialization struct {
	sender        lockpay.Address
	receiver      lockpay.Address
	amount        uint64
	vault         lockpay.Address
	vaultBump     uint8
	custodian     lockpay.Address
	custodianBump uint8
	// createCustodian is set when this is the first vault ever.
	createCustodian bool
	conf            *Configuration
}

// Check verifies all preconditions without moving any funds.
func (h InitializeHandler) Check(ctx lockpay.Context, db lockpay.KVStore, tx lockpay.Tx) (*lockpay.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &lockpay.CheckResult{}, nil
}

// Deliver creates the custodian if needed, stores the vault and moves
// the deposit and the amount out of the sender account.
func (h InitializeHandler) Deliver(ctx lockpay.Context, db lockpay.KVStore, tx lockpay.Tx) (*lockpay.DeliverResult, error) {
	in, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	if in.createCustodian {
		custodian := Custodian{
			Owner:   ProgramCondition.Address(),
			Bump:    in.custodianBump,
			Reserve: in.conf.CustodianReserve,
		}
		if err := h.custodians.Create(db, in.custodian, &custodian); err != nil {
			return nil, errors.Wrap(err, "cannot create custodian")
		}
		if err := h.bank.MoveCoins(db, in.sender, in.custodian, in.conf.CustodianReserve); err != nil {
			return nil, errors.Wrap(err, "custodian reserve")
		}
	}

	vault := Vault{
		Sender:   in.sender,
		Receiver: in.receiver,
		Amount:   in.amount,
		Claimed:  false,
		Bump:     in.vaultBump,
	}
	if err := h.vaults.Create(db, in.vault, &vault); err != nil {
		return nil, errors.Wrap(err, "cannot create vault")
	}
	if err := h.bank.MoveCoins(db, in.sender, in.vault, in.conf.VaultDeposit); err != nil {
		return nil, errors.Wrap(err, "vault deposit")
	}
	if err := h.bank.MoveCoins(db, in.sender, in.custodian, in.amount); err != nil {
		return nil, errors.Wrap(err, "lock funds")
	}
	return &lockpay.DeliverResult{Data: in.vault}, nil
}

// validate does all common pre-processing between Check and Deliver.
func (h InitializeHandler) validate(ctx lockpay.Context, db lockpay.KVStore, tx lockpay.Tx) (*initialization, error) {
	var msg InitializeMsg
	if err := lockpay.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	signer := x.MainSigner(ctx, h.auth)
	if signer == nil {
		return nil, errors.Wrap(errors.ErrUnauthorized, "no signer")
	}
	receiver := lockpay.Address(msg.Receiver)
	if !receiver.Equals(msg.ReceiverRef) {
		return nil, errors.Wrapf(ErrReceiverMismatch, "declared %s, resolved %s", receiver, lockpay.Address(msg.ReceiverRef))
	}
	conf, err := LoadConfiguration(db)
	if err != nil {
		return nil, err
	}
	if msg.Amount < conf.MinAmount {
		return nil, errors.Wrapf(ErrAmountBelowMinimum, "%d < %d", msg.Amount, conf.MinAmount)
	}

	in := initialization{
		sender:   signer.Address(),
		receiver: receiver,
		amount:   msg.Amount,
		conf:     conf,
	}
	in.vault, in.vaultBump, err = VaultAddress(in.sender, in.receiver)
	if err != nil {
		return nil, errors.Wrap(err, "vault address")
	}
	switch err := h.vaults.Has(db, in.vault); {
	case err == nil:
		return nil, errors.Wrapf(errors.ErrDuplicate, "vault %s is live", in.vault)
	case !errors.ErrNotFound.Is(err):
		return nil, err
	}

	in.custodian, in.custodianBump, err = CustodianAddress()
	if err != nil {
		return nil, errors.Wrap(err, "custodian address")
	}
	switch err := h.custodians.Has(db, in.custodian); {
	case err == nil:
		var c Custodian
		if err := loadCustodian(db, h.custodians, in.custodian, &c); err != nil {
			return nil, err
		}
	case errors.ErrNotFound.Is(err):
		in.createCustodian = true
	default:
		return nil, err
	}

	need, err := add(in.amount, conf.VaultDeposit)
	if err != nil {
		return nil, err
	}
	if in.createCustodian {
		if need, err = add(need, conf.CustodianReserve); err != nil {
			return nil, err
		}
	}
	balance, err := h.bank.Balance(db, in.sender)
	if err != nil {
		return nil, errors.Wrap(err, "sender balance")
	}
	if balance < need {
		return nil, errors.Wrapf(errors.ErrInsufficientAmount, "balance %d, need %d", balance, need)
	}
	return &in, nil
}

func add(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, errors.Wrap(errors.ErrOverflow, "required funds")
	}
	return a + b, nil
}

// settler holds everything needed to settle a vault. Claim and Cancel
// differ only in who may call them and where the funds go.
type settler struct {
	auth       x.Authenticator
	vaults     orm.ModelBucket
	custodians orm.ModelBucket
	bank       cash.Controller
}

// settlement is the outcome of the settle validation.
type settlement struct {
	key       lockpay.Address
	vault     *Vault
	authority *Authority
}

// validate loads the vault and the authority. party selects the vault
// member that must have signed.
func (s settler) validate(ctx lockpay.Context, db lockpay.KVStore, vaultKey, custodianKey []byte, party func(*Vault) lockpay.Address) (*settlement, error) {
	var vault Vault
	if err := s.vaults.One(db, vaultKey, &vault); err != nil {
		return nil, errors.Wrap(err, "cannot load vault")
	}
	c, err := CreateCondition(vault.Bump, vaultSeeds(vault.Sender, vault.Receiver)...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidState, "vault bump")
	}
	if !c.Address().Equals(vaultKey) {
		return nil, errors.Wrap(errors.ErrInvalidState, "vault address does not derive from its parties")
	}
	if !s.auth.HasAddress(ctx, party(&vault)) {
		return nil, errors.ErrUnauthorized
	}
	if vault.Claimed {
		return nil, ErrAlreadyClaimed
	}
	authority, err := loadAuthority(db, s.custodians, s.bank, custodianKey)
	if err != nil {
		return nil, err
	}
	return &settlement{key: vaultKey, vault: &vault, authority: authority}, nil
}

// settle pays the locked amount to dest, returns the vault deposit to the
// sender and removes the vault.
func (s settler) settle(db lockpay.KVStore, st *settlement, dest lockpay.Address) (*lockpay.DeliverResult, error) {
	v := st.vault
	amount := v.Amount
	if err := st.authority.Transfer(db, dest, amount); err != nil {
		return nil, err
	}
	v.Claimed = true
	v.Amount = 0

	deposit, err := s.bank.Balance(db, st.key)
	if err != nil {
		return nil, errors.Wrap(err, "vault balance")
	}
	if deposit > 0 {
		if err := s.bank.MoveCoins(db, st.key, v.Sender, deposit); err != nil {
			return nil, errors.Wrap(err, "return deposit")
		}
	}
	if err := s.vaults.Delete(db, st.key); err != nil {
		return nil, errors.Wrap(err, "cannot delete vault")
	}
	return &lockpay.DeliverResult{}, nil
}

// ClaimHandler releases the vault funds to the receiver.
type ClaimHandler struct {
	settler
}

var _ lockpay.Handler = ClaimHandler{}

func receiverOf(v *Vault) lockpay.Address { return v.Receiver }
func senderOf(v *Vault) lockpay.Address   { return v.Sender }

// Check verifies all preconditions without moving any funds.
func (h ClaimHandler) Check(ctx lockpay.Context, db lockpay.KVStore, tx lockpay.Tx) (*lockpay.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &lockpay.CheckResult{}, nil
}

// Deliver pays the receiver and removes the vault.
func (h ClaimHandler) Deliver(ctx lockpay.Context, db lockpay.KVStore, tx lockpay.Tx) (*lockpay.DeliverResult, error) {
	st, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	return h.settle(db, st, st.vault.Receiver)
}

func (h ClaimHandler) validate(ctx lockpay.Context, db lockpay.KVStore, tx lockpay.Tx) (*settlement, error) {
	var msg ClaimMsg
	if err := lockpay.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	return h.settler.validate(ctx, db, msg.Vault, msg.Custodian, receiverOf)
}

// CancelHandler returns the vault funds to the sender.
type CancelHandler struct {
	settler
}

var _ lockpay.Handler = CancelHandler{}

// Check verifies all preconditions without moving any funds.
func (h CancelHandler) Check(ctx lockpay.Context, db lockpay.KVStore, tx lockpay.Tx) (*lockpay.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &lockpay.CheckResult{}, nil
}

// Deliver refunds the sender and removes the vault.
func (h CancelHandler) Deliver(ctx lockpay.Context, db lockpay.KVStore, tx lockpay.Tx) (*lockpay.DeliverResult, error) {
	st, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	return h.settle(db, st, st.vault.Sender)
}

func (h CancelHandler) validate(ctx lockpay.Context, db lockpay.KVStore, tx lockpay.Tx) (*settlement, error) {
	var msg CancelMsg
	if err := lockpay.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	return h.settler.validate(ctx, db, msg.Vault, msg.Custodian, senderOf)
}
