package escrow

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/lockpay"
	"github.com/iov-one/lockpay/errors"
)

const (
	pathInitializeMsg = "escrow/initialize"
	pathClaimMsg      = "escrow/claim"
	pathCancelMsg     = "escrow/cancel"
)

// InitializeMsg locks Amount for the Receiver. The sender is the main
// signer of the transaction.
type InitializeMsg struct {
	// Receiver is the receiver declared by the sender.
	Receiver []byte `protobuf:"bytes,1,opt,name=receiver,proto3" json:"receiver,omitempty"`
	// ReceiverRef is the receiver account resolved by the host. It must
	// be the same as Receiver.
	ReceiverRef []byte `protobuf:"bytes,2,opt,name=receiver_ref,json=receiverRef,proto3" json:"receiver_ref,omitempty"`
	Amount      uint64 `protobuf:"varint,3,opt,name=amount,proto3" json:"amount,omitempty"`
}

func (m *InitializeMsg) Reset()         { *m = InitializeMsg{} }
func (m *InitializeMsg) String() string { return proto.CompactTextString(m) }
func (*InitializeMsg) ProtoMessage()    {}

// ClaimMsg releases the vault funds to its receiver.
type ClaimMsg struct {
	Vault     []byte `protobuf:"bytes,1,opt,name=vault,proto3" json:"vault,omitempty"`
	Custodian []byte `protobuf:"bytes,2,opt,name=custodian,proto3" json:"custodian,omitempty"`
}

func (m *ClaimMsg) Reset()         { *m = ClaimMsg{} }
func (m *ClaimMsg) String() string { return proto.CompactTextString(m) }
func (*ClaimMsg) ProtoMessage()    {}

// CancelMsg returns the vault funds to its sender.
type CancelMsg struct {
	Vault     []byte `protobuf:"bytes,1,opt,name=vault,proto3" json:"vault,omitempty"`
	Custodian []byte `protobuf:"bytes,2,opt,name=custodian,proto3" json:"custodian,omitempty"`
}

func (m *CancelMsg) Reset()         { *m = CancelMsg{} }
func (m *CancelMsg) String() string { return proto.CompactTextString(m) }
func (*CancelMsg) ProtoMessage()    {}

func init() {
	proto.RegisterType((*InitializeMsg)(nil), "escrow.InitializeMsg")
	proto.RegisterType((*ClaimMsg)(nil), "escrow.ClaimMsg")
	proto.RegisterType((*CancelMsg)(nil), "escrow.CancelMsg")
}

var _ lockpay.Msg = (*InitializeMsg)(nil)
var _ lockpay.Msg = (*ClaimMsg)(nil)
var _ lockpay.Msg = (*CancelMsg)(nil)

//--------- Path routing --------

// Path fulfills lockpay.Msg interface to allow routing
func (InitializeMsg) Path() string {
	return pathInitializeMsg
}

// Path fulfills lockpay.Msg interface to allow routing
func (ClaimMsg) Path() string {
	return pathClaimMsg
}

// Path fulfills lockpay.Msg interface to allow routing
func (CancelMsg) Path() string {
	return pathCancelMsg
}

//--------- Validation --------

// NewInitializeMsg is a helper to quickly build an initialize message
// where the resolved receiver is the declared one.
func NewInitializeMsg(receiver lockpay.Address, amount uint64) *InitializeMsg {
	return &InitializeMsg{
		Receiver:    receiver,
		ReceiverRef: receiver,
		Amount:      amount,
	}
}

// Validate makes sure that this is sensible. Receiver consistency and
// the amount floor are checked by the handler because they depend on
// the state.
func (m *InitializeMsg) Validate() error {
	if err := lockpay.Address(m.Receiver).Validate(); err != nil {
		return errors.Wrap(err, "receiver")
	}
	if err := lockpay.Address(m.ReceiverRef).Validate(); err != nil {
		return errors.Wrap(err, "receiver reference")
	}
	return nil
}

// Validate makes sure that this is sensible
func (m *ClaimMsg) Validate() error {
	return validateSettleAddrs(m.Vault, m.Custodian)
}

// Validate makes sure that this is sensible
func (m *CancelMsg) Validate() error {
	return validateSettleAddrs(m.Vault, m.Custodian)
}

func validateSettleAddrs(vault, custodian []byte) error {
	if err := lockpay.Address(vault).Validate(); err != nil {
		return errors.Wrap(err, "vault")
	}
	if err := lockpay.Address(custodian).Validate(); err != nil {
		return errors.Wrap(err, "custodian")
	}
	return nil
}

// NewClaimMsg builds a claim message for the vault of given pair.
func NewClaimMsg(sender, receiver lockpay.Address) (*ClaimMsg, error) {
	vault, custodian, err := settleAddrs(sender, receiver)
	if err != nil {
		return nil, err
	}
	return &ClaimMsg{Vault: vault, Custodian: custodian}, nil
}

// NewCancelMsg builds a cancel message for the vault of given pair.
func NewCancelMsg(sender, receiver lockpay.Address) (*CancelMsg, error) {
	vault, custodian, err := settleAddrs(sender, receiver)
	if err != nil {
		return nil, err
	}
	return &CancelMsg{Vault: vault, Custodian: custodian}, nil
}

func settleAddrs(sender, receiver lockpay.Address) (lockpay.Address, lockpay.Address, error) {
	vault, _, err := VaultAddress(sender, receiver)
	if err != nil {
		return nil, nil, errors.Wrap(err, "vault address")
	}
	custodian, _, err := CustodianAddress()
	if err != nil {
		return nil, nil, errors.Wrap(err, "custodian address")
	}
	return vault, custodian, nil
}
