package app

import (
	"fmt"
	"reflect"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/lockpay"
	"github.com/iov-one/lockpay/errors"
)

// Tx is the wire format of a transaction. It carries the path of the
// message and its serialized form.
type Tx struct {
	Path string `protobuf:"bytes,1,opt,name=path,proto3" json:"path,omitempty"`
	Msg  []byte `protobuf:"bytes,2,opt,name=msg,proto3" json:"msg,omitempty"`
}

func (m *Tx) Reset()         { *m = Tx{} }
func (m *Tx) String() string { return proto.CompactTextString(m) }
func (*Tx) ProtoMessage()    {}

func init() {
	proto.RegisterType((*Tx)(nil), "app.Tx")
}

// ProtoMsg is a message that can be carried by a Tx.
type ProtoMsg interface {
	lockpay.Msg
	proto.Message
}

// Codec knows all message types accepted by the application and converts
// them from and to their wire representation.
type Codec struct {
	msgs map[string]reflect.Type
}

// NewCodec returns a codec that accepts given messages.
func NewCodec(msgs ...ProtoMsg) *Codec {
	c := &Codec{msgs: make(map[string]reflect.Type)}
	for _, m := range msgs {
		c.Register(m)
	}
	return c
}

// Register adds a message type to the codec. The message is registered
// under its path. Registering two messages with the same path panics.
func (c *Codec) Register(prototype ProtoMsg) {
	path := prototype.Path()
	if !isPath(path) {
		panic(fmt.Sprintf("invalid path: %s", path))
	}
	if _, ok := c.msgs[path]; ok {
		panic(fmt.Sprintf("re-registering message: %s", path))
	}
	t := reflect.TypeOf(prototype)
	if t.Kind() != reflect.Ptr {
		panic(fmt.Sprintf("message must be a pointer: %T", prototype))
	}
	c.msgs[path] = t.Elem()
}

// Encode serializes given message into a transaction. Only registered
// messages can be encoded.
func (c *Codec) Encode(msg ProtoMsg) ([]byte, error) {
	if _, ok := c.msgs[msg.Path()]; !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "unknown message path %q", msg.Path())
	}
	raw, err := proto.Marshal(msg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	tx := Tx{Path: msg.Path(), Msg: raw}
	b, err := proto.Marshal(&tx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	return b, nil
}

// Decode parses a transaction. The message it carries is deserialized
// but not validated.
func (c *Codec) Decode(raw []byte) (lockpay.Tx, error) {
	var tx Tx
	if err := proto.Unmarshal(raw, &tx); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "cannot decode transaction: %s", err)
	}
	t, ok := c.msgs[tx.Path]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "unknown message path %q", tx.Path)
	}
	msg := reflect.New(t).Interface().(ProtoMsg)
	if err := proto.Unmarshal(tx.Msg, msg); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "cannot decode %q message: %s", tx.Path, err)
	}
	return &decodedTx{msg: msg}, nil
}

type decodedTx struct {
	msg lockpay.Msg
}

func (tx *decodedTx) GetMsg() (lockpay.Msg, error) {
	return tx.msg, nil
}
