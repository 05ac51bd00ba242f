package weavetest

import (
	"testing"

	"github.com/iov-one/lockpay"
	"github.com/iov-one/lockpay/errors"
)

func TestTxLoadMsg(t *testing.T) {
	tx := &Tx{Msg: &Msg{RoutePath: "test/msg"}}
	if got := lockpay.GetPath(tx); got != "test/msg" {
		t.Fatalf("unexpected path: %q", got)
	}

	var msg Msg
	if err := lockpay.LoadMsg(tx, &msg); err != nil {
		t.Fatalf("cannot load message: %s", err)
	}
	if msg.RoutePath != "test/msg" {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestTxInvalidMsg(t *testing.T) {
	tx := &Tx{Msg: &Msg{RoutePath: "test/msg", Err: errors.ErrEmpty}}
	var msg Msg
	if err := lockpay.LoadMsg(tx, &msg); !errors.ErrEmpty.Is(err) {
		t.Fatalf("want empty error, got %v", err)
	}
}

func TestTxError(t *testing.T) {
	tx := &Tx{Err: errors.ErrMsg}
	if got := lockpay.GetPath(tx); got != "(missing)" {
		t.Fatalf("unexpected path: %q", got)
	}
}
