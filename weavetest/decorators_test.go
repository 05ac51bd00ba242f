package weavetest

import (
	"testing"

	"github.com/iov-one/lockpay"
	"github.com/iov-one/lockpay/errors"
)

func TestDecoratorGuardsHandler(t *testing.T) {
	tx := &Tx{Msg: &Msg{RoutePath: "escrow/claim"}}

	cases := map[string]struct {
		dec          Decorator
		wantCheckErr *errors.Error
		wantDelivErr *errors.Error
		wantHandled  int
	}{
		"passing decorator reaches the handler": {
			wantHandled: 2,
		},
		"rejecting decorator stops before the handler": {
			dec: Decorator{
				CheckErr:   errors.ErrUnauthorized,
				DeliverErr: errors.ErrInvalidState,
			},
			wantCheckErr: errors.ErrUnauthorized,
			wantDelivErr: errors.ErrInvalidState,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var h Handler
			var next lockpay.Handler = &h

			_, err := tc.dec.Check(nil, nil, tx, next)
			if !tc.wantCheckErr.Is(err) {
				t.Fatalf("check: want %v, got %+v", tc.wantCheckErr, err)
			}
			_, err = tc.dec.Deliver(nil, nil, tx, next)
			if !tc.wantDelivErr.Is(err) {
				t.Fatalf("deliver: want %v, got %+v", tc.wantDelivErr, err)
			}

			if got := h.CallCount(); got != tc.wantHandled {
				t.Errorf("want %d handler calls, got %d", tc.wantHandled, got)
			}
			// Rejections are counted too.
			if got := tc.dec.CheckCallCount(); got != 1 {
				t.Errorf("want 1 check, got %d", got)
			}
			if got := tc.dec.DeliverCallCount(); got != 1 {
				t.Errorf("want 1 deliver, got %d", got)
			}
		})
	}
}
