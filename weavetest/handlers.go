package weavetest

import "github.com/iov-one/lockpay"

// Handler is a mock implementation of the lockpay.Handler interface.
//
// Set CheckErr or DeliverErr to force error response for corresponding
// method. Each method call is counted, regardless of its result.
type Handler struct {
	checkCall   int
	CheckResult lockpay.CheckResult
	CheckErr    error

	deliverCall   int
	DeliverResult lockpay.DeliverResult
	DeliverErr    error
}

var _ lockpay.Handler = (*Handler)(nil)

func (h *Handler) Check(ctx lockpay.Context, db lockpay.KVStore, tx lockpay.Tx) (*lockpay.CheckResult, error) {
	h.checkCall++
	if h.CheckErr != nil {
		return nil, h.CheckErr
	}
	res := h.CheckResult
	return &res, nil
}

func (h *Handler) Deliver(ctx lockpay.Context, db lockpay.KVStore, tx lockpay.Tx) (*lockpay.DeliverResult, error) {
	h.deliverCall++
	if h.DeliverErr != nil {
		return nil, h.DeliverErr
	}
	res := h.DeliverResult
	return &res, nil
}

func (h *Handler) CheckCallCount() int {
	return h.checkCall
}

func (h *Handler) DeliverCallCount() int {
	return h.deliverCall
}

func (h *Handler) CallCount() int {
	return h.checkCall + h.deliverCall
}
