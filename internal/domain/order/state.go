package order

// OrderState implements the state pattern for the order lifecycle.
type OrderState interface {
	Status() Status
	OnPaid(o *Order) (OrderState, error)
	OnCancelled(o *Order) (OrderState, error)
}

func stateFor(s Status) OrderState {
	switch s {
	case StatusAwaitingPayment:
		return awaitingPaymentState{}
	case StatusPaid:
		return paidState{}
	case StatusCancelled:
		return cancelledState{}
	default:
		return nil
	}
}

type awaitingPaymentState struct{}

func (awaitingPaymentState) Status() Status { return StatusAwaitingPayment }

func (awaitingPaymentState) OnPaid(*Order) (OrderState, error) {
	return paidState{}, nil
}

func (awaitingPaymentState) OnCancelled(*Order) (OrderState, error) {
	return cancelledState{}, nil
}

// Terminal states reject everything, including a repeat of themselves, so a
// duplicated settlement callback never re-applies.
type paidState struct{}

func (paidState) Status() Status { return StatusPaid }

func (paidState) OnPaid(*Order) (OrderState, error) {
	return nil, ErrInvalidTransition
}

func (paidState) OnCancelled(*Order) (OrderState, error) {
	return nil, ErrInvalidTransition
}

type cancelledState struct{}

func (cancelledState) Status() Status { return StatusCancelled }

func (cancelledState) OnPaid(*Order) (OrderState, error) {
	return nil, ErrInvalidTransition
}

func (cancelledState) OnCancelled(*Order) (OrderState, error) {
	return nil, ErrInvalidTransition
}
