package order

// EventKind discriminates the saga events that move an order.
type EventKind string

const (
	PaymentSucceeded EventKind = "payment completed"
	PaymentFailed    EventKind = "payment failed"
	ApprovalGranted  EventKind = "restaurant approved"
	ApprovalRejected EventKind = "restaurant rejected"
	RefundCompleted  EventKind = "payment refunded"
)

// SagaEvent is an inbound saga outcome.
type SagaEvent struct {
	Kind            EventKind
	FailureMessages []string
}

// Effect names the outbound event a transition must emit.
type Effect string

const (
	EffectRequestApproval Effect = "restaurant-approval-request"
	EffectApproved        Effect = "order-approved"
	EffectCancelPayment   Effect = "payment-cancel-request"
	EffectCancelled       Effect = "order-cancelled"
)

type transitionKey struct {
	from Status
	kind EventKind
}

type transition struct {
	to             Status
	recordFailures bool
	effect         Effect
}

var transitions = map[transitionKey]transition{
	{StatusPending, PaymentSucceeded}:   {to: StatusPaid, effect: EffectRequestApproval},
	{StatusPending, PaymentFailed}:      {to: StatusCancelled, recordFailures: true, effect: EffectCancelled},
	{StatusPaid, ApprovalGranted}:       {to: StatusApproved, effect: EffectApproved},
	{StatusPaid, ApprovalRejected}:      {to: StatusCancelling, recordFailures: true, effect: EffectCancelPayment},
	{StatusCancelling, RefundCompleted}: {to: StatusCancelled, recordFailures: true, effect: EffectCancelled},
}

// CanApply reports whether an event of the given kind moves an order out of status from.
func CanApply(from Status, kind EventKind) bool {
	_, ok := transitions[transitionKey{from: from, kind: kind}]

	return ok
}

// Apply moves the order along the transition table and returns the effect
// to emit. It fails with a *TransitionError, leaving the order untouched,
// when the event does not fit the current status.
func (p *Persisted) Apply(e SagaEvent) (Effect, error) {
	t, ok := transitions[transitionKey{from: p.status, kind: e.Kind}]
	if !ok {
		return "", &TransitionError{From: p.status, Event: e.Kind}
	}

	p.status = t.to
	if t.recordFailures {
		for _, msg := range e.FailureMessages {
			if msg != "" {
				p.failureMessages = append(p.failureMessages, msg)
			}
		}
	}

	return t.effect, nil
}
