// Package message holds the responses other services send back to the
// ordering saga.
package message

import (
	"fmt"
	"time"

	"github.com/corray333/backend-labs/food-ordering/internal/service/models/ids"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/money"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/order"
	"github.com/google/uuid"
)

// PaymentStatus is the outcome reported by the payment service.
type PaymentStatus string

const (
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentCancelled PaymentStatus = "CANCELLED"
	PaymentFailed    PaymentStatus = "FAILED"
)

// PaymentResponse is sent by the payment service for a payment or a refund.
type PaymentResponse struct {
	ID              string         `json:"id"`
	SagaID          ids.SagaID     `json:"sagaId"`
	OrderID         ids.OrderID    `json:"orderId"`
	PaymentID       uuid.UUID      `json:"paymentId"`
	CustomerID      ids.CustomerID `json:"customerId"`
	Price           money.Money    `json:"price"`
	CreatedAt       time.Time      `json:"createdAt"`
	PaymentStatus   PaymentStatus  `json:"paymentStatus"`
	FailureMessages []string       `json:"failureMessages"`
}

// SagaEvent maps the payment outcome onto the order state machine.
// A CANCELLED payment is the refund that completes compensation.
func (r PaymentResponse) SagaEvent() (order.SagaEvent, error) {
	var kind order.EventKind
	switch r.PaymentStatus {
	case PaymentCompleted:
		kind = order.PaymentSucceeded
	case PaymentFailed:
		kind = order.PaymentFailed
	case PaymentCancelled:
		kind = order.RefundCompleted
	default:
		return order.SagaEvent{}, fmt.Errorf("unknown payment status %q", r.PaymentStatus)
	}

	return order.SagaEvent{Kind: kind, FailureMessages: r.FailureMessages}, nil
}

// ApprovalStatus is the outcome reported by the restaurant service.
type ApprovalStatus string

const (
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
)

// RestaurantApprovalResponse is sent by the restaurant service.
type RestaurantApprovalResponse struct {
	ID                  string           `json:"id"`
	SagaID              ids.SagaID       `json:"sagaId"`
	OrderID             ids.OrderID      `json:"orderId"`
	RestaurantID        ids.RestaurantID `json:"restaurantId"`
	CreatedAt           time.Time        `json:"createdAt"`
	OrderApprovalStatus ApprovalStatus   `json:"orderApprovalStatus"`
	FailureMessages     []string         `json:"failureMessages"`
}

// SagaEvent maps the approval outcome onto the order state machine.
func (r RestaurantApprovalResponse) SagaEvent() (order.SagaEvent, error) {
	switch r.OrderApprovalStatus {
	case ApprovalApproved:
		return order.SagaEvent{Kind: order.ApprovalGranted, FailureMessages: r.FailureMessages}, nil
	case ApprovalRejected:
		return order.SagaEvent{Kind: order.ApprovalRejected, FailureMessages: r.FailureMessages}, nil
	default:
		return order.SagaEvent{}, fmt.Errorf("unknown approval status %q", r.OrderApprovalStatus)
	}
}
