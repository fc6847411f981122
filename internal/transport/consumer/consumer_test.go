package consumer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/corray333/backend-labs/food-ordering/internal/dal/memory"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSaga struct {
	mu          sync.Mutex
	err         error
	payments    []message.PaymentResponse
	restaurants []message.RestaurantApprovalResponse
}

func (s *fakeSaga) HandlePaymentResponse(_ context.Context, r message.PaymentResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments = append(s.payments, r)

	return s.err
}

func (s *fakeSaga) HandleRestaurantResponse(_ context.Context, r message.RestaurantApprovalResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restaurants = append(s.restaurants, r)

	return s.err
}

type fakeAck struct {
	acked   int
	nacked  int
	requeue bool
}

func (a *fakeAck) Ack(bool) error {
	a.acked++

	return nil
}

func (a *fakeAck) Nack(_ bool, requeue bool) error {
	a.nacked++
	a.requeue = requeue

	return nil
}

const paymentBody = `{
	"id": "p-1",
	"sagaId": "0b5a1a2f-6a3e-4d36-9d67-d4a4c1b4a001",
	"orderId": "0b5a1a2f-6a3e-4d36-9d67-d4a4c1b4a002",
	"paymentId": "0b5a1a2f-6a3e-4d36-9d67-d4a4c1b4a003",
	"customerId": "f49400ba-529c-4e1f-8493-b0e880c0b3bb",
	"price": "200.00",
	"createdAt": "2024-05-01T12:00:00Z",
	"paymentStatus": "COMPLETED",
	"failureMessages": []
}`

const restaurantBody = `{
	"id": "r-1",
	"sagaId": "0b5a1a2f-6a3e-4d36-9d67-d4a4c1b4a001",
	"orderId": "0b5a1a2f-6a3e-4d36-9d67-d4a4c1b4a002",
	"restaurantId": "e2259847-274b-4e9c-afe1-0b0c5dd98636",
	"createdAt": "2024-05-01T12:00:00Z",
	"orderApprovalStatus": "REJECTED",
	"failureMessages": ["closed"]
}`

func newTestConsumer(saga *fakeSaga) (*Consumer, *memory.InboxRepository) {
	repo := memory.NewStore().Inbox()

	return newConsumer(repo, NewDispatcher(saga)), repo
}

func TestConsumer_ProcessesAndRecords(t *testing.T) {
	saga := &fakeSaga{}
	c, repo := newTestConsumer(saga)
	ack := &fakeAck{}

	c.process(context.Background(), SourcePaymentResponse, []byte(paymentBody), ack)

	assert.Equal(t, 1, ack.acked)
	assert.Zero(t, ack.nacked)
	require.Len(t, saga.payments, 1)
	assert.Equal(t, message.PaymentCompleted, saga.payments[0].PaymentStatus)
	assert.Equal(t, "200.00", saga.payments[0].Price.String())
	assert.True(t, repo.Processed(SourcePaymentResponse+":p-1"))
}

func TestConsumer_DuplicateIsAckedAndSkipped(t *testing.T) {
	saga := &fakeSaga{}
	c, _ := newTestConsumer(saga)

	first, second := &fakeAck{}, &fakeAck{}
	c.process(context.Background(), SourceRestaurantResponse, []byte(restaurantBody), first)
	c.process(context.Background(), SourceRestaurantResponse, []byte(restaurantBody), second)

	assert.Equal(t, 1, first.acked)
	assert.Equal(t, 1, second.acked)
	require.Len(t, saga.restaurants, 1)
	assert.Equal(t, []string{"closed"}, saga.restaurants[0].FailureMessages)
}

func TestConsumer_HandlerFailureIsLeftToInbox(t *testing.T) {
	saga := &fakeSaga{err: errors.New("database is down")}
	c, repo := newTestConsumer(saga)
	ack := &fakeAck{}

	c.process(context.Background(), SourcePaymentResponse, []byte(paymentBody), ack)

	assert.Equal(t, 1, ack.acked)
	assert.False(t, repo.Processed(SourcePaymentResponse+":p-1"))

	msg, ok := repo.Message(SourcePaymentResponse + ":p-1")
	require.True(t, ok)
	assert.Equal(t, 1, msg.RetryCount)
	assert.Equal(t, "database is down", msg.LastError)
}

func TestConsumer_InvalidJSONIsDropped(t *testing.T) {
	saga := &fakeSaga{}
	c, _ := newTestConsumer(saga)
	ack := &fakeAck{}

	c.process(context.Background(), SourcePaymentResponse, []byte(`{not json`), ack)

	assert.Zero(t, ack.acked)
	assert.Equal(t, 1, ack.nacked)
	assert.False(t, ack.requeue)
	assert.Empty(t, saga.payments)
}

func TestConsumer_UndecodablePayloadIsNotRetried(t *testing.T) {
	saga := &fakeSaga{}
	c, repo := newTestConsumer(saga)
	ack := &fakeAck{}

	c.process(context.Background(), SourcePaymentResponse, []byte(`{"id":"p-9","sagaId":"nope"}`), ack)

	assert.Equal(t, 1, ack.acked)
	msg, ok := repo.Message(SourcePaymentResponse + ":p-9")
	require.True(t, ok)
	assert.Equal(t, msg.MaxRetries, msg.RetryCount)
}

func TestDispatcher_UnknownSource(t *testing.T) {
	err := NewDispatcher(&fakeSaga{}).Dispatch(context.Background(), "audit", []byte(`{}`))
	assert.ErrorIs(t, err, ErrUnknownSource)
}

func TestMessageID(t *testing.T) {
	id, err := MessageID(SourcePaymentResponse, []byte(`{"id":"abc"}`))
	require.NoError(t, err)
	assert.Equal(t, "payment-response:abc", id)

	a, err := MessageID(SourcePaymentResponse, []byte(`{"sagaId":"x"}`))
	require.NoError(t, err)
	b, err := MessageID(SourcePaymentResponse, []byte(`{"sagaId":"x"}`))
	require.NoError(t, err)
	assert.Equal(t, a, b, "payloads without id get a stable derived id")

	_, err = MessageID(SourcePaymentResponse, []byte(`[`))
	assert.ErrorIs(t, err, ErrMalformed)
}
