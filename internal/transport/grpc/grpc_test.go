package grpctransport

import (
	"context"
	"net"
	"testing"

	"github.com/corray333/backend-labs/food-ordering/internal/dal/memory"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/customer"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/ids"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/money"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/restaurant"
	"github.com/corray333/backend-labs/food-ordering/internal/service/services/ordersvc"
	"github.com/corray333/backend-labs/food-ordering/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	customerID   = "f49400ba-529c-4e1f-8493-b0e880c0b3bb"
	restaurantID = "e2259847-274b-4e9c-afe1-0b0c5dd98636"
	productID    = "7406dd7b-a796-41b0-af89-17bc03399f60"
)

func newClient(t *testing.T, m *metrics.Metrics) *grpc.ClientConn {
	t.Helper()

	cid, err := ids.ParseCustomerID(customerID)
	require.NoError(t, err)
	rid, err := ids.ParseRestaurantID(restaurantID)
	require.NoError(t, err)
	pid, err := ids.ParseProductID(productID)
	require.NoError(t, err)

	store := memory.NewStore()
	store.AddCustomer(customer.Customer{ID: cid})
	store.AddRestaurant(restaurant.Restaurant{
		ID:       rid,
		Active:   true,
		Products: []restaurant.Product{{ID: pid, Price: money.MustParse("50.00")}},
	})
	svc := ordersvc.MustNewOrderService(
		ordersvc.WithCustomerRepository(store),
		ordersvc.WithRestaurantRepository(store),
		ordersvc.WithUnitOfWorkFactory(store.UnitOfWorkFactory()),
	)

	listener := bufconn.Listen(1 << 20)
	transport := newGRPCTransport(svc, m, listener)
	go func() {
		_ = transport.Run()
	}()
	t.Cleanup(func() { _ = transport.Shutdown(context.Background()) })

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func createRequest(t *testing.T, total string) *structpb.Struct {
	t.Helper()

	req, err := structpb.NewStruct(map[string]any{
		"customerId":   customerID,
		"restaurantId": restaurantID,
		"address":      map[string]any{"street": "street_1", "postalCode": "1000AB", "city": "Paris"},
		"price":        total,
		"items": []any{
			map[string]any{"productId": productID, "quantity": 1, "price": "50.00", "subTotal": "50.00"},
			map[string]any{"productId": productID, "quantity": 3, "price": "50.00", "subTotal": "150.00"},
		},
	})
	require.NoError(t, err)

	return req
}

func TestGRPC_CreateAndTrack(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	conn := newClient(t, m)
	ctx := context.Background()

	created := new(structpb.Struct)
	require.NoError(t, conn.Invoke(ctx, CreateOrderMethod, createRequest(t, "200.00"), created))

	fields := created.GetFields()
	assert.Equal(t, "PENDING", fields["orderStatus"].GetStringValue())
	assert.Equal(t, "Order Created Successfully", fields["message"].GetStringValue())
	trackingID := fields["orderTrackingId"].GetStringValue()
	require.NotEmpty(t, trackingID)

	req, err := structpb.NewStruct(map[string]any{"trackingId": trackingID})
	require.NoError(t, err)
	tracked := new(structpb.Struct)
	require.NoError(t, conn.Invoke(ctx, TrackOrderMethod, req, tracked))
	assert.Equal(t, "PENDING", tracked.GetFields()["orderStatus"].GetStringValue())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues(CreateOrderMethod, "OK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues(TrackOrderMethod, "OK")))
}

func TestGRPC_ErrorCodes(t *testing.T) {
	conn := newClient(t, nil)
	ctx := context.Background()

	err := conn.Invoke(ctx, CreateOrderMethod, createRequest(t, "250.00"), new(structpb.Struct))
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Equal(t, "Total price: 250.00 is not equal to Order items total: 200.00!", status.Convert(err).Message())

	req, err := structpb.NewStruct(map[string]any{"trackingId": ids.NewTrackingID().String()})
	require.NoError(t, err)
	err = conn.Invoke(ctx, TrackOrderMethod, req, new(structpb.Struct))
	assert.Equal(t, codes.NotFound, status.Code(err))

	req, err = structpb.NewStruct(map[string]any{"trackingId": "nope"})
	require.NoError(t, err)
	err = conn.Invoke(ctx, TrackOrderMethod, req, new(structpb.Struct))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGRPC_Health(t *testing.T) {
	conn := newClient(t, nil)

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: serviceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}
