package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/corray333/backend-labs/food-ordering/internal/dal/memory"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/customer"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/ids"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/money"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/order"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/restaurant"
	"github.com/corray333/backend-labs/food-ordering/internal/service/services/ordersvc"
	"github.com/corray333/backend-labs/food-ordering/internal/transport/http/v1/respond"
	"github.com/corray333/backend-labs/food-ordering/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	customerID   = "f49400ba-529c-4e1f-8493-b0e880c0b3bb"
	restaurantID = "e2259847-274b-4e9c-afe1-0b0c5dd98636"
	productID    = "7406dd7b-a796-41b0-af89-17bc03399f60"
)

func newTestServer(t *testing.T) *httptest.Server {
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

	transport := NewHTTPTransport(svc, metrics.New(prometheus.NewRegistry()))
	transport.RegisterRoutes()

	srv := httptest.NewServer(transport.Handler())
	t.Cleanup(srv.Close)

	return srv
}

func orderBody(total string) string {
	return `{
		"customerId": "` + customerID + `",
		"restaurantId": "` + restaurantID + `",
		"address": {"street": "street_1", "postalCode": "1000AB", "city": "Paris"},
		"price": ` + total + `,
		"items": [
			{"productId": "` + productID + `", "quantity": 1, "price": 50.00, "subTotal": 50.00},
			{"productId": "` + productID + `", "quantity": 3, "price": 50.00, "subTotal": 150.00}
		]
	}`
}

func post(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()

	resp, err := http.Post(srv.URL+"/api/v1/orders", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	return resp
}

func TestCreateAndTrackOrder(t *testing.T) {
	srv := newTestServer(t)

	resp := post(t, srv, orderBody("200.00"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var created order.CreateOrderResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, order.StatusPending, created.Status)
	assert.Equal(t, order.CreatedMessage, created.Message)

	track, err := http.Get(srv.URL + "/api/v1/orders/" + created.TrackingID.String())
	require.NoError(t, err)
	defer track.Body.Close()
	require.Equal(t, http.StatusOK, track.StatusCode)

	var tracked map[string]any
	require.NoError(t, json.NewDecoder(track.Body).Decode(&tracked))
	assert.Equal(t, created.TrackingID.String(), tracked["orderTrackingId"])
	assert.Equal(t, "PENDING", tracked["orderStatus"])
	assert.Equal(t, []any{}, tracked["failureMessages"])
}

func TestCreateOrder_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  int
		code    string
		message string
	}{
		{
			name:    "total mismatch",
			body:    orderBody("250.00"),
			status:  http.StatusBadRequest,
			code:    "VALIDATION_FAILED",
			message: "Total price: 250.00 is not equal to Order items total: 200.00!",
		},
		{
			name:   "malformed body",
			body:   `{"customerId": 12`,
			status: http.StatusBadRequest,
			code:   "BAD_REQUEST",
		},
		{
			name:    "unknown customer",
			body:    strings.Replace(orderBody("200.00"), customerID, "00000000-0000-0000-0000-000000000001", 1),
			status:  http.StatusNotFound,
			code:    "NOT_FOUND",
			message: "Customer with id 00000000-0000-0000-0000-000000000001 not found",
		},
		{
			name:    "missing customer id",
			body:    strings.Replace(orderBody("200.00"), `"customerId": "`+customerID+`",`, "", 1),
			status:  http.StatusBadRequest,
			code:    "VALIDATION_FAILED",
			message: "Customer id must be provided!",
		},
		{
			name:   "sub-cent amount",
			body:   orderBody("200.005"),
			status: http.StatusBadRequest,
			code:   "BAD_REQUEST",
		},
	}

	srv := newTestServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, srv, tt.body)
			require.Equal(t, tt.status, resp.StatusCode)

			var body respond.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.code, body.Code)
			if tt.message != "" {
				assert.Equal(t, tt.message, body.Message)
			}
		})
	}
}

func TestTrackOrder_Errors(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/orders/not-a-uuid")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/v1/orders/" + ids.NewTrackingID().String())
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRespondError_HidesInternalErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	respond.Error(rec, req, context.DeadlineExceeded)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "deadline")
}

func TestServiceRoutes(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/healthz", "/metrics", "/swagger/doc.json"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}
