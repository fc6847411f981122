package createorder

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/corray333/backend-labs/food-ordering/internal/service/models/order"
	"github.com/corray333/backend-labs/food-ordering/internal/transport/http/v1/respond"
)

// service is an interface for the service layer.
type service interface {
	CreateOrder(ctx context.Context, cmd order.CreateOrderCommand) (order.CreateOrderResponse, error)
}

// CreateOrder handles POST /api/v1/orders.
func CreateOrder(w http.ResponseWriter, r *http.Request, service service) {
	var cmd order.CreateOrderCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		slog.Warn("Error decoding request body for create order", "error", err)
		respond.BadRequest(w, "Failed to decode request body: "+err.Error())

		return
	}

	resp, err := service.CreateOrder(r.Context(), cmd)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusOK, resp)
}
