package trackorder

import (
	"context"
	"net/http"

	"github.com/corray333/backend-labs/food-ordering/internal/service/models/ids"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/order"
	"github.com/corray333/backend-labs/food-ordering/internal/transport/http/v1/respond"
	"github.com/go-chi/chi/v5"
)

// service is an interface for the service layer.
type service interface {
	TrackOrder(ctx context.Context, trackingID ids.TrackingID) (order.TrackOrderResponse, error)
}

// TrackOrder handles GET /api/v1/orders/{trackingId}.
func TrackOrder(w http.ResponseWriter, r *http.Request, service service) {
	trackingID, err := ids.ParseTrackingID(chi.URLParam(r, "trackingId"))
	if err != nil {
		respond.BadRequest(w, "Invalid tracking id")

		return
	}

	resp, err := service.TrackOrder(r.Context(), trackingID)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusOK, resp)
}
