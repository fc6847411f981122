package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/food-ordering/internal/dal/postgres"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/ids"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/money"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/restaurant"
)

// RestaurantRepository reads restaurants and their products.
type RestaurantRepository struct {
	conn postgres.Conn
}

// NewRestaurantRepository creates a new restaurant repository.
func NewRestaurantRepository(conn postgres.Conn) *RestaurantRepository {
	return &RestaurantRepository{
		conn: conn,
	}
}

// FindRestaurant loads the restaurant with only the products named in q.
// Returns restaurant.ErrRestaurantNotFound if the restaurant does not exist.
func (r *RestaurantRepository) FindRestaurant(
	ctx context.Context,
	q restaurant.Query,
) (restaurant.Restaurant, error) {
	productIDs := make([]string, 0, len(q.ProductIDs))
	for _, id := range q.ProductIDs {
		productIDs = append(productIDs, id.String())
	}

	query, args, err := sq.Select("r.id", "r.active", "p.id", "p.name", "p.price::text").
		From("restaurants r").
		LeftJoin("products p ON p.restaurant_id = r.id AND p.id::text = ANY(?::text[])", productIDs).
		Where(sq.Eq{"r.id": q.RestaurantID.String()}).
		OrderBy("p.name ASC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return restaurant.Restaurant{}, fmt.Errorf("failed to build select restaurant query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return restaurant.Restaurant{}, fmt.Errorf("failed to query restaurant: %w", err)
	}
	defer rows.Close()

	var (
		result restaurant.Restaurant
		found  bool
	)
	for rows.Next() {
		var (
			productID ids.ProductID
			name      *string
			price     *string
		)
		if err := rows.Scan(&result.ID, &result.Active, &productID, &name, &price); err != nil {
			return restaurant.Restaurant{}, fmt.Errorf("failed to scan restaurant: %w", err)
		}
		found = true

		if productID.IsZero() || name == nil || price == nil {
			continue
		}
		p, err := money.Parse(*price)
		if err != nil {
			return restaurant.Restaurant{}, fmt.Errorf("failed to parse price of product %s: %w", productID, err)
		}
		result.Products = append(result.Products, restaurant.Product{ID: productID, Name: *name, Price: p})
	}

	if err := rows.Err(); err != nil {
		return restaurant.Restaurant{}, fmt.Errorf("rows iteration error: %w", err)
	}
	if !found {
		return restaurant.Restaurant{}, restaurant.ErrRestaurantNotFound
	}

	return result, nil
}
