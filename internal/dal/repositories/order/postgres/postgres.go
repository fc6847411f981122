package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/food-ordering/internal/dal/postgres"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/ids"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/money"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/order"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/orderitem"
	"github.com/jackc/pgx/v5"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// OrderDal is the row shape of the orders table joined with its address.
type OrderDal struct {
	ID              ids.OrderID
	CustomerID      ids.CustomerID
	RestaurantID    ids.RestaurantID
	TrackingID      ids.TrackingID
	SagaID          ids.SagaID
	Price           string
	Status          string
	FailureMessages []string
	Version         int64
	Street          string
	PostalCode      string
	City            string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderItemDal is the row shape of the order_items table.
type OrderItemDal struct {
	ProductID ids.ProductID
	Quantity  int
	Price     string
	SubTotal  string
}

// ToModel converts OrderItemDal to the service layer model.
func (d OrderItemDal) ToModel() (orderitem.OrderItem, error) {
	price, err := money.Parse(d.Price)
	if err != nil {
		return orderitem.OrderItem{}, err
	}
	subTotal, err := money.Parse(d.SubTotal)
	if err != nil {
		return orderitem.OrderItem{}, err
	}

	return orderitem.OrderItem{
		ProductID: d.ProductID,
		Quantity:  d.Quantity,
		Price:     price,
		SubTotal:  subTotal,
	}, nil
}

// ToModel converts OrderDal and its items to the service layer model.
func (d OrderDal) ToModel(items []orderitem.OrderItem) (*order.Persisted, error) {
	price, err := money.Parse(d.Price)
	if err != nil {
		return nil, err
	}
	status, err := order.ParseStatus(d.Status)
	if err != nil {
		return nil, err
	}

	return order.Restore(order.Snapshot{
		ID:           d.ID,
		Version:      d.Version,
		CustomerID:   d.CustomerID,
		RestaurantID: d.RestaurantID,
		Address: order.Address{
			Street:     d.Street,
			PostalCode: d.PostalCode,
			City:       d.City,
		},
		Items:           items,
		Price:           price,
		TrackingID:      d.TrackingID,
		SagaID:          d.SagaID,
		Status:          status,
		FailureMessages: d.FailureMessages,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}), nil
}

// OrderRepository implements the order repository for PostgreSQL.
type OrderRepository struct {
	conn postgres.Conn
}

// NewOrderRepository creates a repository bound to a pool or a transaction.
func NewOrderRepository(conn postgres.Conn) *OrderRepository {
	return &OrderRepository{
		conn: conn,
	}
}

// Insert stores the order, its address and its items. It should run inside
// a transaction so a partial order is never visible.
func (r *OrderRepository) Insert(ctx context.Context, o order.Order) (*order.Persisted, error) {
	now := time.Now().UTC()

	query, args, err := psql.Insert("orders").
		Columns(
			"customer_id",
			"restaurant_id",
			"tracking_id",
			"saga_id",
			"price",
			"status",
			"failure_messages",
			"version",
			"created_at",
			"updated_at",
		).
		Values(
			o.CustomerID().String(),
			o.RestaurantID().String(),
			o.TrackingID().String(),
			o.SagaID().String(),
			o.Price().String(),
			o.Status().String(),
			nonNil(o.FailureMessages()),
			1,
			now,
			now,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build insert order query: %w", err)
	}

	var id ids.OrderID
	if err := r.conn.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}

	addr := o.Address()
	query, args, err = psql.Insert("order_address").
		Columns("order_id", "street", "postal_code", "city").
		Values(id.String(), addr.Street, addr.PostalCode, addr.City).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build insert address query: %w", err)
	}
	if _, err := r.conn.Exec(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to insert order address: %w", err)
	}

	itemsInsert := psql.Insert("order_items").
		Columns("order_id", "line_no", "product_id", "quantity", "price", "sub_total")
	for i, item := range o.Items() {
		itemsInsert = itemsInsert.Values(
			id.String(),
			i+1,
			item.ProductID.String(),
			item.Quantity,
			item.Price.String(),
			item.SubTotal.String(),
		)
	}
	query, args, err = itemsInsert.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build insert order items query: %w", err)
	}
	if _, err := r.conn.Exec(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to insert order items: %w", err)
	}

	return o.Persist(id, now), nil
}

// Update writes the mutable saga state guarded by the row version.
func (r *OrderRepository) Update(ctx context.Context, p *order.Persisted) error {
	now := time.Now().UTC()

	query, args, err := psql.Update("orders").
		Set("status", p.Status().String()).
		Set("failure_messages", nonNil(p.FailureMessages())).
		Set("version", p.Version()+1).
		Set("updated_at", now).
		Where(sq.Eq{"id": p.ID().String(), "version": p.Version()}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update order query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order %s version %d: %w", p.ID(), p.Version(), order.ErrConcurrentUpdate)
	}

	p.MarkUpdated(now)

	return nil
}

// FindBySagaID returns the order that owns the saga.
func (r *OrderRepository) FindBySagaID(ctx context.Context, sagaID ids.SagaID) (*order.Persisted, error) {
	return r.findOne(ctx, sq.Eq{"o.saga_id": sagaID.String()})
}

// FindByTrackingID returns the order with the given tracking id.
func (r *OrderRepository) FindByTrackingID(
	ctx context.Context,
	trackingID ids.TrackingID,
) (*order.Persisted, error) {
	return r.findOne(ctx, sq.Eq{"o.tracking_id": trackingID.String()})
}

func (r *OrderRepository) findOne(ctx context.Context, where sq.Eq) (*order.Persisted, error) {
	query, args, err := psql.Select(
		"o.id",
		"o.customer_id",
		"o.restaurant_id",
		"o.tracking_id",
		"o.saga_id",
		"o.price::text",
		"o.status",
		"o.failure_messages",
		"o.version",
		"a.street",
		"a.postal_code",
		"a.city",
		"o.created_at",
		"o.updated_at",
	).
		From("orders o").
		Join("order_address a ON a.order_id = o.id").
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select order query: %w", err)
	}

	var dal OrderDal
	err = r.conn.QueryRow(ctx, query, args...).Scan(
		&dal.ID,
		&dal.CustomerID,
		&dal.RestaurantID,
		&dal.TrackingID,
		&dal.SagaID,
		&dal.Price,
		&dal.Status,
		&dal.FailureMessages,
		&dal.Version,
		&dal.Street,
		&dal.PostalCode,
		&dal.City,
		&dal.CreatedAt,
		&dal.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, order.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	items, err := r.items(ctx, dal.ID)
	if err != nil {
		return nil, err
	}

	return dal.ToModel(items)
}

func (r *OrderRepository) items(ctx context.Context, orderID ids.OrderID) ([]orderitem.OrderItem, error) {
	query, args, err := psql.Select("product_id", "quantity", "price::text", "sub_total::text").
		From("order_items").
		Where(sq.Eq{"order_id": orderID.String()}).
		OrderBy("line_no ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select order items query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []orderitem.OrderItem
	for rows.Next() {
		var dal OrderItemDal
		if err := rows.Scan(&dal.ProductID, &dal.Quantity, &dal.Price, &dal.SubTotal); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		item, err := dal.ToModel()
		if err != nil {
			return nil, fmt.Errorf("failed to convert order item dal to model: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return items, nil
}

// nonNil keeps text[] columns NOT NULL.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}

	return s
}
