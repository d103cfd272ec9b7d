package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"agromarket_back_end/internal/models"

	"github.com/gocql/gocql"
)

// OrderStore writes every order twice: by id, and under its user partition
// ordered by date.
type OrderStore struct {
	session *gocql.Session
}

func NewOrderStore(session *gocql.Session) *OrderStore {
	return &OrderStore{session: session}
}

type orderRow struct {
	items    string
	shipping string
}

func encodeOrder(o *models.Order) (orderRow, error) {
	items, err := encodeJSON(o.Items)
	if err != nil {
		return orderRow{}, fmt.Errorf("encode items: %w", err)
	}
	shipping, err := encodeJSON(o.ShippingDetails)
	if err != nil {
		return orderRow{}, fmt.Errorf("encode shipping details: %w", err)
	}
	return orderRow{items: items, shipping: shipping}, nil
}

func decodeOrder(o *models.Order, items, shipping string) error {
	o.Items = []models.OrderItem{}
	if items != "" {
		if err := json.Unmarshal([]byte(items), &o.Items); err != nil {
			return fmt.Errorf("decode items of order %s: %w", o.ID, err)
		}
	}
	if shipping != "" {
		if err := json.Unmarshal([]byte(shipping), &o.ShippingDetails); err != nil {
			return fmt.Errorf("decode shipping details of order %s: %w", o.ID, err)
		}
	}
	return nil
}

// CreateOrder stores o. An empty ID is replaced with a new time UUID.
func (s *OrderStore) CreateOrder(ctx context.Context, o *models.Order) error {
	if o.ID == "" {
		o.ID = gocql.TimeUUID().String()
	}
	id, err := gocql.ParseUUID(o.ID)
	if err != nil {
		return fmt.Errorf("order id: %w", err)
	}
	if o.OrderDate.IsZero() {
		o.OrderDate = time.Now().UTC()
	}
	if o.UpdatedAt.IsZero() {
		o.UpdatedAt = o.OrderDate
	}
	row, err := encodeOrder(o)
	if err != nil {
		return err
	}

	batch := s.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	batch.Query(`INSERT INTO orders (order_id, user_id, items, shipping_details, total_amount, status, order_date, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, o.UserID, row.items, row.shipping, o.TotalAmount, o.Status, o.OrderDate, o.UpdatedAt)
	batch.Query(`INSERT INTO orders_by_user (user_id, order_date, order_id, items, shipping_details, total_amount, status, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		o.UserID, o.OrderDate, id, row.items, row.shipping, o.TotalAmount, o.Status, o.UpdatedAt)
	return s.session.ExecuteBatch(batch)
}

func (s *OrderStore) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	id, err := parseID(orderID)
	if err != nil {
		return nil, err
	}
	o := &models.Order{ID: id.String()}
	var items, shipping string
	err = s.session.Query(`SELECT user_id, items, shipping_details, total_amount, status, order_date, updated_at
		FROM orders WHERE order_id = ?`, id).WithContext(ctx).
		Scan(&o.UserID, &items, &shipping, &o.TotalAmount, &o.Status, &o.OrderDate, &o.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	if err := decodeOrder(o, items, shipping); err != nil {
		return nil, err
	}
	return o, nil
}

// ListByUser returns the user's orders, newest first.
func (s *OrderStore) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	iter := s.session.Query(`SELECT order_id, order_date, items, shipping_details, total_amount, status, updated_at
		FROM orders_by_user WHERE user_id = ?`, userID).WithContext(ctx).Iter()

	orders := []models.Order{}
	var (
		id              gocql.UUID
		items, shipping string
		o               models.Order
	)
	for iter.Scan(&id, &o.OrderDate, &items, &shipping, &o.TotalAmount, &o.Status, &o.UpdatedAt) {
		o.ID = id.String()
		o.UserID = userID
		if err := decodeOrder(&o, items, shipping); err != nil {
			_ = iter.Close()
			return nil, err
		}
		orders = append(orders, o)
		o = models.Order{}
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus sets the status on both copies of the order and returns it.
func (s *OrderStore) UpdateStatus(ctx context.Context, orderID, status string) (*models.Order, error) {
	o, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	id, _ := gocql.ParseUUID(o.ID)
	o.Status = status
	o.UpdatedAt = time.Now().UTC()

	batch := s.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	batch.Query(`UPDATE orders SET status = ?, updated_at = ? WHERE order_id = ?`, status, o.UpdatedAt, id)
	batch.Query(`UPDATE orders_by_user SET status = ?, updated_at = ? WHERE user_id = ? AND order_date = ? AND order_id = ?`,
		status, o.UpdatedAt, o.UserID, o.OrderDate, id)
	if err := s.session.ExecuteBatch(batch); err != nil {
		return nil, err
	}
	return o, nil
}
