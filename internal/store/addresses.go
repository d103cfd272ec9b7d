package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"agromarket_back_end/internal/models"

	"github.com/gocql/gocql"
)

type AddressStore struct {
	session *gocql.Session
}

func NewAddressStore(session *gocql.Session) *AddressStore {
	return &AddressStore{session: session}
}

func (s *AddressStore) CreateAddress(ctx context.Context, a *models.Address) error {
	id := gocql.TimeUUID()
	a.ID = id.String()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	data, err := encodeJSON(a)
	if err != nil {
		return fmt.Errorf("encode address: %w", err)
	}

	batch := s.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	batch.Query(`INSERT INTO addresses (address_id, user_id, data, created_at) VALUES (?, ?, ?, ?)`,
		id, a.UserID, data, a.CreatedAt)
	batch.Query(`INSERT INTO addresses_by_user (user_id, created_at, address_id, data) VALUES (?, ?, ?, ?)`,
		a.UserID, a.CreatedAt, id, data)
	return s.session.ExecuteBatch(batch)
}

// ListByUser returns the user's addresses, newest first.
func (s *AddressStore) ListByUser(ctx context.Context, userID string) ([]models.Address, error) {
	iter := s.session.Query(`SELECT data FROM addresses_by_user WHERE user_id = ?`, userID).WithContext(ctx).Iter()
	return scanAddresses(iter)
}

func scanAddresses(iter *gocql.Iter) ([]models.Address, error) {
	addresses := []models.Address{}
	var data string
	for iter.Scan(&data) {
		var a models.Address
		if err := json.Unmarshal([]byte(data), &a); err != nil {
			_ = iter.Close()
			return nil, fmt.Errorf("decode address: %w", err)
		}
		addresses = append(addresses, a)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return addresses, nil
}
