// Package store persists farmers, orders, users and addresses in ScyllaDB.
package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gocql/gocql"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrUserExists = errors.New("User already exists")
)

func parseID(id string) (gocql.UUID, error) {
	u, err := gocql.ParseUUID(id)
	if err != nil {
		return gocql.UUID{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return u, nil
}

func encodeJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func notFound(err error) error {
	if errors.Is(err, gocql.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
