package database

import (
	"fmt"
	"regexp"

	"github.com/gocql/gocql"
)

var keyspaceName = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]{0,47}$`)

// tables are created in the application keyspace. Farmer crops, order items and
// shipping details are JSON text columns so a farmer record keeps the exact
// shape it was submitted with.
var tables = []string{
	`CREATE TABLE IF NOT EXISTS %s.farmers (
		farmer_id uuid PRIMARY KEY,
		farmer_name text,
		phone_number text,
		crops text,
		created_at timestamp
	)`,
	`CREATE TABLE IF NOT EXISTS %s.orders (
		order_id uuid PRIMARY KEY,
		user_id text,
		items text,
		shipping_details text,
		total_amount double,
		status text,
		order_date timestamp,
		updated_at timestamp
	)`,
	`CREATE TABLE IF NOT EXISTS %s.orders_by_user (
		user_id text,
		order_date timestamp,
		order_id uuid,
		items text,
		shipping_details text,
		total_amount double,
		status text,
		updated_at timestamp,
		PRIMARY KEY (user_id, order_date, order_id)
	) WITH CLUSTERING ORDER BY (order_date DESC, order_id ASC)`,
	`CREATE TABLE IF NOT EXISTS %s.users (
		user_id text PRIMARY KEY,
		email text,
		name text,
		password text,
		picture text,
		provider text,
		created_at timestamp,
		last_login timestamp
	)`,
	`CREATE TABLE IF NOT EXISTS %s.users_by_email (
		email text PRIMARY KEY,
		user_id text
	)`,
	`CREATE TABLE IF NOT EXISTS %s.addresses (
		address_id uuid PRIMARY KEY,
		user_id text,
		data text,
		created_at timestamp
	)`,
	`CREATE TABLE IF NOT EXISTS %s.addresses_by_user (
		user_id text,
		created_at timestamp,
		address_id uuid,
		data text,
		PRIMARY KEY (user_id, created_at, address_id)
	) WITH CLUSTERING ORDER BY (created_at DESC, address_id ASC)`,
}

// SchemaStatements returns the CQL that creates keyspace and tables.
func SchemaStatements(keyspace string) ([]string, error) {
	if !keyspaceName.MatchString(keyspace) {
		return nil, fmt.Errorf("invalid keyspace name %q", keyspace)
	}
	stmts := []string{fmt.Sprintf(
		`CREATE KEYSPACE IF NOT EXISTS %s WITH replication = {'class': 'SimpleStrategy', 'replication_factor': 1}`,
		keyspace)}
	for _, t := range tables {
		stmts = append(stmts, fmt.Sprintf(t, keyspace))
	}
	return stmts, nil
}

// EnsureSchema creates the keyspace and tables if they are missing.
func EnsureSchema(session *gocql.Session, keyspace string) error {
	stmts, err := SchemaStatements(keyspace)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if err := session.Query(stmt).Exec(); err != nil {
			return err
		}
	}
	return nil
}
