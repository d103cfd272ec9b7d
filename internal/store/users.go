package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"agromarket_back_end/internal/models"

	"github.com/gocql/gocql"
)

type UserStore struct {
	session *gocql.Session
}

func NewUserStore(session *gocql.Session) *UserStore {
	return &UserStore{session: session}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser claims the email and then the user id with lightweight
// transactions, so neither an address nor an id can be taken twice. The email
// claim is released when the id is already taken.
func (s *UserStore) CreateUser(ctx context.Context, u *models.User) error {
	u.Email = normalizeEmail(u.Email)
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.LastLogin.IsZero() {
		u.LastLogin = now
	}

	applied, err := s.session.Query(`INSERT INTO users_by_email (email, user_id) VALUES (?, ?) IF NOT EXISTS`,
		u.Email, u.ID).WithContext(ctx).MapScanCAS(map[string]any{})
	if err != nil {
		return err
	}
	if !applied {
		return ErrUserExists
	}

	applied, err = s.session.Query(`INSERT INTO users (user_id, email, name, password, picture, provider, created_at, last_login)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?) IF NOT EXISTS`,
		u.ID, u.Email, u.Name, u.Password, u.Picture, u.Provider, u.CreatedAt, u.LastLogin).
		WithContext(ctx).MapScanCAS(map[string]any{})
	if err == nil && applied {
		return nil
	}
	release := s.session.Query(`DELETE FROM users_by_email WHERE email = ? IF user_id = ?`, u.Email, u.ID).
		WithContext(ctx)
	if _, relErr := release.MapScanCAS(map[string]any{}); relErr != nil && err == nil {
		err = relErr
	}
	if err != nil {
		return err
	}
	return ErrUserExists
}

// UserIDByEmail resolves an email to the internal user id.
func (s *UserStore) UserIDByEmail(ctx context.Context, email string) (string, error) {
	var userID string
	err := s.session.Query(`SELECT user_id FROM users_by_email WHERE email = ?`, normalizeEmail(email)).
		WithContext(ctx).Scan(&userID)
	if err != nil {
		return "", notFound(err)
	}
	return userID, nil
}

func (s *UserStore) GetUser(ctx context.Context, userID string) (*models.User, error) {
	u := &models.User{ID: userID}
	err := s.session.Query(`SELECT email, name, password, picture, provider, created_at, last_login
		FROM users WHERE user_id = ?`, userID).WithContext(ctx).
		Scan(&u.Email, &u.Name, &u.Password, &u.Picture, &u.Provider, &u.CreatedAt, &u.LastLogin)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

// UpsertLogin records a sign-in through the identity provider, creating the
// user on first login.
func (s *UserStore) UpsertLogin(ctx context.Context, u *models.User) (*models.User, error) {
	existing, err := s.GetUser(ctx, u.ID)
	switch {
	case err == nil:
		existing.LastLogin = time.Now().UTC()
		if u.Name != "" {
			existing.Name = u.Name
		}
		if u.Picture != "" {
			existing.Picture = u.Picture
		}
		err = s.session.Query(`UPDATE users SET name = ?, picture = ?, last_login = ? WHERE user_id = ?`,
			existing.Name, existing.Picture, existing.LastLogin, existing.ID).WithContext(ctx).Exec()
		if err != nil {
			return nil, err
		}
		return existing, nil
	case errors.Is(err, ErrNotFound):
		if err := s.CreateUser(ctx, u); err != nil {
			return nil, err
		}
		return u, nil
	default:
		return nil, err
	}
}
