package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"agromarket_back_end/internal/middleware"
	"agromarket_back_end/internal/models"
	"agromarket_back_end/internal/store"
	"agromarket_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionStore keeps signed-in identities and revoked token ids.
type SessionStore interface {
	StoreSession(ctx context.Context, s models.Session) error
	Session(ctx context.Context, userID string) (models.Session, bool, error)
	DeleteSession(ctx context.Context, userID string) error
	RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error
}

type UserHandler struct {
	users    UserRepository
	sessions SessionStore
	issuer   *utils.TokenIssuer
	notifier Notifier
	log      *zap.Logger
}

func NewUserHandler(users UserRepository, sessions SessionStore, issuer *utils.TokenIssuer, notifier Notifier, log *zap.Logger) *UserHandler {
	return &UserHandler{users: users, sessions: sessions, issuer: issuer, notifier: orNop(notifier), log: orNopLogger(log)}
}

type createUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name"`
	Password string `json:"password" binding:"omitempty,min=8"`
	Picture  string `json:"picture"`
	// Sub is the identity provider subject when the account comes from one.
	// It is only accepted from a caller signed in as that identity.
	Sub string `json:"sub"`
}

// CreateUser registers an account. The id is derived from the provider
// subject when given, otherwise generated.
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "A valid email is required")
		return
	}

	if linked := utils.InternalUserID(req.Sub); req.Sub != "" && (linked == "" || c.GetString(middleware.ContextUserID) != linked) {
		c.JSON(http.StatusForbidden, gin.H{"message": "Sign in with the identity provider to link this account"})
		return
	}

	u := &models.User{
		ID:      utils.InternalUserID(req.Sub),
		Name:    strings.TrimSpace(req.Name),
		Email:   req.Email,
		Picture: req.Picture,
	}
	if u.ID == "" {
		u.ID = "user_" + uuid.NewString()
	}
	if req.Sub != "" {
		if provider, _, found := strings.Cut(req.Sub, "|"); found {
			u.Provider = provider
		}
	}
	if req.Password != "" {
		hash, err := utils.HashPassword(req.Password)
		if err != nil {
			serverError(c, h.log, "Server error", err)
			return
		}
		u.Password = hash
	}

	if err := h.users.CreateUser(c.Request.Context(), u); err != nil {
		if errors.Is(err, store.ErrUserExists) {
			badRequest(c, store.ErrUserExists.Error())
			return
		}
		serverError(c, h.log, "Server error", err)
		return
	}

	h.log.Info("user created", zap.String("user_id", u.ID))
	h.notifier.Welcome(*u)
	c.JSON(http.StatusCreated, gin.H{"message": "User created successfully", "userId": u.ID})
}

// GetUserID resolves an email address to the internal user id.
func (h *UserHandler) GetUserID(c *gin.Context) {
	userID, err := h.users.UserIDByEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		lookupError(c, h.log, "User not found", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"userId": userID})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login signs in an account created with a password.
func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Email and password are required")
		return
	}

	ctx := c.Request.Context()
	userID, err := h.users.UserIDByEmail(ctx, req.Email)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password"})
		return
	}
	if err != nil {
		serverError(c, h.log, "Server error", err)
		return
	}
	u, err := h.users.GetUser(ctx, userID)
	if err != nil {
		lookupError(c, h.log, "User not found", err)
		return
	}

	if u.Password == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "This account signs in with " + providerName(u.Provider)})
		return
	}
	ok, err := utils.VerifyPassword(req.Password, u.Password)
	if err != nil {
		h.log.Error("stored password hash is unreadable", zap.String("user_id", u.ID), zap.Error(err))
	}
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password"})
		return
	}

	signIn(c, h.issuer, h.sessions, h.log, *u)
}

func providerName(provider string) string {
	if provider == "" {
		return "an identity provider"
	}
	return provider
}

// signIn stores the session and answers with a fresh token.
func signIn(c *gin.Context, issuer *utils.TokenIssuer, sessions SessionStore, log *zap.Logger, u models.User) {
	token, claims, err := issuer.GenerateJWT(u)
	if err != nil {
		serverError(c, log, "Failed to issue token", err)
		return
	}
	session := models.Session{UserID: u.ID, Email: u.Email, Name: u.Name}
	if err := sessions.StoreSession(c.Request.Context(), session); err != nil {
		serverError(c, log, "Failed to store session", err)
		return
	}

	log.Info("user signed in", zap.String("user_id", u.ID), zap.String("provider", u.Provider))
	c.JSON(http.StatusOK, gin.H{
		"token":     token,
		"expiresAt": claims.ExpiresAt.Time,
		"user":      session,
	})
}
