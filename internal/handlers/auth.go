package handlers

import (
	"net/http"

	"agromarket_back_end/internal/cart"
	"agromarket_back_end/internal/middleware"
	"agromarket_back_end/internal/models"
	"agromarket_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"go.uber.org/zap"
)

// AuthHandler signs users in through an identity provider and out again.
type AuthHandler struct {
	users    UserRepository
	sessions SessionStore
	slot     cart.Slot
	issuer   *utils.TokenIssuer
	log      *zap.Logger

	begin    func(w http.ResponseWriter, r *http.Request)
	complete func(w http.ResponseWriter, r *http.Request) (goth.User, error)
	logout   func(w http.ResponseWriter, r *http.Request) error
}

func NewAuthHandler(users UserRepository, sessions SessionStore, slot cart.Slot, issuer *utils.TokenIssuer, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		users:    users,
		sessions: sessions,
		slot:     slot,
		issuer:   issuer,
		log:      orNopLogger(log),
		begin:    gothic.BeginAuthHandler,
		complete: gothic.CompleteUserAuth,
		logout:   gothic.Logout,
	}
}

// withProvider exposes the :provider path segment where gothic looks for it.
func withProvider(c *gin.Context) bool {
	provider := c.Param("provider")
	if provider == "" {
		badRequest(c, "No provider specified")
		return false
	}
	q := c.Request.URL.Query()
	q.Set("provider", provider)
	c.Request.URL.RawQuery = q.Encode()
	return true
}

func (h *AuthHandler) BeginAuth(c *gin.Context) {
	if !withProvider(c) {
		return
	}
	h.begin(c.Writer, c.Request)
}

// CallbackAuth finishes the provider login, records the user under the
// internal id derived from the provider subject and returns an API token.
func (h *AuthHandler) CallbackAuth(c *gin.Context) {
	if !withProvider(c) {
		return
	}
	gu, err := h.complete(c.Writer, c.Request)
	if err != nil {
		h.log.Warn("oauth callback failed", zap.String("provider", c.Param("provider")), zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication failed"})
		return
	}

	userID := utils.InternalUserID(gu.Provider + "|" + gu.UserID)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Provider returned no user id"})
		return
	}
	name := gu.Name
	if name == "" {
		name = gu.NickName
	}

	u, err := h.users.UpsertLogin(c.Request.Context(), &models.User{
		ID:       userID,
		Name:     name,
		Email:    gu.Email,
		Picture:  gu.AvatarURL,
		Provider: gu.Provider,
	})
	if err != nil {
		serverError(c, h.log, "Failed to record login", err)
		return
	}

	signIn(c, h.issuer, h.sessions, h.log, *u)
}

// Me returns the stored session of the caller.
func (h *AuthHandler) Me(c *gin.Context) {
	session, ok, err := h.sessions.Session(c.Request.Context(), c.GetString(middleware.ContextUserID))
	if err != nil {
		serverError(c, h.log, "Server error", err)
		return
	}
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Session expired, please sign in again"})
		return
	}
	c.JSON(http.StatusOK, session)
}

// Logout revokes the presented token and clears the session and cart.
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.GetString(middleware.ContextUserID)

	if claims, ok := middleware.ClaimsFrom(c); ok && claims.ID != "" {
		if err := h.sessions.RevokeToken(ctx, claims.ID, h.issuer.Remaining(claims)); err != nil {
			serverError(c, h.log, "Failed to log out", err)
			return
		}
	}
	if err := h.sessions.DeleteSession(ctx, userID); err != nil {
		h.log.Warn("session not deleted at logout", zap.String("user_id", userID), zap.Error(err))
	}
	if err := cart.New(userID, h.slot, h.log).Clear(ctx); err != nil {
		h.log.Warn("cart not cleared at logout", zap.String("user_id", userID), zap.Error(err))
	}
	_ = h.logout(c.Writer, c.Request)

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}
