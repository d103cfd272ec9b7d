package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"agromarket_back_end/internal/cart"
	"agromarket_back_end/internal/middleware"
	"agromarket_back_end/internal/models"
	"agromarket_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/markbates/goth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userRouter(users *memUsers, sessions *memSessions, notifier Notifier) (*gin.Engine, *utils.TokenIssuer) {
	return userRouterAs("", users, sessions, notifier)
}

// userRouterAs serves the user routes to a caller signed in as callerID.
func userRouterAs(callerID string, users *memUsers, sessions *memSessions, notifier Notifier) (*gin.Engine, *utils.TokenIssuer) {
	issuer := utils.NewTokenIssuer("test-secret")
	h := NewUserHandler(users, sessions, issuer, notifier, nil)
	r := gin.New()
	r.Use(asUser(callerID, ""))
	r.POST("/api/users", h.CreateUser)
	r.POST("/api/auth/login", h.Login)
	r.GET("/getUserId/:email", h.GetUserID)
	return r, issuer
}

func TestCreateUser(t *testing.T) {
	users := newMemUsers()
	notifier := &recordingNotifier{}
	r, _ := userRouterAs("user_1234", users, newMemSessions(), notifier)

	w := doJSON(t, r, http.MethodPost, "/api/users", gin.H{
		"email": "asha@example.com", "name": "Asha", "sub": "google-oauth2|1234",
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.JSONEq(t, `{"message":"User created successfully","userId":"user_1234"}`, w.Body.String())
	assert.Equal(t, "google-oauth2", users.byID["user_1234"].Provider)
	assert.Equal(t, []string{"user_1234"}, notifier.welcome)

	w = doJSON(t, r, http.MethodPost, "/api/users", gin.H{"email": "asha@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"User already exists"}`, w.Body.String())
}

func TestCreateUser_SubjectRequiresThatIdentity(t *testing.T) {
	users := newMemUsers()
	victim, _ := userRouterAs("user_42", users, newMemSessions(), nil)
	require.Equal(t, http.StatusCreated, doJSON(t, victim, http.MethodPost, "/api/users",
		gin.H{"email": "victim@example.com", "sub": "google|42"}).Code)

	anonymous, _ := userRouter(users, newMemSessions(), nil)
	w := doJSON(t, anonymous, http.MethodPost, "/api/users",
		gin.H{"email": "attacker@example.com", "password": "takeover-1", "sub": "google|42"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	other, _ := userRouterAs("user_7", users, newMemSessions(), nil)
	w = doJSON(t, other, http.MethodPost, "/api/users",
		gin.H{"email": "attacker@example.com", "password": "takeover-1", "sub": "google|42"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, anonymous, http.MethodPost, "/api/users", gin.H{"email": "attacker@example.com", "sub": "google|"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	assert.Equal(t, "victim@example.com", users.byID["user_42"].Email)
	assert.Empty(t, users.byID["user_42"].Password)
	assert.NotContains(t, users.byEmail, "attacker@example.com")
	w = doJSON(t, anonymous, http.MethodPost, "/api/auth/login", gin.H{"email": "attacker@example.com", "password": "takeover-1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateUser_ExistingIDIsNotOverwritten(t *testing.T) {
	users := newMemUsers()
	r, _ := userRouterAs("user_42", users, newMemSessions(), nil)
	require.Equal(t, http.StatusCreated, doJSON(t, r, http.MethodPost, "/api/users",
		gin.H{"email": "first@example.com", "sub": "google|42"}).Code)

	w := doJSON(t, r, http.MethodPost, "/api/users",
		gin.H{"email": "second@example.com", "password": "harvest-2024", "sub": "google|42"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"User already exists"}`, w.Body.String())
	assert.Equal(t, "first@example.com", users.byID["user_42"].Email)
	assert.NotContains(t, users.byEmail, "second@example.com")
}

func TestCreateUser_HashesPassword(t *testing.T) {
	users := newMemUsers()
	r, _ := userRouter(users, newMemSessions(), nil)

	w := doJSON(t, r, http.MethodPost, "/api/users", gin.H{"email": "ravi@example.com", "password": "harvest-2024"})
	require.Equal(t, http.StatusCreated, w.Code)

	id := users.byEmail["ravi@example.com"]
	assert.Regexp(t, `^user_[0-9a-f-]{36}$`, id)
	stored := users.byID[id].Password
	assert.True(t, utils.IsArgon2Hash(stored))
	assert.NotContains(t, stored, "harvest-2024")
}

func TestCreateUser_Validation(t *testing.T) {
	r, _ := userRouter(newMemUsers(), newMemSessions(), nil)

	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodPost, "/api/users", gin.H{}).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodPost, "/api/users", gin.H{"email": "not-an-email"}).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodPost, "/api/users", gin.H{"email": "a@b.co", "password": "short"}).Code)
}

func TestGetUserID(t *testing.T) {
	users := newMemUsers()
	require.NoError(t, users.CreateUser(context.Background(), &models.User{ID: "user_1", Email: "a@b.co"}))
	r, _ := userRouter(users, newMemSessions(), nil)

	w := doJSON(t, r, http.MethodGet, "/getUserId/a@b.co", nil)
	assert.JSONEq(t, `{"userId":"user_1"}`, w.Body.String())

	w = doJSON(t, r, http.MethodGet, "/getUserId/nobody@b.co", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLogin(t *testing.T) {
	users := newMemUsers()
	sessions := newMemSessions()
	r, issuer := userRouter(users, sessions, nil)
	require.Equal(t, http.StatusCreated, doJSON(t, r, http.MethodPost, "/api/users",
		gin.H{"email": "ravi@example.com", "name": "Ravi", "password": "harvest-2024"}).Code)

	w := doJSON(t, r, http.MethodPost, "/api/auth/login", gin.H{"email": "ravi@example.com", "password": "harvest-2024"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[struct {
		Token string         `json:"token"`
		User  models.Session `json:"user"`
	}](t, w)
	claims, err := issuer.ParseJWT(body.Token)
	require.NoError(t, err)
	assert.Equal(t, body.User.UserID, claims.UserID)
	assert.Equal(t, "Ravi", sessions.sessions[claims.UserID].Name)

	tests := []struct {
		name string
		body gin.H
		want int
	}{
		{"wrong password", gin.H{"email": "ravi@example.com", "password": "nope-nope"}, http.StatusUnauthorized},
		{"unknown email", gin.H{"email": "x@example.com", "password": "harvest-2024"}, http.StatusUnauthorized},
		{"missing password", gin.H{"email": "ravi@example.com"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, doJSON(t, r, http.MethodPost, "/api/auth/login", tt.body).Code)
		})
	}
}

func TestLogin_ProviderAccountHasNoPassword(t *testing.T) {
	users := newMemUsers()
	require.NoError(t, users.CreateUser(context.Background(), &models.User{ID: "user_9", Email: "g@example.com", Provider: "google"}))
	r, _ := userRouter(users, newMemSessions(), nil)

	w := doJSON(t, r, http.MethodPost, "/api/auth/login", gin.H{"email": "g@example.com", "password": "whatever1"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "google")
}

// --- identity provider ---

func authRouter(h *AuthHandler, issuer *utils.TokenIssuer, sessions *memSessions) *gin.Engine {
	r := gin.New()
	r.GET("/api/auth/:provider", h.BeginAuth)
	r.GET("/api/auth/:provider/callback", h.CallbackAuth)
	protected := r.Group("", middleware.AuthRequired(issuer, nil, h.log))
	protected.POST("/api/auth/logout", h.Logout)
	protected.GET("/api/auth/me", h.Me)
	return r
}

func TestCallbackAuth_UpsertsUserAndIssuesToken(t *testing.T) {
	users := newMemUsers()
	sessions := newMemSessions()
	issuer := utils.NewTokenIssuer("test-secret")
	h := NewAuthHandler(users, sessions, cart.NewMemorySlot(), issuer, nil)
	var provider string
	h.complete = func(_ http.ResponseWriter, r *http.Request) (goth.User, error) {
		provider = r.URL.Query().Get("provider")
		return goth.User{Provider: "google", UserID: "1234", Email: "asha@example.com", Name: "Asha"}, nil
	}
	r := authRouter(h, issuer, sessions)

	w := doJSON(t, r, http.MethodGet, "/api/auth/google/callback?state=x", nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "google", provider)
	assert.Equal(t, "asha@example.com", users.byID["user_1234"].Email)
	assert.Equal(t, models.Session{UserID: "user_1234", Email: "asha@example.com", Name: "Asha"}, sessions.sessions["user_1234"])
}

func TestCallbackAuth_ProviderFailure(t *testing.T) {
	issuer := utils.NewTokenIssuer("test-secret")
	h := NewAuthHandler(newMemUsers(), newMemSessions(), cart.NewMemorySlot(), issuer, nil)
	h.complete = func(http.ResponseWriter, *http.Request) (goth.User, error) {
		return goth.User{}, errors.New("state mismatch")
	}
	r := authRouter(h, issuer, nil)

	assert.Equal(t, http.StatusUnauthorized, doJSON(t, r, http.MethodGet, "/api/auth/google/callback", nil).Code)
}

func TestBeginAuth_PassesProvider(t *testing.T) {
	issuer := utils.NewTokenIssuer("test-secret")
	h := NewAuthHandler(newMemUsers(), newMemSessions(), cart.NewMemorySlot(), issuer, nil)
	h.begin = func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "https://accounts.example/"+r.URL.Query().Get("provider"), http.StatusTemporaryRedirect)
	}
	r := authRouter(h, issuer, nil)

	w := doJSON(t, r, http.MethodGet, "/api/auth/google", nil)

	assert.Equal(t, "https://accounts.example/google", w.Header().Get("Location"))
}

func TestLogout_RevokesTokenAndClearsState(t *testing.T) {
	sessions := newMemSessions()
	slot := cart.NewMemorySlot()
	issuer := utils.NewTokenIssuer("test-secret")
	h := NewAuthHandler(newMemUsers(), sessions, slot, issuer, nil)
	h.logout = func(http.ResponseWriter, *http.Request) error { return nil }
	r := authRouter(h, issuer, sessions)

	token, claims, err := issuer.GenerateJWT(models.User{ID: "user_1", Email: "a@b.co"})
	require.NoError(t, err)
	sessions.sessions["user_1"] = models.Session{UserID: "user_1"}
	seedCart(t, slot, "user_1")

	w := doJSONWithToken(t, r, http.MethodGet, "/api/auth/me", token)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSONWithToken(t, r, http.MethodPost, "/api/auth/logout", token)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Contains(t, sessions.revoked, claims.ID)
	assert.Positive(t, sessions.revoked[claims.ID])
	assert.NotContains(t, sessions.sessions, "user_1")
	_, ok, _ := slot.Load(context.Background(), "user_1")
	assert.False(t, ok)

	w = doJSONWithToken(t, r, http.MethodGet, "/api/auth/me", token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
