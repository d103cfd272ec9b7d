package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"agromarket_back_end/internal/models"
	"agromarket_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type revokedSet map[string]bool

func (r revokedSet) IsTokenRevoked(_ context.Context, id string) (bool, error) {
	return r[id], nil
}

func protectedRouter(issuer *utils.TokenIssuer, revoked Revocations) *gin.Engine {
	r := gin.New()
	r.GET("/me", AuthRequired(issuer, revoked, zap.NewNop()), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString(ContextUserID), "email": c.GetString(ContextEmail)})
	})
	return r
}

func TestAuthRequired(t *testing.T) {
	issuer := utils.NewTokenIssuer("secret")
	token, claims, err := issuer.GenerateJWT(models.User{ID: "user_1", Email: "a@b.c"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		header  string
		revoked revokedSet
		want    int
	}{
		{"valid", "Bearer " + token, nil, http.StatusOK},
		{"lowercase scheme", "bearer " + token, nil, http.StatusOK},
		{"missing", "", nil, http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, nil, http.StatusUnauthorized},
		{"garbage", "Bearer abc.def.ghi", nil, http.StatusUnauthorized},
		{"revoked", "Bearer " + token, revokedSet{claims.ID: true}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var revoked Revocations
			if tt.revoked != nil {
				revoked = tt.revoked
			}
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			protectedRouter(issuer, revoked).ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				assert.JSONEq(t, `{"user_id":"user_1","email":"a@b.c"}`, w.Body.String())
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	issuer := utils.NewTokenIssuer("secret")
	token, _, err := issuer.GenerateJWT(models.User{ID: "user_1"})
	require.NoError(t, err)
	r := gin.New()
	r.GET("/", OptionalAuth(issuer), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextUserID))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	assert.Equal(t, "user_1", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}

type memCounter struct {
	counts map[string]int64
	err    error
}

func (m *memCounter) Hit(_ context.Context, key string, _ time.Duration) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.counts[key]++
	return m.counts[key], nil
}

func (m *memCounter) TTL(context.Context, string) time.Duration { return 42 * time.Second }

func TestRateLimit_BlocksAfterLimit(t *testing.T) {
	counter := &memCounter{counts: map[string]int64{}}
	r := gin.New()
	r.GET("/", RateLimit(counter, "test", 2, time.Minute, ByIP, zap.NewNop()), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	codes := make([]int, 3)
	for i := range codes {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes[i] = w.Code
		if i == 2 {
			assert.Equal(t, "42", w.Header().Get("Retry-After"))
			assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
		}
	}

	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
}

func TestRateLimit_FailsOpen(t *testing.T) {
	counter := &memCounter{err: errors.New("redis down")}
	r := gin.New()
	r.GET("/", RateLimit(counter, "test", 1, time.Minute, ByIP, zap.NewNop()), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestCartRateLimit_SkipsAnonymous(t *testing.T) {
	counter := &memCounter{counts: map[string]int64{}}
	r := gin.New()
	r.POST("/", CartRateLimit(counter, zap.NewNop()), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, counter.counts)
}
