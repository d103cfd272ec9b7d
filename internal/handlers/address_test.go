package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"agromarket_back_end/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memAddresses struct {
	addresses []models.Address
	err       error
}

func (m *memAddresses) CreateAddress(_ context.Context, a *models.Address) error {
	if m.err != nil {
		return m.err
	}
	a.ID = "addr-1"
	m.addresses = append(m.addresses, *a)
	return nil
}

func (m *memAddresses) ListByUser(_ context.Context, userID string) ([]models.Address, error) {
	var out []models.Address
	for _, a := range m.addresses {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, m.err
}

func addressRouter(addresses *memAddresses, userID string) *gin.Engine {
	h := NewAddressHandler(addresses, nil)
	h.now = func() time.Time { return time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC) }
	r := gin.New()
	r.Use(asUser(userID, ""))
	r.POST("/api/addresses", h.CreateAddress)
	r.GET("/api/addresses", h.ListAddresses)
	r.GET("/api/addresses/user/:userId", h.ListUserAddresses)
	return r
}

func addressPayload() gin.H {
	return gin.H{
		"userId": "someone_else", "firstName": "Asha", "lastName": "K", "address1": "1 MG Road",
		"state": "MH", "zip": "411001", "phone": "9999999999",
	}
}

func TestCreateAddress_UsesTokenUser(t *testing.T) {
	addresses := &memAddresses{}
	r := addressRouter(addresses, "user_1")

	w := doJSON(t, r, http.MethodPost, "/api/addresses", addressPayload())

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Len(t, addresses.addresses, 1)
	assert.Equal(t, "user_1", addresses.addresses[0].UserID)
	assert.Equal(t, "addr-1", addresses.addresses[0].ID)
	assert.Equal(t, 2024, addresses.addresses[0].CreatedAt.Year())
}

func TestCreateAddress_Errors(t *testing.T) {
	r := addressRouter(&memAddresses{}, "user_1")
	p := addressPayload()
	delete(p, "zip")
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodPost, "/api/addresses", p).Code)

	failing := addressRouter(&memAddresses{err: errors.New("scylla down")}, "user_1")
	assert.Equal(t, http.StatusInternalServerError, doJSON(t, failing, http.MethodPost, "/api/addresses", addressPayload()).Code)
}

func TestListUserAddresses(t *testing.T) {
	addresses := &memAddresses{addresses: []models.Address{
		{ID: "a1", UserID: "user_1"},
		{ID: "a2", UserID: "user_2"},
	}}
	r := addressRouter(addresses, "user_1")

	w := doJSON(t, r, http.MethodGet, "/api/addresses/user/user_1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]models.Address](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, "a1", list[0].ID)

	assert.Equal(t, http.StatusForbidden, doJSON(t, r, http.MethodGet, "/api/addresses/user/user_2", nil).Code)

	empty := addressRouter(&memAddresses{}, "user_3")
	assert.Equal(t, "[]", doJSON(t, empty, http.MethodGet, "/api/addresses/user/user_3", nil).Body.String())
}

func TestListAddresses_OnlyCallersAddresses(t *testing.T) {
	addresses := &memAddresses{addresses: []models.Address{
		{ID: "a1", UserID: "user_1"},
		{ID: "a2", UserID: "user_2"},
		{ID: "a3", UserID: "user_1"},
	}}

	w := doJSON(t, addressRouter(addresses, "user_1"), http.MethodGet, "/api/addresses", nil)

	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]models.Address](t, w)
	require.Len(t, list, 2)
	for _, a := range list {
		assert.Equal(t, "user_1", a.UserID)
	}

	assert.Equal(t, http.StatusUnauthorized, doJSON(t, addressRouter(addresses, ""), http.MethodGet, "/api/addresses", nil).Code)
}
