package handlers

import (
	"net/http"
	"testing"
	"time"

	"agromarket_back_end/internal/models"
	"agromarket_back_end/internal/order"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderRouter(orders *memOrders, notifier Notifier, userID string) *gin.Engine {
	h := NewOrderHandler(orders, notifier, order.DefaultShippingFee, nil)
	h.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }
	r := gin.New()
	r.Use(asUser(userID, "buyer@example.com"))
	r.POST("/api/orders", h.CreateOrder)
	r.GET("/api/orders/user/:userId", h.GetUserOrders)
	r.GET("/api/orders/:orderId", h.GetOrder)
	r.PUT("/api/orders/:orderId/status", h.UpdateStatus)
	return r
}

func orderPayload(total float64) gin.H {
	return gin.H{
		"userId": "user_1",
		"products": []gin.H{
			{"productId": "p1", "farmerId": "f1", "name": "Wheat", "price": 100, "quantity": 2},
			{"productId": "p2", "farmerId": "f1", "name": "Mango", "price": 50, "quantity": 1},
		},
		"shippingDetails": fullForm(),
		"totalAmount":     total,
	}
}

func TestCreateOrder(t *testing.T) {
	orders := newMemOrders()
	notifier := &recordingNotifier{}
	r := orderRouter(orders, notifier, "user_1")

	w := doJSON(t, r, http.MethodPost, "/api/orders", orderPayload(290))

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode[struct {
		Message string       `json:"message"`
		OrderID string       `json:"orderId"`
		Order   models.Order `json:"order"`
	}](t, w)
	assert.Equal(t, "Order created successfully", body.Message)
	assert.Equal(t, 290.0, body.Order.TotalAmount)
	assert.Equal(t, models.OrderStatusPending, body.Order.Status)
	assert.Contains(t, orders.orders, body.OrderID)
	require.Len(t, notifier.orders, 1)
}

func TestCreateOrder_TotalIsRecomputed(t *testing.T) {
	orders := newMemOrders()
	r := orderRouter(orders, nil, "user_1")

	w := doJSON(t, r, http.MethodPost, "/api/orders", orderPayload(0))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 290.0, decode[struct {
		Order models.Order `json:"order"`
	}](t, w).Order.TotalAmount)

	w = doJSON(t, r, http.MethodPost, "/api/orders", orderPayload(1))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), order.ErrTotalMismatch.Error())
	assert.Len(t, orders.orders, 1)
}

func TestCreateOrder_Validation(t *testing.T) {
	r := orderRouter(newMemOrders(), nil, "")

	tests := []struct {
		name   string
		mutate func(gin.H)
		want   int
	}{
		{"missing user", func(p gin.H) { delete(p, "userId") }, http.StatusBadRequest},
		{"no products", func(p gin.H) { p["products"] = []gin.H{} }, http.StatusBadRequest},
		{"missing shipping", func(p gin.H) { delete(p, "shippingDetails") }, http.StatusBadRequest},
		{"zero quantity", func(p gin.H) {
			p["products"] = []gin.H{{"productId": "p1", "farmerId": "f1", "price": 10, "quantity": 0}}
		}, http.StatusBadRequest},
		{"valid anonymous", func(gin.H) {}, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := orderPayload(0)
			tt.mutate(p)
			assert.Equal(t, tt.want, doJSON(t, r, http.MethodPost, "/api/orders", p).Code)
		})
	}
}

func TestCreateOrder_ForAnotherUserIsForbidden(t *testing.T) {
	r := orderRouter(newMemOrders(), nil, "user_2")

	w := doJSON(t, r, http.MethodPost, "/api/orders", orderPayload(290))

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGetOrders(t *testing.T) {
	orders := newMemOrders()
	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	orders.orders["o1"] = &models.Order{ID: "o1", UserID: "user_1", OrderDate: older, Status: models.OrderStatusPending}
	orders.orders["o2"] = &models.Order{ID: "o2", UserID: "user_1", OrderDate: older.Add(time.Hour), Status: models.OrderStatusPending}
	r := orderRouter(orders, nil, "user_1")

	w := doJSON(t, r, http.MethodGet, "/api/orders/user/user_1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]models.Order](t, w)
	require.Len(t, list, 2)
	assert.Equal(t, "o2", list[0].ID)

	assert.Equal(t, http.StatusForbidden, doJSON(t, r, http.MethodGet, "/api/orders/user/user_2", nil).Code)
	assert.Equal(t, http.StatusOK, doJSON(t, r, http.MethodGet, "/api/orders/o1", nil).Code)

	w = doJSON(t, r, http.MethodGet, "/api/orders/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"message":"Order not found"}`, w.Body.String())
}

func TestGetUserOrders_EmptyIsArray(t *testing.T) {
	r := orderRouter(newMemOrders(), nil, "user_1")

	w := doJSON(t, r, http.MethodGet, "/api/orders/user/user_1", nil)

	assert.Equal(t, "[]", w.Body.String())
}

func TestUpdateStatus(t *testing.T) {
	orders := newMemOrders()
	orders.orders["o1"] = &models.Order{ID: "o1", UserID: "user_1", Status: models.OrderStatusPending}
	r := orderRouter(orders, nil, "user_1")

	w := doJSON(t, r, http.MethodPut, "/api/orders/o1/status", gin.H{"status": "shipped"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.OrderStatusShipped, orders.orders["o1"].Status)

	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodPut, "/api/orders/o1/status", gin.H{"status": "lost"}).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodPut, "/api/orders/o1/status", gin.H{}).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, r, http.MethodPut, "/api/orders/o9/status", gin.H{"status": "shipped"}).Code)
}
