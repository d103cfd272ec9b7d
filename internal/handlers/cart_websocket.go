package handlers

import (
	"context"
	"net/http"
	"time"

	"agromarket_back_end/internal/cart"
	"agromarket_back_end/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	wsPingInterval = 30 * time.Second
	wsWriteTimeout = 10 * time.Second
)

// CartEvents delivers the change notifications published by cart.RedisSlot.
type CartEvents interface {
	Subscribe(ctx context.Context, owner string) *redis.PubSub
}

type CartSocket struct {
	slot     cart.Slot
	events   CartEvents
	fee      decimal.Decimal
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewCartSocket accepts upgrades from any origin listed in allowedOrigins;
// an empty list accepts every origin.
func NewCartSocket(slot cart.Slot, events CartEvents, fee decimal.Decimal, allowedOrigins []string, log *zap.Logger) *CartSocket {
	return &CartSocket{
		slot:   slot,
		events: events,
		fee:    fee,
		log:    orNopLogger(log),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if len(allowedOrigins) == 0 {
					return true
				}
				origin := r.Header.Get("Origin")
				for _, o := range allowedOrigins {
					if o == origin {
						return true
					}
				}
				return false
			},
		},
	}
}

type cartMessage struct {
	Type string `json:"type"`
	cartResponse
}

// Serve pushes the caller's cart every time it changes, from any device.
func (h *CartSocket) Serve(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Not authenticated"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	log := h.log.With(zap.String("user_id", userID))

	pubsub := h.events.Subscribe(ctx, userID)
	defer pubsub.Close()
	// wait for the subscription so no change is missed after the first push
	if _, err := pubsub.Receive(ctx); err != nil {
		log.Warn("cart subscription failed", zap.Error(err))
		return
	}

	// the read loop only notices the client going away
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	if err := h.push(ctx, conn, userID, "connected"); err != nil {
		return
	}

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if msg.Payload != cart.EventUpdated && msg.Payload != cart.EventCleared {
				continue
			}
			if err := h.push(ctx, conn, userID, "cart_updated"); err != nil {
				log.Debug("websocket write failed", zap.Error(err))
				return
			}
		case <-ping.C:
			deadline := time.Now().Add(wsWriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

func (h *CartSocket) push(ctx context.Context, conn *websocket.Conn, userID, kind string) error {
	s, err := cart.Open(ctx, userID, h.slot, h.log)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(cartMessage{Type: kind, cartResponse: cartView(s, h.fee)})
}
