package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"agromarket_back_end/internal/models"

	"go.uber.org/zap"
)

// ErrAuthRequired is returned by Add when the store has no owner.
var ErrAuthRequired = errors.New("cart: sign in to add items")

// Event is delivered to subscribers after every change.
type Event struct {
	Type  string            `json:"type"`
	Items []models.CartItem `json:"items"`
}

// Store is one owner's cart. Each mutation is persisted to the slot and then
// announced to subscribers. A Store is not safe for concurrent use.
type Store struct {
	owner string
	slot  Slot
	log   *zap.Logger

	items       []models.CartItem
	subscribers map[int]func(Event)
	nextSub     int
}

// New returns an empty store for owner. An empty owner means no signed-in
// user: reads work, Add is refused.
func New(owner string, slot Slot, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		owner:       owner,
		slot:        slot,
		log:         log,
		items:       []models.CartItem{},
		subscribers: make(map[int]func(Event)),
	}
}

// Open returns a store for owner already restored from the slot.
func Open(ctx context.Context, owner string, slot Slot, log *zap.Logger) (*Store, error) {
	s := New(owner, slot, log)
	if err := s.Restore(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Owner() string { return s.owner }

// Items returns a copy of the cart contents in insertion order.
func (s *Store) Items() []models.CartItem {
	out := make([]models.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) Len() int { return len(s.items) }

// Contains reports whether productID is in the cart.
func (s *Store) Contains(productID string) bool {
	return s.index(productID) >= 0
}

// Add appends product with quantity 1. Adding a product that is already in
// the cart changes nothing.
func (s *Store) Add(ctx context.Context, p models.Product) error {
	if s.owner == "" {
		return ErrAuthRequired
	}
	if s.Contains(p.ID) {
		return nil
	}
	s.items = append(s.items, models.CartItem{
		ProductID: p.ID,
		FarmerID:  p.FarmerID,
		Name:      p.Name,
		Price:     p.Price,
		Image:     p.Image,
		Quantity:  1,
	})
	return s.commit(ctx)
}

// Remove drops productID from the cart, if present.
func (s *Store) Remove(ctx context.Context, productID string) error {
	i := s.index(productID)
	if i < 0 {
		return nil
	}
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	return s.commit(ctx)
}

// SetQuantity replaces the quantity of productID. n < 1 and unknown products
// are ignored.
func (s *Store) SetQuantity(ctx context.Context, productID string, n int) error {
	if n < 1 {
		return nil
	}
	i := s.index(productID)
	if i < 0 || s.items[i].Quantity == n {
		return nil
	}
	s.items[i].Quantity = n
	return s.commit(ctx)
}

// Clear empties the cart and deletes it from the slot.
func (s *Store) Clear(ctx context.Context) error {
	s.items = []models.CartItem{}
	if s.owner != "" {
		if err := s.slot.Delete(ctx, s.owner); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
	}
	s.notify(EventCleared)
	return nil
}

// Persist writes the whole cart to the slot as a JSON array.
func (s *Store) Persist(ctx context.Context) error {
	if s.owner == "" {
		return nil
	}
	data, err := json.Marshal(s.items)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.slot.Save(ctx, s.owner, string(data)); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// Restore replaces the in-memory cart with the slot contents. Missing or
// unreadable data leaves an empty cart; only slot transport errors are
// returned.
func (s *Store) Restore(ctx context.Context) error {
	s.items = []models.CartItem{}
	if s.owner == "" {
		return nil
	}

	data, ok, err := s.slot.Load(ctx, s.owner)
	if err != nil {
		return fmt.Errorf("load cart: %w", err)
	}
	if !ok || data == "" {
		return nil
	}

	items, err := Decode(data)
	if err != nil {
		s.log.Error("stored cart is corrupt, starting empty",
			zap.String("user_id", s.owner),
			zap.Error(err))
		return nil
	}
	s.items = items
	return nil
}

// Decode parses a persisted cart, dropping entries without a product id or
// with a quantity below 1 and keeping the first entry of any duplicate id.
func Decode(data string) ([]models.CartItem, error) {
	var raw []models.CartItem
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return nil, err
	}
	items := make([]models.CartItem, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, item := range raw {
		if item.ProductID == "" || item.Quantity < 1 || seen[item.ProductID] {
			continue
		}
		seen[item.ProductID] = true
		items = append(items, item)
	}
	return items, nil
}

// Subscribe registers fn for change events and returns a func that removes it.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn
	return func() { delete(s.subscribers, id) }
}

func (s *Store) commit(ctx context.Context) error {
	if err := s.Persist(ctx); err != nil {
		return err
	}
	s.notify(EventUpdated)
	return nil
}

func (s *Store) notify(kind string) {
	if len(s.subscribers) == 0 {
		return
	}
	ev := Event{Type: kind, Items: s.Items()}
	for _, fn := range s.subscribers {
		fn(ev)
	}
}

func (s *Store) index(productID string) int {
	for i := range s.items {
		if s.items[i].ProductID == productID {
			return i
		}
	}
	return -1
}
