package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"agromarket_back_end/internal/catalog"
	"agromarket_back_end/internal/middleware"
	"agromarket_back_end/internal/models"
	"agromarket_back_end/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := RegisterValidators(); err != nil {
		panic(err)
	}
}

// asUser stands in for AuthRequired.
func asUser(userID, email string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Set(middleware.ContextEmail, email)
		c.Next()
	}
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// --- catalog ---

type fakeCatalog struct {
	products    []models.Product
	err         error
	invalidated int
}

func (f *fakeCatalog) Products(context.Context) ([]models.Product, error) {
	return f.products, f.err
}

func (f *fakeCatalog) Product(_ context.Context, id string) (models.Product, bool, error) {
	if f.err != nil {
		return models.Product{}, false, f.err
	}
	for _, p := range f.products {
		if p.ID == id {
			return p, true, nil
		}
	}
	return models.Product{}, false, nil
}

func (f *fakeCatalog) Search(_ context.Context, q catalog.Query) ([]models.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	return catalog.Apply(f.products, q), nil
}

func (f *fakeCatalog) Invalidate(context.Context) { f.invalidated++ }

func ptr[T any](v T) *T { return &v }

func catalogFixture() []models.Product {
	return []models.Product{
		{ID: "p1", FarmerID: "f1", FarmerName: "Ravi", Name: "Wheat", Category: "Grains", Price: 100, Location: "Punjab", Rating: ptr(4.0), PaymentOptions: []string{"UPI"}},
		{ID: "p2", FarmerID: "f1", FarmerName: "Ravi", Name: "Mango", Category: "Fruits", Price: 50, Location: "Goa", Rating: ptr(5.0)},
		{ID: "p3", FarmerID: "f2", FarmerName: "Asha", Name: "Rice", Category: "Grains", Price: 75, Location: "Kerala", PaymentOptions: []string{"Cash on Delivery"}},
	}
}

// --- farmers ---

type memFarmers struct {
	farmers map[string]*models.Farmer
	nextID  int
	err     error
}

func newMemFarmers() *memFarmers { return &memFarmers{farmers: map[string]*models.Farmer{}} }

func (m *memFarmers) CreateFarmer(_ context.Context, f *models.Farmer) error {
	if m.err != nil {
		return m.err
	}
	m.nextID++
	f.ID = "farmer-" + string(rune('0'+m.nextID))
	cp := *f
	m.farmers[f.ID] = &cp
	return nil
}

func (m *memFarmers) ListFarmers(context.Context) ([]models.Farmer, error) {
	var out []models.Farmer
	for _, f := range m.farmers {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, m.err
}

func (m *memFarmers) GetFarmer(_ context.Context, id string) (*models.Farmer, error) {
	f, ok := m.farmers[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *f
	cp.Crops = append([]models.Crop(nil), f.Crops...)
	return &cp, nil
}

func (m *memFarmers) UpdateCrops(_ context.Context, id string, crops []models.Crop) error {
	f, ok := m.farmers[id]
	if !ok {
		return store.ErrNotFound
	}
	f.Crops = crops
	return nil
}

// --- orders ---

type memOrders struct {
	mu     sync.Mutex
	orders map[string]*models.Order
	err    error
}

func newMemOrders() *memOrders { return &memOrders{orders: map[string]*models.Order{}} }

func (m *memOrders) CreateOrder(_ context.Context, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	cp := *o
	m.orders[o.ID] = &cp
	return nil
}

func (m *memOrders) GetOrder(_ context.Context, id string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memOrders) ListByUser(_ context.Context, userID string) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderDate.After(out[j].OrderDate) })
	return out, m.err
}

func (m *memOrders) UpdateStatus(_ context.Context, id, status string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	o.Status = status
	cp := *o
	return &cp, nil
}

// --- users and sessions ---

type memUsers struct {
	byID    map[string]*models.User
	byEmail map[string]string
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]*models.User{}, byEmail: map[string]string{}}
}

func (m *memUsers) CreateUser(_ context.Context, u *models.User) error {
	if _, ok := m.byEmail[u.Email]; ok {
		return store.ErrUserExists
	}
	if _, ok := m.byID[u.ID]; ok {
		return store.ErrUserExists
	}
	cp := *u
	m.byID[u.ID] = &cp
	m.byEmail[u.Email] = u.ID
	return nil
}

func (m *memUsers) UserIDByEmail(_ context.Context, email string) (string, error) {
	id, ok := m.byEmail[email]
	if !ok {
		return "", store.ErrNotFound
	}
	return id, nil
}

func (m *memUsers) GetUser(_ context.Context, id string) (*models.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) UpsertLogin(ctx context.Context, u *models.User) (*models.User, error) {
	if existing, ok := m.byID[u.ID]; ok {
		existing.Name = u.Name
		cp := *existing
		return &cp, nil
	}
	if err := m.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

type memSessions struct {
	sessions map[string]models.Session
	revoked  map[string]time.Duration
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: map[string]models.Session{}, revoked: map[string]time.Duration{}}
}

func (m *memSessions) StoreSession(_ context.Context, s models.Session) error {
	m.sessions[s.UserID] = s
	return nil
}

func (m *memSessions) Session(_ context.Context, userID string) (models.Session, bool, error) {
	s, ok := m.sessions[userID]
	return s, ok, nil
}

func (m *memSessions) DeleteSession(_ context.Context, userID string) error {
	delete(m.sessions, userID)
	return nil
}

func (m *memSessions) RevokeToken(_ context.Context, id string, ttl time.Duration) error {
	m.revoked[id] = ttl
	return nil
}

// --- notifications ---

type placedNotice struct {
	orderID string
	email   string
}

type recordingNotifier struct {
	mu      sync.Mutex
	orders  []placedNotice
	welcome []string
}

func (r *recordingNotifier) OrderPlaced(o models.Order, email string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = append(r.orders, placedNotice{orderID: o.ID, email: email})
}

func (r *recordingNotifier) Welcome(u models.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.welcome = append(r.welcome, u.ID)
}

func doJSONWithToken(t *testing.T, r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
