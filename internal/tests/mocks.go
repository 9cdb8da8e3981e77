package tests

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"checkoutbridge/internal/domain"
	"checkoutbridge/internal/redis"
	"checkoutbridge/internal/repository"
	"checkoutbridge/internal/service"
)

// NewTestLogger returns a logger that discards output.
func NewTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// ──────────────────────────────────────────────
// MOCK ORDER REPOSITORY
// ──────────────────────────────────────────────

// StatusUpdate records one UpdateStatus call.
type StatusUpdate struct {
	OrderID int64
	Status  domain.OrderStatus
}

// MockOrderRepository is a mock implementation of repository.OrderRepository.
type MockOrderRepository struct {
	mu      sync.RWMutex
	orders  map[int64]*domain.Order
	updates []StatusUpdate

	// Counters for verification
	GetCallCount    int32
	UpdateCallCount int32

	// Error injection
	GetError    error
	UpdateError error
}

// NewMockOrderRepository creates a new mock order repository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[int64]*domain.Order),
	}
}

// AddOrder adds an order to the mock repository.
func (m *MockOrderRepository) AddOrder(id int64, status domain.OrderStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[id] = &domain.Order{ID: id, Status: status}
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	atomic.AddInt32(&m.GetCallCount, 1)
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *order
	return &clone, nil
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	order.Status = status
	m.updates = append(m.updates, StatusUpdate{OrderID: id, Status: status})
	return nil
}

// Updates returns all successful status updates in call order.
func (m *MockOrderRepository) Updates() []StatusUpdate {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]StatusUpdate(nil), m.updates...)
}

// Status returns the stored status of an order for assertions.
func (m *MockOrderRepository) Status(id int64) domain.OrderStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if order, ok := m.orders[id]; ok {
		return order.Status
	}
	return ""
}

// ──────────────────────────────────────────────
// MOCK PAYMENT PROVIDER
// ──────────────────────────────────────────────

// TestSignature is the only signature MockPaymentProvider accepts.
const TestSignature = "t=1,v1=valid"

// MockPaymentProvider is a mock implementation of service.PaymentProvider.
// VerifyEvent decodes a Stripe-shaped event envelope when the signature
// equals TestSignature.
type MockPaymentProvider struct {
	mu       sync.Mutex
	requests []domain.SessionRequest

	// Returned by RetrieveSession.
	Session *domain.CheckoutSession

	// Counters for verification
	VerifyCallCount   int32
	CreateCallCount   int32
	RetrieveCallCount int32

	// Error injection
	CreateError   error
	RetrieveError error
}

// NewMockPaymentProvider creates a new mock payment provider.
func NewMockPaymentProvider() *MockPaymentProvider {
	return &MockPaymentProvider{}
}

type mockEventEnvelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			Object            string `json:"object"`
			ID                string `json:"id"`
			ClientReferenceID string `json:"client_reference_id"`
			Mode              string `json:"mode"`
			PaymentStatus     string `json:"payment_status"`
			Status            string `json:"status"`
			AmountTotal       int64  `json:"amount_total"`
			Currency          string `json:"currency"`
		} `json:"object"`
	} `json:"data"`
}

func (m *MockPaymentProvider) VerifyEvent(payload []byte, signature string) (*domain.Event, error) {
	atomic.AddInt32(&m.VerifyCallCount, 1)
	if signature != TestSignature {
		return nil, fmt.Errorf("%w: no signatures found matching the expected signature", service.ErrInvalidSignature)
	}

	var env mockEventEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, err
	}

	event := &domain.Event{ID: env.ID, Type: env.Type}
	if obj := env.Data.Object; obj.Object == "checkout.session" {
		event.Session = &domain.CheckoutSession{
			ID:                obj.ID,
			ClientReferenceID: obj.ClientReferenceID,
			Mode:              obj.Mode,
			PaymentStatus:     obj.PaymentStatus,
			Status:            obj.Status,
			AmountTotal:       obj.AmountTotal,
			Currency:          obj.Currency,
		}
	}
	return event, nil
}

func (m *MockPaymentProvider) CreateSession(ctx context.Context, req domain.SessionRequest) (*domain.CheckoutSession, error) {
	n := atomic.AddInt32(&m.CreateCallCount, 1)
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.CreateError != nil {
		return nil, m.CreateError
	}
	id := fmt.Sprintf("cs_test_%d", n)
	return &domain.CheckoutSession{
		ID:                id,
		URL:               "https://checkout.stripe.com/c/pay/" + id,
		ClientReferenceID: req.ClientReferenceID,
		Mode:              domain.SessionModePayment,
		AmountTotal:       req.Amount,
		Currency:          req.Currency,
	}, nil
}

func (m *MockPaymentProvider) RetrieveSession(ctx context.Context, sessionID string) (*domain.CheckoutSession, error) {
	atomic.AddInt32(&m.RetrieveCallCount, 1)
	if m.RetrieveError != nil {
		return nil, m.RetrieveError
	}
	if m.Session == nil || m.Session.ID != sessionID {
		return nil, fmt.Errorf("No such checkout.session: '%s'", sessionID)
	}
	clone := *m.Session
	return &clone, nil
}

// Requests returns the session requests received, in call order.
func (m *MockPaymentProvider) Requests() []domain.SessionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.SessionRequest(nil), m.requests...)
}

// ──────────────────────────────────────────────
// MOCK REDIS STORES
// ──────────────────────────────────────────────

// MockEventStore is an in-memory redis.EventStoreInterface.
type MockEventStore struct {
	mu     sync.Mutex
	claims map[string]bool

	ReleaseCallCount int32
	ClaimError       error
}

// NewMockEventStore creates a new mock event store.
func NewMockEventStore() *MockEventStore {
	return &MockEventStore{claims: make(map[string]bool)}
}

func (m *MockEventStore) Claim(ctx context.Context, eventID string) (bool, error) {
	if m.ClaimError != nil {
		return false, m.ClaimError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.claims[eventID] {
		return false, nil
	}
	m.claims[eventID] = true
	return true, nil
}

func (m *MockEventStore) Release(ctx context.Context, eventID string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.claims, eventID)
	return nil
}

// Claimed reports whether eventID is currently claimed.
func (m *MockEventStore) Claimed(eventID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.claims[eventID]
}

// MockLockStore is an in-memory redis.LockStoreInterface.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[int64]string
	seq   int

	AcquireError error
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{locks: make(map[int64]string)}
}

// Hold marks an order as locked by another holder.
func (m *MockLockStore) Hold(orderID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks[orderID] = "other"
}

func (m *MockLockStore) AcquireOrderLock(ctx context.Context, orderID int64, ttl time.Duration) (string, bool, error) {
	if m.AcquireError != nil {
		return "", false, m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, held := m.locks[orderID]; held {
		return "", false, nil
	}
	m.seq++
	token := fmt.Sprintf("token-%d", m.seq)
	m.locks[orderID] = token
	return token, true, nil
}

func (m *MockLockStore) ReleaseOrderLock(ctx context.Context, orderID int64, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[orderID] == token {
		delete(m.locks, orderID)
	}
	return nil
}

// Held reports whether an order is currently locked.
func (m *MockLockStore) Held(orderID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, held := m.locks[orderID]
	return held
}

// MockResponseStore is an in-memory redis.ResponseStoreInterface.
type MockResponseStore struct {
	mu        sync.Mutex
	responses map[string]*redis.CachedResponse
}

// NewMockResponseStore creates a new mock response store.
func NewMockResponseStore() *MockResponseStore {
	return &MockResponseStore{responses: make(map[string]*redis.CachedResponse)}
}

func (m *MockResponseStore) Get(ctx context.Context, key string) (*redis.CachedResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.responses[key], nil
}

func (m *MockResponseStore) Set(ctx context.Context, key string, response *redis.CachedResponse, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	body := append([]byte(nil), response.Body...)
	m.responses[key] = &redis.CachedResponse{
		StatusCode:  response.StatusCode,
		Body:        body,
		Headers:     response.Headers.Clone(),
		RequestHash: response.RequestHash,
	}
	return nil
}

// Ensure mocks implement interfaces.
var (
	_ repository.OrderRepository   = (*MockOrderRepository)(nil)
	_ service.PaymentProvider      = (*MockPaymentProvider)(nil)
	_ redis.EventStoreInterface    = (*MockEventStore)(nil)
	_ redis.LockStoreInterface     = (*MockLockStore)(nil)
	_ redis.ResponseStoreInterface = (*MockResponseStore)(nil)
)

// ──────────────────────────────────────────────
// EVENT FIXTURES
// ──────────────────────────────────────────────

// SessionEvent builds a checkout session event payload.
func SessionEvent(eventID, eventType, clientRef, mode, paymentStatus string) []byte {
	payload, _ := json.Marshal(map[string]any{
		"id":     eventID,
		"object": "event",
		"type":   eventType,
		"data": map[string]any{
			"object": map[string]any{
				"id":                  "cs_" + eventID,
				"object":              "checkout.session",
				"client_reference_id": clientRef,
				"mode":                mode,
				"payment_status":      paymentStatus,
				"status":              "complete",
				"amount_total":        5000,
				"currency":            "jpy",
			},
		},
	})
	return payload
}

// CompletedEvent builds a paid one-time payment completion for an order reference.
func CompletedEvent(eventID, clientRef string) []byte {
	return SessionEvent(eventID, domain.EventCheckoutSessionCompleted, clientRef, domain.SessionModePayment, domain.PaymentStatusPaid)
}
