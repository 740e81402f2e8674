package tests

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/juan345ot/GoTaxi-sub000/internal/domain"
	"github.com/juan345ot/GoTaxi-sub000/internal/redis"
	"github.com/juan345ot/GoTaxi-sub000/internal/repository"
	"github.com/juan345ot/GoTaxi-sub000/internal/service"
)

// ──────────────────────────────────────────────
// MOCK TRIP REPOSITORY
// ──────────────────────────────────────────────

// MockTripRepository is a mock implementation of TripRepository. Its
// Update honors the expected-status check atomically, which is what the
// concurrency tests lean on.
type MockTripRepository struct {
	mu    sync.RWMutex
	trips map[string]*domain.Trip

	// Counters for verification
	CreateCallCount int32
	UpdateCallCount int32

	// Error injection
	CreateError error
	UpdateError error
	GetError    error
}

// NewMockTripRepository creates a new mock trip repository.
func NewMockTripRepository() *MockTripRepository {
	return &MockTripRepository{
		trips: make(map[string]*domain.Trip),
	}
}

// AddTrip seeds a trip into the mock repository.
func (m *MockTripRepository) AddTrip(trip *domain.Trip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[trip.ID] = trip
}

func (m *MockTripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *trip
	m.trips[trip.ID] = &copy
	return nil
}

func (m *MockTripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	trip, ok := m.trips[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *trip
	return &copy, nil
}

func (m *MockTripRepository) GetByFilter(ctx context.Context, filter repository.TripFilter, page repository.Page) ([]*domain.Trip, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matches []*domain.Trip
	for _, t := range m.trips {
		if filter.PassengerID != "" && t.PassengerID != filter.PassengerID {
			continue
		}
		if filter.DriverID != "" && t.DriverID != filter.DriverID {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		copy := *t
		matches = append(matches, &copy)
	}

	total := len(matches)
	if page.Offset >= total {
		return nil, total, nil
	}
	end := total
	if page.Limit > 0 && page.Offset+page.Limit < end {
		end = page.Offset + page.Limit
	}
	return matches[page.Offset:end], total, nil
}

func (m *MockTripRepository) Update(ctx context.Context, trip *domain.Trip, expectedStatus domain.TripStatus) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.trips[trip.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Status != expectedStatus {
		return repository.ErrStaleState
	}
	copy := *trip
	m.trips[trip.ID] = &copy
	return nil
}

func (m *MockTripRepository) GetActiveByPassengerID(ctx context.Context, passengerID string) (*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.trips {
		if t.PassengerID != passengerID || t.IsTerminal() {
			continue
		}
		copy := *t
		return &copy, nil
	}
	return nil, nil
}

// GetTrip returns the trip by ID (for test assertions).
func (m *MockTripRepository) GetTrip(id string) *domain.Trip {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.trips[id]
}

// CountTrips returns the number of trips.
func (m *MockTripRepository) CountTrips() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.trips)
}

// ──────────────────────────────────────────────
// MOCK USER REPOSITORY
// ──────────────────────────────────────────────

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User

	// Error injection
	GetError error
}

// NewMockUserRepository creates a new mock user repository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]*domain.User),
	}
}

// AddUser seeds a user into the mock repository.
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *user
	return &copy, nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

// ──────────────────────────────────────────────
// MOCK NOTIFIER
// ──────────────────────────────────────────────

// MockNotifier records the events pushed to each user.
type MockNotifier struct {
	mu     sync.Mutex
	events map[string][]service.Event

	// Error injection
	NotifyError error
}

// NewMockNotifier creates a new mock notifier.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{events: make(map[string][]service.Event)}
}

func (m *MockNotifier) Notify(ctx context.Context, userID string, event service.Event) error {
	if m.NotifyError != nil {
		return m.NotifyError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[userID] = append(m.events[userID], event)
	return nil
}

// EventsFor returns the events recorded for a user.
func (m *MockNotifier) EventsFor(userID string) []service.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]service.Event(nil), m.events[userID]...)
}

// ──────────────────────────────────────────────
// MOCK LOCKER
// ──────────────────────────────────────────────

// MockLocker serializes keyed operations in memory with the same
// bounded-wait contract as the Redis lock store.
type MockLocker struct {
	mu   sync.Mutex
	held map[string]string
	next int64
}

// NewMockLocker creates a new in-memory locker.
func NewMockLocker() *MockLocker {
	return &MockLocker{held: make(map[string]string)}
}

func (m *MockLocker) Acquire(ctx context.Context, key string) (string, error) {
	deadline := time.Now().Add(500 * time.Millisecond)
	for {
		m.mu.Lock()
		if _, taken := m.held[key]; !taken {
			token := strconv.FormatInt(atomic.AddInt64(&m.next, 1), 10)
			m.held[key] = token
			m.mu.Unlock()
			return token, nil
		}
		m.mu.Unlock()

		if time.Now().After(deadline) {
			return "", redis.ErrLockNotAcquired
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(2 * time.Millisecond):
		}
	}
}

func (m *MockLocker) Release(ctx context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[key] == token {
		delete(m.held, key)
	}
	return nil
}

// Ensure mocks satisfy their interfaces.
var (
	_ repository.TripRepository = (*MockTripRepository)(nil)
	_ repository.UserRepository = (*MockUserRepository)(nil)
	_ service.Notifier          = (*MockNotifier)(nil)
	_ redis.LockerInterface     = (*MockLocker)(nil)
)
