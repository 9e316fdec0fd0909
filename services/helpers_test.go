package services

import (
	"context"
	"sync"

	"github.com/LeeRude11/delivery/models"
	"github.com/stretchr/testify/mock"
)

type MockPublisher struct{ mock.Mock }

func (m *MockPublisher) Publish(ctx context.Context, key string, event interface{}) error {
	args := m.Called(ctx, key, event)
	return args.Error(0)
}

func (m *MockPublisher) Close() error { return nil }

// countingMetrics records metric names; recordAsync calls it from goroutines.
type countingMetrics struct {
	mu     sync.Mutex
	counts map[string]int
	done   chan string
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{counts: map[string]int{}, done: make(chan string, 64)}
}

func (m *countingMetrics) RecordCount(_ context.Context, name string, _ map[string]string) error {
	m.mu.Lock()
	m.counts[name]++
	m.mu.Unlock()
	m.done <- name
	return nil
}

func (m *countingMetrics) RecordValue(_ context.Context, name string, _ float64, _ map[string]string) error {
	return m.RecordCount(context.Background(), name, nil)
}

func contact(phone, email string) models.ContactDetails {
	return models.ContactDetails{
		PhoneNumber: phone,
		FirstName:   "Ada",
		SecondName:  "Lovelace",
		Street:      "Baker St",
		House:       "221b",
		Email:       email,
	}
}

const testPassword = "tasty-pizza-42"

func registerRequest(phone, email string) *models.RegisterRequest {
	return &models.RegisterRequest{
		ContactDetails: contact(phone, email),
		Password1:      testPassword,
		Password2:      testPassword,
	}
}
