package gateway

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/bugielektrik/orchestra-pay/internal/payment/domain"
)

// MockGateway is a deterministic, in-process stand-in for a real
// processor, used by the demo host and integration-shaped tests. It
// never makes a network call; its failure behaviour is scripted so
// tests can exercise the retry policy and circuit breaker precisely.
type MockGateway struct {
	name string

	// FailureMode, when non-nil, is consulted on every Process call;
	// returning nil means succeed.
	FailureMode func(attempt int) error

	mu       sync.Mutex
	attempts map[string]int
}

// NewMockGateway constructs a MockGateway that always succeeds unless
// FailureMode is set after construction.
func NewMockGateway(name string) *MockGateway {
	return &MockGateway{name: name, attempts: make(map[string]int)}
}

func (g *MockGateway) Name() string { return g.name }

func (g *MockGateway) Authenticate(_ context.Context, payment domain.Payment) (AuthResult, error) {
	return AuthResult{AuthToken: "tok_" + payment.ID}, nil
}

func (g *MockGateway) Initiate(_ context.Context, payment domain.Payment) (InitiateResult, error) {
	return InitiateResult{GatewayTransactionID: fmt.Sprintf("txn_%s_%d", payment.ID, time.Now().UnixNano())}, nil
}

func (g *MockGateway) Process(_ context.Context, payment domain.Payment) (ProcessResult, error) {
	g.mu.Lock()
	g.attempts[payment.ID]++
	attempt := g.attempts[payment.ID]
	g.mu.Unlock()

	if g.FailureMode != nil {
		if err := g.FailureMode(attempt); err != nil {
			return ProcessResult{}, err
		}
	}
	return ProcessResult{
		Success:       true,
		TransactionID: fmt.Sprintf("txn_%s_%d", payment.ID, rand.Int63()),
	}, nil
}
