package router

import (
	"testing"

	"github.com/bugielektrik/orchestra-pay/internal/payment/domain"
	"github.com/bugielektrik/orchestra-pay/internal/payment/metrics"
)

func TestRouter_RuleOverrideWins(t *testing.T) {
	m := metrics.NewCollector(10)
	m.Record("stripe", true, 100, 0.1)
	m.Record("razorpay", true, 50, 0.05)

	rules := []Rule{
		{Name: "high-value-to-stripe", Priority: 10, Gateway: "stripe", Predicate: func(ctx Context) bool {
			return ctx.Amount > 1000
		}},
	}
	r := New([]string{"stripe", "razorpay"}, rules, DefaultScoringWeights(), m)

	decision, err := r.Select(Context{Amount: 5000}, []string{"stripe", "razorpay"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if decision.Gateway != "stripe" || decision.Fallback {
		t.Fatalf("decision = %+v, want stripe via rule", decision)
	}
}

func TestRouter_ScoringPicksHealthiestGateway(t *testing.T) {
	m := metrics.NewCollector(10)
	for i := 0; i < 10; i++ {
		m.Record("flaky", i%2 == 0, 500, 0.1)
	}
	for i := 0; i < 10; i++ {
		m.Record("reliable", true, 100, 0.1)
	}

	r := New([]string{"flaky", "reliable"}, nil, DefaultScoringWeights(), m)
	decision, err := r.Select(Context{Amount: 10}, []string{"flaky", "reliable"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if decision.Gateway != "reliable" {
		t.Fatalf("decision.Gateway = %s, want reliable", decision.Gateway)
	}
}

func TestRouter_Determinism(t *testing.T) {
	m := metrics.NewCollector(10)
	m.Record("a", true, 100, 0.1)
	m.Record("b", true, 120, 0.1)

	ctx := Context{Amount: 42, Currency: domain.USD}
	r := New([]string{"a", "b"}, nil, DefaultScoringWeights(), m)

	first, _ := r.Select(ctx, []string{"a", "b"})
	for i := 0; i < 5; i++ {
		again, _ := r.Select(ctx, []string{"a", "b"})
		if again != first {
			t.Fatalf("Select is non-deterministic: %+v vs %+v", again, first)
		}
	}
}

func TestRouter_FallbackWhenNoneAvailable(t *testing.T) {
	m := metrics.NewCollector(10)
	r := New([]string{"a", "b"}, nil, DefaultScoringWeights(), m)

	decision, err := r.Select(Context{}, nil)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if !decision.Fallback || decision.Gateway != "a" {
		t.Fatalf("decision = %+v, want fallback to first registered gateway", decision)
	}
}
