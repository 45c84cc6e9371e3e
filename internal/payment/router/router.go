// Package router selects the gateway a payment is processed through,
// by declarative rule priority first, then a weighted health score.
package router

import (
	"github.com/bugielektrik/orchestra-pay/internal/payment/domain"
	"github.com/bugielektrik/orchestra-pay/internal/payment/metrics"
	"github.com/bugielektrik/orchestra-pay/pkg/errors"
)

// Context is the routing context a Rule predicate and the scoring
// function both see.
type Context struct {
	Amount        float64
	Currency      domain.Currency
	PaymentMethod domain.PaymentMethodType
	Country       string
	MerchantID    string
	Metadata      map[string]any
}

// Rule is a declarative override evaluated in descending Priority.
// Predicate is pure over Context; the first matching rule whose
// Gateway is available wins.
type Rule struct {
	Name      string
	Priority  int
	Predicate func(Context) bool
	Gateway   string
}

// ScoringWeights controls the weighted-score fallback.
type ScoringWeights struct {
	SuccessRate float64
	Latency     float64
	Cost        float64
}

// DefaultScoringWeights matches the (0.5, 0.3, 0.2) split.
func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{SuccessRate: 0.5, Latency: 0.3, Cost: 0.2}
}

// Decision is the router's output: the selected gateway plus whether
// it was chosen as a last-resort fallback.
type Decision struct {
	Gateway  string
	Fallback bool
	Reason   string
}

// Router holds the registered gateways (in registration order, for
// deterministic tie-breaking and fallback selection), the rule set,
// and scoring weights.
type Router struct {
	gateways []string
	rules    []Rule
	weights  ScoringWeights
	metrics  *metrics.Collector
}

// New constructs a Router. gateways must list every gateway in the
// order it should be considered for tie-breaking and fallback.
func New(gateways []string, rules []Rule, weights ScoringWeights, collector *metrics.Collector) *Router {
	sorted := append([]Rule(nil), rules...)
	sortRulesByPriorityDesc(sorted)
	return &Router{
		gateways: append([]string(nil), gateways...),
		rules:    sorted,
		weights:  weights,
		metrics:  collector,
	}
}

func sortRulesByPriorityDesc(rules []Rule) {
	for i := 1; i < len(rules); i++ {
		for j := i; j > 0 && rules[j].Priority > rules[j-1].Priority; j-- {
			rules[j], rules[j-1] = rules[j-1], rules[j]
		}
	}
}

// Select returns a gateway for ctx given the set of currently
// available gateways (i.e. not circuit-OPEN). Deterministic: the same
// rules, metrics, and context always produce the same decision.
func (r *Router) Select(ctx Context, available []string) (Decision, error) {
	availableSet := make(map[string]bool, len(available))
	for _, gw := range available {
		availableSet[gw] = true
	}

	for _, rule := range r.rules {
		if rule.Predicate(ctx) && availableSet[rule.Gateway] {
			return Decision{Gateway: rule.Gateway, Reason: "rule:" + rule.Name}, nil
		}
	}

	if len(available) == 0 {
		if len(r.gateways) == 0 {
			return Decision{}, errors.ErrNoGatewayAvailable
		}
		return Decision{Gateway: r.gateways[0], Fallback: true, Reason: "no gateway available"}, nil
	}

	best := ""
	bestScore := -1.0
	for _, gw := range r.gateways {
		if !availableSet[gw] {
			continue
		}
		score := r.score(gw)
		if score > bestScore {
			bestScore = score
			best = gw
		}
	}
	return Decision{Gateway: best, Reason: "scored"}, nil
}

func (r *Router) score(gateway string) float64 {
	snap := r.metrics.Snapshot(gateway)
	latencyTerm := 1 - snap.AvgLatencyMs/5000
	if latencyTerm < 0 {
		latencyTerm = 0
	}
	costTerm := 1 - snap.AvgCost/1.0
	if costTerm < 0 {
		costTerm = 0
	}
	return r.weights.SuccessRate*snap.SuccessRate + r.weights.Latency*latencyTerm + r.weights.Cost*costTerm
}
