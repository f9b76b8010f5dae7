package payment

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// DefaultSuccessRate is the per-instrument approval probability used when none is configured.
const DefaultSuccessRate = 0.8

// ApprovalPolicy decides whether a single instrument is approved.
type ApprovalPolicy interface {
	Approve(ctx context.Context, in Instrument) bool
}

type PolicyFunc func(ctx context.Context, in Instrument) bool

func (f PolicyFunc) Approve(ctx context.Context, in Instrument) bool { return f(ctx, in) }

// AlwaysApprove and AlwaysDecline are deterministic policies for tests and demos.
var (
	AlwaysApprove ApprovalPolicy = PolicyFunc(func(context.Context, Instrument) bool { return true })
	AlwaysDecline ApprovalPolicy = PolicyFunc(func(context.Context, Instrument) bool { return false })
)

// RandomPolicy approves each instrument independently with a fixed probability.
type RandomPolicy struct {
	mu          sync.Mutex
	random      *rand.Rand
	successRate float64
}

// NewRandomPolicy seeds from the clock when seed is zero.
func NewRandomPolicy(successRate float64, seed int64) *RandomPolicy {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	p := &RandomPolicy{random: rand.New(rand.NewSource(seed))}
	p.SetSuccessRate(successRate)
	return p
}

// Approve ignores ctx: a decision once requested is always made, so a caller
// going away cannot turn into a decline.
func (p *RandomPolicy) Approve(_ context.Context, _ Instrument) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.random.Float64() < p.successRate
}

// SetSuccessRate clamps rate into [0, 1].
func (p *RandomPolicy) SetSuccessRate(rate float64) {
	p.mu.Lock()
	if rate < 0 {
		rate = 0
	}
	if rate > 1 {
		rate = 1
	}
	p.successRate = rate
	p.mu.Unlock()
}

func (p *RandomPolicy) SuccessRate() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.successRate
}
