package ai

import (
	"sync"
	"time"

	"github.com/pkoukk/tiktoken-go"
)

// Fixed per-1000-token prices used for cost estimation.
const (
	inputCostPer1K  = 0.00015
	outputCostPer1K = 0.0006
)

// CostTracker accounts for estimated API spend across all analysis runs in
// the process. Daily counters reset when the wall-clock date advances. All
// methods are safe for concurrent use.
type CostTracker struct {
	mu                sync.Mutex
	totalCost         float64
	dailyCost         float64
	requestCount      int
	dailyRequestCount int
	lastReset         time.Time

	dailyLimit float64
	encoder    *tiktoken.Tiktoken
	now        func() time.Time
}

// CostStats is a point-in-time snapshot of the tracker.
type CostStats struct {
	TotalCost            float64   `json:"total_cost"`
	DailyCost            float64   `json:"daily_cost"`
	TotalRequests        int       `json:"total_requests"`
	DailyRequests        int       `json:"daily_requests"`
	LastReset            time.Time `json:"last_reset"`
	DailyLimit           float64   `json:"daily_limit"`
	RemainingDailyBudget float64   `json:"remaining_daily_budget"`
}

// NewCostTrackerParams configures a CostTracker.
//
// DailyLimit is the daily spending ceiling in currency units; zero or
// negative disables enforcement. Encoding names a tiktoken encoding used for
// token counting; when it cannot be loaded the tracker falls back to a
// deterministic one-token-per-four-characters approximation.
type NewCostTrackerParams struct {
	DailyLimit float64
	Encoding   string
}

// NewCostTracker creates a tracker. It is intended to be constructed once
// per process and shared by every analysis run.
func NewCostTracker(params NewCostTrackerParams) *CostTracker {
	var encoder *tiktoken.Tiktoken
	if params.Encoding != "" {
		if enc, err := tiktoken.GetEncoding(params.Encoding); err == nil {
			encoder = enc
		}
	}

	return &CostTracker{
		lastReset:  time.Now(),
		dailyLimit: params.DailyLimit,
		encoder:    encoder,
		now:        time.Now,
	}
}

// CountTokens estimates the token count of text.
func (t *CostTracker) CountTokens(text string) int {
	if t.encoder != nil {
		return len(t.encoder.Encode(text, nil, nil))
	}
	return len(text) / 4
}

// EstimateCost computes the estimated cost of a call from input and output
// token counts using the fixed price table.
func (t *CostTracker) EstimateCost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)/1000*inputCostPer1K + float64(outputTokens)/1000*outputCostPer1K
}

// CheckBudget returns a *BudgetExceededError when the daily spend has
// reached the ceiling. It must be called before every remote call; a cache
// hit never reaches it.
func (t *CostTracker) CheckBudget() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.resetDailyIfNeeded()

	if t.dailyLimit > 0 && t.dailyCost >= t.dailyLimit {
		return &BudgetExceededError{DailyCost: t.dailyCost, Limit: t.dailyLimit}
	}
	return nil
}

// AddCost records the estimated cost of one billed call.
func (t *CostTracker) AddCost(cost float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.resetDailyIfNeeded()

	t.totalCost += cost
	t.dailyCost += cost
	t.requestCount++
	t.dailyRequestCount++
}

// Stats returns a snapshot of the tracker's counters.
func (t *CostTracker) Stats() CostStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	remaining := 0.0
	if t.dailyLimit > 0 {
		remaining = max(0, t.dailyLimit-t.dailyCost)
	}

	return CostStats{
		TotalCost:            t.totalCost,
		DailyCost:            t.dailyCost,
		TotalRequests:        t.requestCount,
		DailyRequests:        t.dailyRequestCount,
		LastReset:            t.lastReset,
		DailyLimit:           t.dailyLimit,
		RemainingDailyBudget: remaining,
	}
}

// resetDailyIfNeeded zeroes the daily counters when the date has advanced.
// Caller must hold t.mu.
func (t *CostTracker) resetDailyIfNeeded() {
	now := t.now()
	ly, lm, ld := t.lastReset.Date()
	ny, nm, nd := now.Date()
	if ly == ny && lm == nm && ld == nd {
		return
	}
	t.dailyCost = 0
	t.dailyRequestCount = 0
	t.lastReset = now
}
