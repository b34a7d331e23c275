package cost

import "sync"

// DefaultMaxBudget is the spending ceiling in USD applied when a Manager is
// created without an explicit budget.
const DefaultMaxBudget = 10.0

// Summary is a point-in-time snapshot of a Manager's accumulated usage.
type Summary struct {
	// TotalPromptTokens is the accumulated number of prompt tokens
	TotalPromptTokens int `json:"total_prompt_tokens"` // #nosec G101 -- Not a credential, token refers to LLM tokens

	// TotalCompletionTokens is the accumulated number of completion tokens
	TotalCompletionTokens int `json:"total_completion_tokens"` // #nosec G101 -- Not a credential, token refers to LLM tokens

	// TotalCost is the accumulated cost in USD across all priced calls
	TotalCost float64 `json:"total_cost"`

	// MaxBudget is the configured spending ceiling in USD (0 disables the check)
	MaxBudget float64 `json:"max_budget"`
}

// Manager accumulates token usage and monetary cost across calls. It is safe
// for concurrent use by multiple providers sharing one budget.
//
// Token totals grow on every update; cost grows only when pricing for the
// model is registered, so unknown models are still visible in token counts.
type Manager struct {
	mu                    sync.Mutex
	totalPromptTokens     int
	totalCompletionTokens int
	totalCost             float64
	maxBudget             float64
}

// NewManager creates a Manager with the given spending ceiling in USD.
// A negative budget falls back to [DefaultMaxBudget]; zero disables the
// budget check entirely.
func NewManager(maxBudget float64) *Manager {
	if maxBudget < 0 {
		maxBudget = DefaultMaxBudget
	}
	return &Manager{maxBudget: maxBudget}
}

// UpdateCost records usage from one completed call. Token counts accumulate
// unconditionally; the call cost is computed from the registered pricing for
// model and added to the running total.
//
// It returns the cost of this call in USD and whether pricing was found.
// When the usage is empty or the model is blank nothing is recorded and
// priced is true (there was nothing to price). Callers typically log a
// warning when priced is false.
func (m *Manager) UpdateCost(model string, promptTokens, completionTokens int) (callCost float64, priced bool) {
	if promptTokens+completionTokens == 0 || model == "" {
		return 0, true
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalPromptTokens += promptTokens
	m.totalCompletionTokens += completionTokens

	mc, ok := LookupModelCost(model)
	if !ok {
		return 0, false
	}

	callCost = mc.CalculateInputCost(promptTokens) + mc.CalculateOutputCost(completionTokens)
	m.totalCost += callCost
	return callCost, true
}

// TotalPromptTokens returns the accumulated prompt token count.
func (m *Manager) TotalPromptTokens() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totalPromptTokens
}

// TotalCompletionTokens returns the accumulated completion token count.
func (m *Manager) TotalCompletionTokens() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totalCompletionTokens
}

// TotalCost returns the accumulated cost in USD.
func (m *Manager) TotalCost() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totalCost
}

// MaxBudget returns the configured spending ceiling in USD.
func (m *Manager) MaxBudget() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxBudget
}

// OverBudget reports whether the accumulated cost has exceeded the ceiling.
// Always false when the budget is zero (disabled).
func (m *Manager) OverBudget() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxBudget > 0 && m.totalCost > m.maxBudget
}

// Costs returns a snapshot of the accumulated totals.
func (m *Manager) Costs() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Summary{
		TotalPromptTokens:     m.totalPromptTokens,
		TotalCompletionTokens: m.totalCompletionTokens,
		TotalCost:             m.totalCost,
		MaxBudget:             m.maxBudget,
	}
}
