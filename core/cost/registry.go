package cost

import (
	"sort"
	"sync"
)

// The pricing registry maps model identifiers to their ModelCost. Provider
// packages register their pricing tables in init(), so any Manager can price
// usage for every model the process knows about.
var (
	pricingMu sync.RWMutex
	pricing   = make(map[string]ModelCost)
)

// RegisterModelCost stores the pricing for a model identifier. Registering the
// same model twice overwrites the earlier entry; the identifier is matched
// exactly, so callers decide whether to register prefixed or bare names.
func RegisterModelCost(model string, mc ModelCost) {
	pricingMu.Lock()
	defer pricingMu.Unlock()
	pricing[model] = mc
}

// LookupModelCost returns the registered pricing for a model identifier.
// The second return value reports whether pricing was found.
func LookupModelCost(model string) (ModelCost, bool) {
	pricingMu.RLock()
	defer pricingMu.RUnlock()
	mc, ok := pricing[model]
	return mc, ok
}

// RegisteredModels returns the sorted list of model identifiers with pricing.
func RegisteredModels() []string {
	pricingMu.RLock()
	defer pricingMu.RUnlock()

	models := make([]string, 0, len(pricing))
	for model := range pricing {
		models = append(models, model)
	}
	sort.Strings(models)
	return models
}
