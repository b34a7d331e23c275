// Package cost defines pricing structures and usage accounting used across
// modelmux to track the monetary cost of model inference.
//
// The main types are [ModelCost] for per-token pricing (including cached and
// reasoning-token rates) and [Manager] for accumulating token usage and cost
// across calls against a spending ceiling. Provider packages register their
// pricing tables with [RegisterModelCost], typically from init(), and a
// Manager prices each call through [LookupModelCost].
package cost
