package copilot

import "github.com/modelmux/modelmux/core/cost"

// Pricing in USD per million tokens, registered under the prefixed
// identifiers so the default pricing plan (the resolved model id) finds them
// directly.
func init() {
	cost.RegisterModelCost(modelPrefix+"gpt-4o", cost.ModelCost{
		InputCostPerMillion:  2.50,
		OutputCostPerMillion: 10.00,
	})
	cost.RegisterModelCost(modelPrefix+"gpt-4.1", cost.ModelCost{
		InputCostPerMillion:  2.00,
		OutputCostPerMillion: 8.00,
	})
	cost.RegisterModelCost(modelPrefix+"gpt-5", cost.ModelCost{
		InputCostPerMillion:  1.25,
		OutputCostPerMillion: 10.00,
	})
	cost.RegisterModelCost(modelPrefix+"gpt-5-mini", cost.ModelCost{
		InputCostPerMillion:  0.25,
		OutputCostPerMillion: 2.00,
	})
}
