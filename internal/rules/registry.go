// Package rules manages registration of optimization rules.
package rules

import (
	"github.com/donaldgifford/reopt/internal/optimizer"
)

var optimizeRules []optimizer.Rule

// RegisterOptimizeRule adds an optimization rule to the registry.
// Rules are applied in the order they are registered.
func RegisterOptimizeRule(r optimizer.Rule) {
	optimizeRules = append(optimizeRules, r)
}

// OptimizeRules returns all registered optimization rules in execution order.
func OptimizeRules() []optimizer.Rule {
	return optimizeRules
}

// Names returns the names of all registered rules in execution order.
func Names() []string {
	names := make([]string, len(optimizeRules))
	for i, r := range optimizeRules {
		names[i] = r.Name()
	}
	return names
}
