package rules

import (
	"github.com/donaldgifford/reopt/internal/rules/optimize"
)

func init() {
	// Canonicalizer: classes first, so runs compare canonical atoms.
	RegisterOptimizeRule(&optimize.ClassShorthand{})
	RegisterOptimizeRule(&optimize.ClassSingle{})
	RegisterOptimizeRule(&optimize.ClassMembers{})
	RegisterOptimizeRule(&optimize.SurfaceSimplify{})

	// Merger.
	RegisterOptimizeRule(&optimize.RunMerge{})
}
