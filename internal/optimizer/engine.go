package optimizer

import (
	"github.com/rs/zerolog"

	"github.com/donaldgifford/reopt/internal/config"
	"github.com/donaldgifford/reopt/internal/parser"
)

// Run applies each rule in order, piping the output of one as input to the
// next. It returns the rewritten AST and the candidates that were accepted.
// Rules the lint config turns off are skipped.
func Run(
	p parser.Pattern,
	root *parser.Node,
	cfg *config.Config,
	rules []Rule,
	log zerolog.Logger,
) (*parser.Node, []Candidate) {
	ctx := NewContext(p, &cfg.Optimizer, log.With().Str("pattern", p.String()).Logger())

	result := root
	for _, rule := range rules {
		if !cfg.Lint.RuleEnabled(rule.Name()) {
			continue
		}
		ctx.rule = rule.Name()
		result = rule.Optimize(result, ctx)
	}
	return result, ctx.Accepted()
}
