package pgraph

import "github.com/gocodewalk/pgraph/source"

// Language identifies which tree-sitter grammar Build parses source with.
type Language = source.Language

// Supported languages.
const (
	Python = source.Python
	Java   = source.Java
)

// Analysis names one of the visitor passes Build can run.
type Analysis string

const (
	AnalysisAST      Analysis = "ast"
	AnalysisCFG      Analysis = "cfg"
	AnalysisDataFlow Analysis = "dataflow"
	AnalysisSubCFG   Analysis = "subcfg" // Python only
)

// defaultAnalyses is {ast, cfg, dataflow}; subcfg is opt-in.
func defaultAnalyses() []Analysis {
	return []Analysis{AnalysisAST, AnalysisCFG, AnalysisDataFlow}
}

// Policy governs how Build reacts to a syntax error in the parsed source.
type Policy int

const (
	// PolicyRaise returns the SyntaxError to the caller and builds no graph.
	PolicyRaise Policy = iota
	// PolicyWarn returns the graph built up to and around ERROR nodes
	// (which the AST Visitor Engine prunes) alongside the SyntaxError.
	PolicyWarn
	// PolicyIgnore builds the graph silently; ERROR nodes are pruned.
	PolicyIgnore
)

// config accumulates the options Build was called with.
type config struct {
	analyses     []Analysis
	syntaxPolicy Policy
}

// Option configures a Build call.
type Option func(*config)

// WithAnalyses restricts Build to exactly the given analyses, in place of
// the default {ast, cfg, dataflow}.
func WithAnalyses(analyses ...Analysis) Option {
	return func(c *config) { c.analyses = analyses }
}

// WithSyntaxErrorPolicy overrides the default PolicyRaise.
func WithSyntaxErrorPolicy(p Policy) Option {
	return func(c *config) { c.syntaxPolicy = p }
}

func newConfig(opts ...Option) *config {
	c := &config{analyses: defaultAnalyses(), syntaxPolicy: PolicyRaise}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *config) has(a Analysis) bool {
	for _, x := range c.analyses {
		if x == a {
			return true
		}
	}
	return false
}
