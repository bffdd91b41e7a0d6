// Package pgraph is the program graph construction engine's entry point:
// it turns a Python or Java source file into a labeled, multi-edge
// directed graph of syntactic, control-flow, and data-flow relations for
// downstream representation-learning and bug-detection models.
package pgraph

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/gocodewalk/pgraph/astvisit"
	"github.com/gocodewalk/pgraph/graph"
	"github.com/gocodewalk/pgraph/lang/java"
	"github.com/gocodewalk/pgraph/lang/python"
	"github.com/gocodewalk/pgraph/relation"
	"github.com/gocodewalk/pgraph/source"
)

// Build parses src under the given language and runs the requested
// analyses (default {ast, cfg, dataflow}) over it, returning the resulting
// program graph. Failure is all-or-nothing: a partial graph is never
// returned.
func Build(src []byte, lang Language, opts ...Option) (*graph.Graph, error) {
	cfg := newConfig(opts...)

	if lang != Python && lang != Java {
		return nil, ErrUnsupportedLanguage
	}

	if err := validateAnalyses(lang, cfg.analyses); err != nil {
		return nil, err
	}

	tree, err := source.Parse(context.Background(), src, lang)
	if err != nil {
		return nil, fmt.Errorf("pgraph: %w", err)
	}
	root := tree.RootNode()
	code := src
	tokens := source.Tokens(root, code)

	if lang == Java && root.Type() == "ERROR" {
		// A bare method body is not a valid compilation unit on its own;
		// wrap it as a minimal class, re-parse, and narrow back down to
		// the method_declaration and its own tokens (§6's Java
		// preprocessing).
		wrapped := source.WrapJavaMethod(src)
		wrappedTree, werr := source.Parse(context.Background(), wrapped, lang)
		if werr == nil {
			if method, merr := source.ExtractMethodDeclaration(wrappedTree.RootNode()); merr == nil {
				if trimmed, terr := source.TrimWrapperTokens(source.Tokens(wrappedTree.RootNode(), wrapped)); terr == nil {
					root = method
					code = wrapped
					tokens = trimmed
				}
			}
		}
	}

	if len(tokens) == 0 {
		return nil, ErrEmptyProgram
	}

	var pending *SyntaxError
	if source.HasErrorNode(root) {
		synErr := newSyntaxError(lang, root)
		switch cfg.syntaxPolicy {
		case PolicyRaise:
			return nil, synErr
		case PolicyWarn:
			pending = synErr
		case PolicyIgnore:
			// fall through silently; ERROR nodes are pruned by the engine.
		}
	}

	g := graph.New()
	for _, tok := range tokens {
		g.AddToken(tok.Node, tok.Text)
	}

	runAnalyses(g, root, code, lang, cfg.analyses)

	if pending != nil {
		return g, pending
	}
	return g, nil
}

func validateAnalyses(lang Language, analyses []Analysis) error {
	for _, a := range analyses {
		switch a {
		case AnalysisAST, AnalysisCFG, AnalysisDataFlow:
			// valid for both languages
		case AnalysisSubCFG:
			if lang != Python {
				return fmt.Errorf("pgraph: %w: %q is Python-only", ErrUnknownAnalysis, a)
			}
		default:
			return fmt.Errorf("pgraph: %w: %q", ErrUnknownAnalysis, a)
		}
	}
	return nil
}

// runAnalyses executes the requested passes in the engine's fixed order
// (AST relations, then CFG, then data flow, then Python's finer Sub-CFG),
// matching §5's "write the same graph serially in a fixed order".
func runAnalyses(g *graph.Graph, root *sitter.Node, code []byte, lang Language, analyses []Analysis) {
	has := func(a Analysis) bool {
		for _, x := range analyses {
			if x == a {
				return true
			}
		}
		return false
	}

	if has(AnalysisAST) {
		emitter := relation.New(g, code)
		astvisit.New(emitter).Walk(root)
	}
	switch lang {
	case Python:
		if has(AnalysisCFG) {
			python.NewVisitor(g, code).Run(root)
		}
		if has(AnalysisDataFlow) {
			python.NewDataFlowVisitor(g, code).Run(root)
		}
		if has(AnalysisSubCFG) {
			python.NewSubVisitor(g, code).Run(root)
		}
	case Java:
		if has(AnalysisCFG) {
			java.NewVisitor(g, code).Run(root)
		}
		if has(AnalysisDataFlow) {
			java.NewDataFlowVisitor(g, code).Run(root)
		}
	}
}
