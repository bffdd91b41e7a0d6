// Package source is the thin tokenization/parsing glue the entry
// orchestrator depends on: it hands the core visitors a tree-sitter parse
// tree and an ordered token sequence. Kept intentionally small — the spec
// treats parsing itself as an external collaborator.
package source

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/python"
)

// ErrUnsupportedLanguage is returned by Parse for any lang other than
// Python or Java.
type ErrUnsupportedLanguage struct{ Lang Language }

func (e *ErrUnsupportedLanguage) Error() string {
	return fmt.Sprintf("source: language not supported: %q", string(e.Lang))
}

func grammarFor(lang Language) (*sitter.Language, error) {
	switch lang {
	case Python:
		return python.GetLanguage(), nil
	case Java:
		return java.GetLanguage(), nil
	default:
		return nil, &ErrUnsupportedLanguage{Lang: lang}
	}
}

// Parse parses code with the grammar for lang, returning the tree-sitter
// parse tree. Callers are responsible for checking the tree's root for
// ERROR nodes according to their syntax-error policy.
func Parse(ctx context.Context, code []byte, lang Language) (*sitter.Tree, error) {
	grammar, err := grammarFor(lang)
	if err != nil {
		return nil, err
	}
	parser := sitter.NewParser()
	parser.SetLanguage(grammar)
	tree, err := parser.ParseCtx(ctx, nil, code)
	if err != nil {
		return nil, fmt.Errorf("source: parse: %w", err)
	}
	return tree, nil
}

// HasErrorNode reports whether root (or any descendant) is an ERROR node,
// used to implement the syntax_error raise/warn/ignore policy.
func HasErrorNode(root *sitter.Node) bool {
	if root.Type() == "ERROR" {
		return true
	}
	for i := 0; i < int(root.ChildCount()); i++ {
		if HasErrorNode(root.Child(i)) {
			return true
		}
	}
	return false
}
