package pgraph

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// ErrEmptyProgram is returned when the source has no tokens, so no root
// node can be located.
var ErrEmptyProgram = fmt.Errorf("pgraph: empty program has no root node")

// ErrUnsupportedLanguage is returned when lang is not python or java.
var ErrUnsupportedLanguage = fmt.Errorf("pgraph: language not supported")

// ErrUnknownAnalysis is returned when a requested Analysis is not in the
// chosen language's analysis table (e.g. Python's AnalysisSubCFG under Java).
var ErrUnknownAnalysis = fmt.Errorf("pgraph: analysis not available for this language")

// SyntaxError reports a tree-sitter ERROR node encountered while parsing,
// subject to the caller's Policy (raise/warn/ignore).
type SyntaxError struct {
	Lang          Language
	StartRow, Col uint32
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("pgraph: syntax error parsing %s source at line %d, column %d", e.Lang, e.StartRow+1, e.Col+1)
}

// newSyntaxError builds a SyntaxError from the first ERROR node found under
// root, in pre-order.
func newSyntaxError(lang Language, root *sitter.Node) *SyntaxError {
	n := firstErrorNode(root)
	if n == nil {
		return nil
	}
	p := n.StartPoint()
	return &SyntaxError{Lang: lang, StartRow: p.Row, Col: p.Column}
}

func firstErrorNode(n *sitter.Node) *sitter.Node {
	if n.Type() == "ERROR" {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if found := firstErrorNode(n.Child(i)); found != nil {
			return found
		}
	}
	return nil
}
