package source

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Token carries a text payload and the AST leaf it originated from.
type Token struct {
	Text string
	Node *sitter.Node
}

// Tokens walks root's leaves in lexical order and returns the ordered
// token sequence the spec's external Token collaborator exposes. Leaves
// are nodes with no children; their text is sliced directly out of code.
func Tokens(root *sitter.Node, code []byte) []Token {
	var out []Token
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n.ChildCount() == 0 {
			out = append(out, Token{Text: string(code[n.StartByte():n.EndByte()]), Node: n})
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
	return out
}
