package source

import (
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// WrapJavaMethod implements the Java method-snippet preprocessor (spec
// §6): when the input is a bare method body that fails to parse on its
// own, it is wrapped as a minimal class so tree-sitter's Java grammar can
// parse it as a method_declaration.
func WrapJavaMethod(body []byte) []byte {
	wrapped := make([]byte, 0, len(body)+len("public class Test {  }"))
	wrapped = append(wrapped, "public class Test { "...)
	wrapped = append(wrapped, body...)
	wrapped = append(wrapped, " }"...)
	return wrapped
}

// ExtractMethodDeclaration finds the method_declaration subtree inside a
// tree produced by parsing WrapJavaMethod's output.
func ExtractMethodDeclaration(root *sitter.Node) (*sitter.Node, error) {
	var found *sitter.Node
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if found != nil {
			return
		}
		if n.Type() == "method_declaration" {
			found = n
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
	if found == nil {
		return nil, errors.New("source: no method_declaration found in wrapped method snippet")
	}
	return found, nil
}

// leadingWrapperTokens is the token count of "public class Test {".
const leadingWrapperTokens = 4

// trailingWrapperTokens is the token count of the class body's closing "}".
const trailingWrapperTokens = 1

// TrimWrapperTokens drops the leading "public class Test {" and trailing
// "}" tokens from a token sequence produced over WrapJavaMethod's output,
// leaving only the tokens belonging to the original method snippet.
func TrimWrapperTokens(tokens []Token) ([]Token, error) {
	if len(tokens) <= leadingWrapperTokens+trailingWrapperTokens {
		return nil, fmt.Errorf("source: wrapped method snippet has too few tokens (%d) to trim", len(tokens))
	}
	return tokens[leadingWrapperTokens : len(tokens)-trailingWrapperTokens], nil
}
