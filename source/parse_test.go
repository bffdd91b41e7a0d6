package source_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gocodewalk/pgraph/source"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		lang    source.Language
		wantErr bool
	}{
		{name: "python", code: "x = 1\n", lang: source.Python},
		{name: "java", code: "class Foo { void bar() {} }", lang: source.Java},
		{name: "unsupported language", code: "x = 1", lang: source.Language("ruby"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := source.Parse(context.Background(), []byte(tt.code), tt.lang)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, tree.RootNode())
		})
	}
}

func TestHasErrorNode(t *testing.T) {
	tree, err := source.Parse(context.Background(), []byte("x = ("), source.Python)
	require.NoError(t, err)
	assert.True(t, source.HasErrorNode(tree.RootNode()))

	tree, err = source.Parse(context.Background(), []byte("x = 1\n"), source.Python)
	require.NoError(t, err)
	assert.False(t, source.HasErrorNode(tree.RootNode()))
}
