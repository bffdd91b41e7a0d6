package source

// Language identifies which tree-sitter grammar to parse with. The engine
// supports exactly python and java; any other value is rejected by Parse.
type Language string

const (
	Python Language = "python"
	Java   Language = "java"
)
