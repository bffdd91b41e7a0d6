package graph

// Label is one of the fixed set of edge labels the program graph uses.
type Label string

// The fixed edge-label alphabet (spec §3).
const (
	Child        Label = "child"
	Sibling      Label = "sibling"
	NextToken    Label = "next_token"
	ControlFlow  Label = "controlflow"
	ReturnFrom   Label = "return_from"
	YieldFrom    Label = "yield_from"
	LastMayWrite Label = "last_may_write"
	NextMayUse   Label = "next_may_use"
	OccurrenceOf Label = "occurrence_of"
	AssignedFrom Label = "assigned_from"
)
