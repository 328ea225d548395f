package graph

import "strconv"

// Value is a node field looked up by name. Exactly one of the kinds applies.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
}

// ValueKind tags a Value.
type ValueKind int

// Value kinds.
const (
	ValueAbsent ValueKind = iota
	ValueString
	ValueNumber
)

// IsAbsent reports whether the field was missing or null.
func (v Value) IsAbsent() bool { return v.Kind == ValueAbsent }

// String formats the value for display.
func (v Value) String() string {
	switch v.Kind {
	case ValueString:
		return v.Str
	case ValueNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	}
	return ""
}

func str(s string) Value { return Value{Kind: ValueString, Str: s} }
func num(f float64) Value { return Value{Kind: ValueNumber, Num: f} }
func optStr(s string) Value {
	if s == "" {
		return Value{}
	}
	return str(s)
}

var sortableFields = map[string]func(n *Node) Value{
	"id":              func(n *Node) Value { return str(n.ID) },
	"position":        func(n *Node) Value { return str(n.Position) },
	"type":            func(n *Node) Value { return optStr(n.Type) },
	"groupTag":        func(n *Node) Value { return str(n.GroupTag()) },
	"component_id":    func(n *Node) Value { return num(float64(n.ComponentID)) },
	"community_id":    func(n *Node) Value { return num(float64(n.CommunityID)) },
	"piece_symbol":    func(n *Node) Value { return optStr(n.PieceSymbol) },
	"piece_color":     func(n *Node) Value { return optStr(n.PieceColor) },
	"piece_type_name": func(n *Node) Value { return optStr(n.PieceTypeName) },
	"piece_type": func(n *Node) Value {
		if !n.HasPiece || n.PieceType == 0 {
			return Value{}
		}
		return num(float64(n.PieceType))
	},
}

// Field looks up a node field by its wire name. Metric fields with a NaN
// value and empty optional strings are reported as absent. Unknown names are
// absent too.
func (n *Node) Field(name string) Value {
	if f, ok := sortableFields[name]; ok {
		return f(n)
	}
	if k, ok := ParseMetricKey(name); ok {
		if v, ok := n.Metric(k); ok {
			return num(v)
		}
	}
	return Value{}
}
