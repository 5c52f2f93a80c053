package expr

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Op is an arithmetic or relational operator token.
type Op string

const (
	OpAdd Op = "+"
	OpSub Op = "-"
	OpMul Op = "*"
	OpDiv Op = "/"
	OpGT  Op = ">"
	OpLT  Op = "<"
	OpGTE Op = ">="
	OpLTE Op = "<="
	OpEQ  Op = "=="
)

// Valid reports whether the operator is one the evaluator understands.
func (o Op) Valid() bool {
	switch o {
	case OpAdd, OpSub, OpMul, OpDiv, OpGT, OpLT, OpGTE, OpLTE, OpEQ:
		return true
	}
	return false
}

func (o Op) relational() bool {
	switch o {
	case OpGT, OpLT, OpGTE, OpLTE, OpEQ:
		return true
	}
	return false
}

// Node is a single token of a postfix formula. The concrete types are Field,
// Number, Operator and Group.
type Node interface {
	node()
}

// Field resolves to the named value of the evaluation context, or 0 when absent.
type Field struct {
	Name string
}

// Number is a numeric literal.
type Number struct {
	Value float64
}

// Operator pops two operands and pushes the result.
type Operator struct {
	Op Op
}

// Group is a nested postfix sequence evaluated to a single value.
type Group struct {
	Nodes []Node
}

func (Field) node()    {}
func (Number) node()   {}
func (Operator) node() {}
func (Group) node()    {}

// Formula is an ordered postfix token sequence as stored on surcharge rules.
type Formula []Node

// wireNode is the stored shape of a token: {"type": "...", "value": ...}.
type wireNode struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

var errUnknownNodeType = errors.New("expr: unknown node type")

// MarshalJSON encodes the formula as a list of typed tokens.
func (f Formula) MarshalJSON() ([]byte, error) {
	out := make([]wireNode, 0, len(f))
	for _, n := range f {
		w, err := encodeNode(n)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a list of typed tokens, rejecting unknown token types.
func (f *Formula) UnmarshalJSON(data []byte) error {
	var raw []wireNode
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	nodes, err := decodeNodes(raw)
	if err != nil {
		return err
	}
	*f = nodes
	return nil
}

func encodeNode(n Node) (wireNode, error) {
	var (
		typ   string
		value any
	)
	switch t := n.(type) {
	case Field:
		typ, value = "field", t.Name
	case Number:
		typ, value = "value", t.Value
	case Operator:
		typ, value = "operator", string(t.Op)
	case Group:
		typ, value = "group", Formula(t.Nodes)
	default:
		return wireNode{}, fmt.Errorf("%w: %T", errUnknownNodeType, n)
	}
	data, err := json.Marshal(value)
	if err != nil {
		return wireNode{}, err
	}
	return wireNode{Type: typ, Value: data}, nil
}

func decodeNodes(raw []wireNode) ([]Node, error) {
	nodes := make([]Node, 0, len(raw))
	for i, w := range raw {
		switch w.Type {
		case "field":
			var name string
			if err := json.Unmarshal(w.Value, &name); err != nil {
				return nil, fmt.Errorf("token %d: field name: %w", i, err)
			}
			nodes = append(nodes, Field{Name: name})
		case "value":
			var v float64
			if err := json.Unmarshal(w.Value, &v); err != nil {
				return nil, fmt.Errorf("token %d: literal: %w", i, err)
			}
			nodes = append(nodes, Number{Value: v})
		case "operator":
			var op string
			if err := json.Unmarshal(w.Value, &op); err != nil {
				return nil, fmt.Errorf("token %d: operator: %w", i, err)
			}
			if !Op(op).Valid() {
				return nil, fmt.Errorf("token %d: unsupported operator %q", i, op)
			}
			nodes = append(nodes, Operator{Op: Op(op)})
		case "group":
			var children []wireNode
			if err := json.Unmarshal(w.Value, &children); err != nil {
				return nil, fmt.Errorf("token %d: group: %w", i, err)
			}
			inner, err := decodeNodes(children)
			if err != nil {
				return nil, fmt.Errorf("token %d: %w", i, err)
			}
			nodes = append(nodes, Group{Nodes: inner})
		default:
			return nil, fmt.Errorf("token %d: %w %q", i, errUnknownNodeType, w.Type)
		}
	}
	return nodes, nil
}
