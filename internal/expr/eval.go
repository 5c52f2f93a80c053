package expr

import (
	"errors"
	"fmt"
)

// ErrMalformed is returned by EvaluateStrict when the token sequence cannot be reduced to a single value.
var ErrMalformed = errors.New("expr: malformed expression")

// Context maps field names to numeric values. Evaluation never mutates it.
type Context map[string]float64

// Result is either a number or a boolean.
type Result struct {
	num     float64
	boolean bool
	isBool  bool
}

// False is the result of every malformed evaluation.
var False = Result{isBool: true}

// Num wraps a numeric result.
func Num(v float64) Result { return Result{num: v} }

// Bool wraps a boolean result.
func Bool(v bool) Result { return Result{boolean: v, isBool: true} }

// IsBool reports whether the result is a boolean.
func (r Result) IsBool() bool { return r.isBool }

// Float returns the numeric value and whether the result is numeric.
func (r Result) Float() (float64, bool) {
	if r.isBool {
		return 0, false
	}
	return r.num, true
}

// Truth returns the boolean value and whether the result is boolean.
func (r Result) Truth() (bool, bool) {
	if !r.isBool {
		return false, false
	}
	return r.boolean, true
}

// Interface returns the underlying float64 or bool.
func (r Result) Interface() any {
	if r.isBool {
		return r.boolean
	}
	return r.num
}

// Evaluate reduces a postfix sequence against ctx. Any malformed input yields False.
func Evaluate(nodes []Node, ctx Context) Result {
	res, err := EvaluateStrict(nodes, ctx)
	if err != nil {
		return False
	}
	return res
}

// EvaluateStrict behaves like Evaluate but reports why an expression is malformed.
func EvaluateStrict(nodes []Node, ctx Context) (Result, error) {
	stack := make([]Result, 0, len(nodes))
	for i, n := range nodes {
		switch t := n.(type) {
		case Field:
			stack = append(stack, Num(ctx[t.Name]))
		case Number:
			stack = append(stack, Num(t.Value))
		case Group:
			res, err := EvaluateStrict(t.Nodes, ctx)
			if err != nil {
				return False, fmt.Errorf("group at %d: %w", i, err)
			}
			stack = append(stack, res)
		case Operator:
			if len(stack) < 2 {
				return False, fmt.Errorf("%w: operator %q at %d is missing operands", ErrMalformed, t.Op, i)
			}
			right := stack[len(stack)-1]
			left := stack[len(stack)-2]
			stack = stack[:len(stack)-2]
			res, err := apply(t.Op, left, right)
			if err != nil {
				return False, fmt.Errorf("operator %q at %d: %w", t.Op, i, err)
			}
			stack = append(stack, res)
		default:
			return False, fmt.Errorf("%w: unsupported token %T at %d", ErrMalformed, n, i)
		}
	}
	if len(stack) != 1 {
		return False, fmt.Errorf("%w: %d values left on stack", ErrMalformed, len(stack))
	}
	return stack[0], nil
}

func apply(op Op, left, right Result) (Result, error) {
	l, lok := left.Float()
	r, rok := right.Float()
	if !lok || !rok {
		return False, fmt.Errorf("%w: boolean operand", ErrMalformed)
	}
	switch op {
	case OpAdd:
		return Num(l + r), nil
	case OpSub:
		return Num(l - r), nil
	case OpMul:
		return Num(l * r), nil
	case OpDiv:
		if r == 0 {
			return Num(0), nil
		}
		return Num(l / r), nil
	case OpGT:
		return Bool(l > r), nil
	case OpLT:
		return Bool(l < r), nil
	case OpGTE:
		return Bool(l >= r), nil
	case OpLTE:
		return Bool(l <= r), nil
	case OpEQ:
		return Bool(l == r), nil
	}
	return False, fmt.Errorf("%w: unknown operator", ErrMalformed)
}
