package expr

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Parse reads the whitespace separated postfix notation used by tooling and
// the evaluate endpoint, e.g. "(2 3 +) 5 *" or "weight 30 >=". Parentheses
// delimit groups; numbers become literals, operator symbols operators and any
// other token a field reference.
func Parse(text string) ([]Node, error) {
	tokens := tokenize(text)
	nodes, rest, err := parseSeq(tokens, 0)
	if err != nil {
		return nil, err
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("%w: unexpected %q", ErrMalformed, rest[0])
	}
	return nodes, nil
}

// MustParse is like Parse but panics on error. Intended for tests and fixtures.
func MustParse(text string) []Node {
	nodes, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return nodes
}

func tokenize(text string) []string {
	var (
		tokens []string
		cur    strings.Builder
	)
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for _, r := range text {
		switch {
		case r == '(' || r == ')':
			flush()
			tokens = append(tokens, string(r))
		case unicode.IsSpace(r):
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return tokens
}

func parseSeq(tokens []string, depth int) ([]Node, []string, error) {
	nodes := make([]Node, 0, len(tokens))
	for len(tokens) > 0 {
		tok := tokens[0]
		tokens = tokens[1:]
		switch {
		case tok == "(":
			inner, rest, err := parseSeq(tokens, depth+1)
			if err != nil {
				return nil, nil, err
			}
			if len(rest) == 0 || rest[0] != ")" {
				return nil, nil, fmt.Errorf("%w: unclosed group", ErrMalformed)
			}
			nodes = append(nodes, Group{Nodes: inner})
			tokens = rest[1:]
		case tok == ")":
			if depth == 0 {
				return nil, nil, fmt.Errorf("%w: unbalanced ')'", ErrMalformed)
			}
			return nodes, append([]string{tok}, tokens...), nil
		case Op(tok).Valid():
			nodes = append(nodes, Operator{Op: Op(tok)})
		default:
			if looksNumeric(tok) {
				v, err := strconv.ParseFloat(tok, 64)
				if err != nil {
					return nil, nil, fmt.Errorf("%w: bad literal %q", ErrMalformed, tok)
				}
				nodes = append(nodes, Number{Value: v})
				continue
			}
			nodes = append(nodes, Field{Name: tok})
		}
	}
	return nodes, nil, nil
}

func looksNumeric(tok string) bool {
	c := tok[0]
	if (c == '-' || c == '+') && len(tok) > 1 {
		c = tok[1]
	}
	return (c >= '0' && c <= '9') || c == '.'
}
