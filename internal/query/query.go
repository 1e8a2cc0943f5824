// Package query implements a small boolean expression language over
// benchmark records, e.g.
//
//	latency_us > 2000 AND NOT intra_zone
//	region matches "^west" OR destination == "az3"
//
// Fields and literals are type-checked at parse time so that evaluation
// cannot fail.
package query

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/gyaneshwarpardhi/netbench/internal/record"
)

// Operator is a comparison operator.
type Operator string

const (
	OpEq       Operator = "=="
	OpNeq      Operator = "!="
	OpGt       Operator = ">"
	OpGte      Operator = ">="
	OpLt       Operator = "<"
	OpLte      Operator = "<="
	OpContains Operator = "contains"
	OpMatches  Operator = "matches"
)

type fieldType int

const (
	stringField fieldType = iota
	numberField
	boolField
)

type field struct {
	typ fieldType
	str func(record.Record) string
	num func(record.Record) float64
	b   func(record.Record) bool
}

var fields = map[string]field{
	"region":         {typ: stringField, str: func(r record.Record) string { return r.Region }},
	"source":         {typ: stringField, str: func(r record.Record) string { return r.Source }},
	"destination":    {typ: stringField, str: func(r record.Record) string { return r.Destination }},
	"latency_us":     {typ: numberField, num: func(r record.Record) float64 { return r.LatencyMicros }},
	"bandwidth_gbps": {typ: numberField, num: func(r record.Record) float64 { return r.BandwidthGbps }},
	"intra_zone":     {typ: boolField, b: record.Record.IntraZone},
}

// Fields lists the field names an expression may reference.
func Fields() []string {
	return []string{"region", "source", "destination", "latency_us", "bandwidth_gbps", "intra_zone"}
}

// Expr is a compiled expression. The zero value is not usable; use Parse.
type Expr struct {
	src  string
	root node
}

// Parse compiles src.
func Parse(src string) (*Expr, error) {
	tokens, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	root, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, fmt.Errorf("query: unexpected %q at position %d", t.val, t.pos)
	}
	return &Expr{src: strings.TrimSpace(src), root: root}, nil
}

// MustParse is like Parse but panics on error.
func MustParse(src string) *Expr {
	e, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return e
}

// Match reports whether r satisfies the expression.
func (e *Expr) Match(r record.Record) bool {
	return e.root.eval(r)
}

// String returns the source text of the expression.
func (e *Expr) String() string {
	return e.src
}

func (e *Expr) MarshalText() ([]byte, error) {
	return []byte(e.src), nil
}

func (e *Expr) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*e = *parsed
	return nil
}

// -----------------------------------------------------------------------
// AST
// -----------------------------------------------------------------------

type node interface {
	eval(record.Record) bool
}

type andNode struct{ left, right node }

func (n andNode) eval(r record.Record) bool { return n.left.eval(r) && n.right.eval(r) }

type orNode struct{ left, right node }

func (n orNode) eval(r record.Record) bool { return n.left.eval(r) || n.right.eval(r) }

type notNode struct{ inner node }

func (n notNode) eval(r record.Record) bool { return !n.inner.eval(r) }

type boolFieldNode struct{ f field }

func (n boolFieldNode) eval(r record.Record) bool { return n.f.b(r) }

type stringCompare struct {
	f   field
	op  Operator
	lit string
	re  *regexp.Regexp
}

func (n stringCompare) eval(r record.Record) bool {
	v := n.f.str(r)
	switch n.op {
	case OpEq:
		return v == n.lit
	case OpNeq:
		return v != n.lit
	case OpContains:
		return strings.Contains(v, n.lit)
	case OpMatches:
		return n.re.MatchString(v)
	}
	return false
}

type numberCompare struct {
	f   field
	op  Operator
	lit float64
}

func (n numberCompare) eval(r record.Record) bool {
	v := n.f.num(r)
	switch n.op {
	case OpEq:
		return v == n.lit
	case OpNeq:
		return v != n.lit
	case OpGt:
		return v > n.lit
	case OpGte:
		return v >= n.lit
	case OpLt:
		return v < n.lit
	case OpLte:
		return v <= n.lit
	}
	return false
}

type boolCompare struct {
	f   field
	op  Operator
	lit bool
}

func (n boolCompare) eval(r record.Record) bool {
	if n.op == OpEq {
		return n.f.b(r) == n.lit
	}
	return n.f.b(r) != n.lit
}

// -----------------------------------------------------------------------
// Parser
// -----------------------------------------------------------------------

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) keyword(kw string) bool {
	t := p.peek()
	return t.kind == tokIdent && strings.EqualFold(t.val, kw)
}

// or = and ( "OR" and )*
func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.keyword("OR") {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = orNode{left, right}
	}
	return left, nil
}

// and = unary ( "AND" unary )*
func (p *parser) parseAnd() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.keyword("AND") {
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = andNode{left, right}
	}
	return left, nil
}

// unary = "NOT" unary | "(" or ")" | comparison
func (p *parser) parseUnary() (node, error) {
	if p.keyword("NOT") {
		p.next()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return notNode{inner}, nil
	}
	if p.peek().kind == tokLParen {
		p.next()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if t := p.next(); t.kind != tokRParen {
			return nil, fmt.Errorf("query: expected ) at position %d, got %q", t.pos, t.val)
		}
		return inner, nil
	}
	return p.parseComparison()
}

// comparison = field operator literal | bool_field
func (p *parser) parseComparison() (node, error) {
	t := p.next()
	if t.kind != tokIdent {
		return nil, fmt.Errorf("query: expected field at position %d, got %q", t.pos, t.val)
	}
	name := strings.ToLower(t.val)
	f, ok := fields[name]
	if !ok {
		return nil, fmt.Errorf("query: unknown field %q (known: %s)", t.val, strings.Join(Fields(), ", "))
	}

	op, ok := p.operator()
	if !ok {
		if f.typ == boolField {
			return boolFieldNode{f}, nil
		}
		return nil, fmt.Errorf("query: expected operator after %s at position %d", name, p.peek().pos)
	}

	lit := p.next()
	switch f.typ {
	case stringField:
		if lit.kind != tokString {
			return nil, fmt.Errorf("query: %s compares against a quoted string, got %q", name, lit.val)
		}
		n := stringCompare{f: f, op: op, lit: lit.val}
		switch op {
		case OpEq, OpNeq, OpContains:
		case OpMatches:
			re, err := regexp.Compile(lit.val)
			if err != nil {
				return nil, fmt.Errorf("query: invalid pattern %q: %w", lit.val, err)
			}
			n.re = re
		default:
			return nil, fmt.Errorf("query: operator %s not supported for %s", op, name)
		}
		return n, nil
	case numberField:
		if lit.kind != tokNumber {
			return nil, fmt.Errorf("query: %s compares against a number, got %q", name, lit.val)
		}
		v, err := strconv.ParseFloat(lit.val, 64)
		if err != nil {
			return nil, fmt.Errorf("query: invalid number %q", lit.val)
		}
		if op == OpContains || op == OpMatches {
			return nil, fmt.Errorf("query: operator %s not supported for %s", op, name)
		}
		return numberCompare{f: f, op: op, lit: v}, nil
	default:
		if lit.kind != tokIdent || (!strings.EqualFold(lit.val, "true") && !strings.EqualFold(lit.val, "false")) {
			return nil, fmt.Errorf("query: %s compares against true or false, got %q", name, lit.val)
		}
		if op != OpEq && op != OpNeq {
			return nil, fmt.Errorf("query: operator %s not supported for %s", op, name)
		}
		return boolCompare{f: f, op: op, lit: strings.EqualFold(lit.val, "true")}, nil
	}
}

func (p *parser) operator() (Operator, bool) {
	t := p.peek()
	switch {
	case t.kind == tokOp:
		p.next()
		return Operator(t.val), true
	case p.keyword("contains"):
		p.next()
		return OpContains, true
	case p.keyword("matches"):
		p.next()
		return OpMatches, true
	}
	return "", false
}
