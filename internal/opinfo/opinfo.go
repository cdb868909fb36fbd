// Package opinfo is the static operator table the parser consults while
// precedence-climbing. Each entry mirrors opinfo_t from the
// the operator table a precedence-climbing parser consults.
package opinfo

// Assoc is an operator's associativity.
type Assoc byte

const (
	// Left is left-to-right associativity.
	Left Assoc = 'l'
	// Right is right-to-left associativity.
	Right Assoc = 'r'
)

// OpInfo describes one operator: its spelling, an optional closing string
// for matched forms (`[...]`, `(...)`), its arity, precedence,
// associativity and whether it is non-associative.
type OpInfo struct {
	Str       string
	CloseStr  string // empty if this isn't a matched form
	Arity     int
	Prec      int
	Assoc     Assoc
	NonAssoc  bool
	Prefix    bool // true for prefix-position unary operators
}

// The full operator table, highest precedence first.
var (
	Member  = OpInfo{Str: ".", Arity: 2, Prec: 16, Assoc: Left}
	Index   = OpInfo{Str: "[", CloseStr: "]", Arity: 2, Prec: 16, Assoc: Left}
	Call    = OpInfo{Str: "(", CloseStr: ")", Arity: -1, Prec: 15, Assoc: Left}

	Neg = OpInfo{Str: "-", Arity: 1, Prec: 13, Assoc: Right, Prefix: true}
	Not = OpInfo{Str: "not", Arity: 1, Prec: 13, Assoc: Right, Prefix: true}

	Mul = OpInfo{Str: "*", Arity: 2, Prec: 12, Assoc: Left}
	Div = OpInfo{Str: "/", Arity: 2, Prec: 12, Assoc: Left, NonAssoc: true}
	Mod = OpInfo{Str: "mod", Arity: 2, Prec: 12, Assoc: Left, NonAssoc: true}

	Add = OpInfo{Str: "+", Arity: 2, Prec: 11, Assoc: Left}
	Sub = OpInfo{Str: "-", Arity: 2, Prec: 11, Assoc: Left, NonAssoc: true}

	Lt        = OpInfo{Str: "<", Arity: 2, Prec: 9, Assoc: Left}
	Le        = OpInfo{Str: "<=", Arity: 2, Prec: 9, Assoc: Left}
	Gt        = OpInfo{Str: ">", Arity: 2, Prec: 9, Assoc: Left}
	Ge        = OpInfo{Str: ">=", Arity: 2, Prec: 9, Assoc: Left}
	In        = OpInfo{Str: "in", Arity: 2, Prec: 9, Assoc: Left}
	InstanceOf = OpInfo{Str: "instanceof", Arity: 2, Prec: 9, Assoc: Left}

	Eq = OpInfo{Str: "==", Arity: 2, Prec: 8, Assoc: Left}
	Ne = OpInfo{Str: "!=", Arity: 2, Prec: 8, Assoc: Left}

	BitAnd = OpInfo{Str: "&", Arity: 2, Prec: 7, Assoc: Left}
	BitXor = OpInfo{Str: "^", Arity: 2, Prec: 6, Assoc: Left}
	BitOr  = OpInfo{Str: "|", Arity: 2, Prec: 5, Assoc: Left}

	And = OpInfo{Str: "and", Arity: 2, Prec: 4, Assoc: Left}
	Or  = OpInfo{Str: "or", Arity: 2, Prec: 3, Assoc: Left}

	Assign = OpInfo{Str: "=", Arity: 2, Prec: 1, Assoc: Right}
)

// Prefix is the ordered list of operators recognized in prefix position.
var Prefix = []*OpInfo{&Neg, &Not}

// Infix is the ordered list of operators recognized in infix/postfix
// position, ordered so that multi-character spellings are tried before
// any single-character prefix of theirs (e.g. "<=" before "<").
var Infix = []*OpInfo{
	&Member, &Index, &Call,
	&Mul, &Div, &Mod,
	&Add, &Sub,
	&Le, &Ge, &Lt, &Gt, &In, &InstanceOf,
	&Eq, &Ne,
	&BitAnd, &BitXor, &BitOr,
	&And, &Or,
	&Assign,
}

// NextMinPrec computes the minimum precedence the right-hand side of op
// must be parsed with, following the usual precedence-climbing rule:
// left-associative operators require strictly higher precedence on the
// right (prec+1); right-associative operators allow equal precedence
// (prec); matched forms ([...]/(...)) consume until their own closer, so
// the inner expression restarts at the lowest precedence (0).
func NextMinPrec(op *OpInfo) int {
	if op.CloseStr != "" {
		return 0
	}
	if op.Assoc == Right {
		return op.Prec
	}
	return op.Prec + 1
}
