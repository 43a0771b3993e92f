// Package script parses the line-oriented batch-operation language used to
// mutate documents. One line is one operation; a line may bind a name for
// later lines to reference. Parsing never touches a document: the output is
// an ordered list of typed operations for the batch executor.
package script

import "fmt"

// RootSentinel is the binding name pre-seeded to the document root.
const RootSentinel = "__document__"

// MaxOps is the hard ceiling on operations per script. It is the only
// bound on runaway or adversarial scripts; there is no execution timeout.
const MaxOps = 100

// Opcode is one of the seven single-letter operation verbs.
type Opcode byte

const (
	OpInsert   Opcode = 'I'
	OpCopy     Opcode = 'C'
	OpUpdate   Opcode = 'U'
	OpReplace  Opcode = 'R'
	OpMove     Opcode = 'M'
	OpDelete   Opcode = 'D'
	OpGenerate Opcode = 'G'
)

// Valid reports whether o is a known opcode.
func (o Opcode) Valid() bool {
	switch o {
	case OpInsert, OpCopy, OpUpdate, OpReplace, OpMove, OpDelete, OpGenerate:
		return true
	}
	return false
}

func (o Opcode) String() string {
	return string(rune(o))
}

// ArgKind classifies a parsed argument into a closed set of literal kinds.
type ArgKind int

const (
	ArgString ArgKind = iota // quoted string literal, decoded
	ArgObject                // {...} structured literal
	ArgList                  // [...] structured literal
	ArgNumber                // signed integer or decimal
	ArgBool                  // true/false
	ArgNull                  // null
	ArgRef                   // bare identifier: binding name, node id, or slash path
	ArgConcat                // identifier+"suffix": bound value with a literal path suffix
)

func (k ArgKind) String() string {
	switch k {
	case ArgString:
		return "string"
	case ArgObject:
		return "object"
	case ArgList:
		return "list"
	case ArgNumber:
		return "number"
	case ArgBool:
		return "bool"
	case ArgNull:
		return "null"
	case ArgRef:
		return "reference"
	case ArgConcat:
		return "concat reference"
	}
	return "unknown"
}

// Arg is a tagged union over argument kinds. Exactly one of the value
// fields is meaningful, selected by Kind.
type Arg struct {
	Kind   ArgKind
	Str    string
	Num    float64
	Bool   bool
	Obj    map[string]any
	List   []any
	Ref    string // ArgRef and ArgConcat: the identifier
	Suffix string // ArgConcat: the literal suffix
}

// Op is one parsed operation in script order.
type Op struct {
	Line    int    // 1-based source line, for error reporting
	Binding string // name bound by an "ident=" prefix, or ""
	Code    Opcode
	Args    []Arg
}

// Summary renders a short one-line description of the operation, used in
// batch results to tell the caller which operations had already run.
func (op *Op) Summary() string {
	return fmt.Sprintf("%d: %s(%d args)", op.Line, op.Code, len(op.Args))
}
