package preprocessor

import (
	"github.com/basm32/basm32/internal/token"
)

// Argument is one formal parameter of a macro: its name, and the declared
// type keyword it was given (token.Unknown if none was given).
type Argument struct {
	Name string
	Type token.Kind
}

// Macro is a #macro...#macend definition keyed by (Name, arity) in the
// Preprocessor's macro table. Definition holds the captured body tokens
// exactly as written, to be spliced at each #invoke.
type Macro struct {
	Name       string
	Arguments  []Argument
	ReturnType token.Kind
	Definition []token.Token
}

// Header renders "name/arity", the same form macroKey uses for the macro
// table key.
func (m *Macro) Header() string {
	return macroKey(m.Name, len(m.Arguments))
}

// macroKey is the map key used for macro lookup: the original indexes
// macros by name and argument count, allowing overloads on arity.
func macroKey(name string, arity int) string {
	return name + "/" + itoa(arity)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// macroStackFrame tracks one level of macro invocation: the symbol the
// call site expects #macret to bind a return value to, and which macro
// body is currently being expanded, so #macret can type that binding with
// the macro's return type.
type macroStackFrame struct {
	OutputSymbol string
	Macro        *Macro
}
