package preprocessor

import "fmt"

// ErrDirective wraps a failure encountered while expanding a directive at
// a specific source position.
type ErrDirective struct {
	File string
	Line int
	Msg  string
}

func (e *ErrDirective) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

// ErrMacroRedefinition is returned when #macro names a (name, arity) pair
// that is already defined.
type ErrMacroRedefinition struct {
	Name  string
	Arity int
}

func (e *ErrMacroRedefinition) Error() string {
	return fmt.Sprintf("macro %q/%d already defined", e.Name, e.Arity)
}

// ErrMacroNotFound is returned when #invoke names a macro that has no
// definition with a matching (name, arity).
type ErrMacroNotFound struct {
	Name  string
	Arity int
}

func (e *ErrMacroNotFound) Error() string {
	return fmt.Sprintf("no macro %q takes %d argument(s)", e.Name, e.Arity)
}

// ErrMacroAmbiguous is returned when #invoke's argument count matches more
// than one overload of a macro name (should not happen given the (name,
// arity) keying, kept for symmetry with the original's lookup failure path).
type ErrMacroAmbiguous struct {
	Name string
}

func (e *ErrMacroAmbiguous) Error() string {
	return fmt.Sprintf("macro %q is ambiguous", e.Name)
}

// ErrMacretOutsideMacro is returned when #macret appears outside of any
// #macro body.
type ErrMacretOutsideMacro struct{}

func (e *ErrMacretOutsideMacro) Error() string {
	return "#macret outside of a #macro body"
}

// ErrIncludeNotFound is returned when an angle-bracket #include cannot be
// resolved against any configured include directory.
type ErrIncludeNotFound struct {
	Path string
}

func (e *ErrIncludeNotFound) Error() string {
	return fmt.Sprintf("include file %q not found in any include directory", e.Path)
}

// ErrIncludeAmbiguous is returned when an angle-bracket #include resolves
// against more than one configured include directory.
type ErrIncludeAmbiguous struct {
	Path string
}

func (e *ErrIncludeAmbiguous) Error() string {
	return fmt.Sprintf("include file %q found in more than one include directory", e.Path)
}

// ErrIncludeCycle is returned when a file that is already on the include
// stack is expanded again through #include.
type ErrIncludeCycle struct {
	File string
}

func (e *ErrIncludeCycle) Error() string {
	return fmt.Sprintf("include cycle detected at %q", e.File)
}
