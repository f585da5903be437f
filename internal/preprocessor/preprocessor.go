// Package preprocessor expands a token stream in place: #include,
// #define/#undef symbol substitution, #macro/#invoke/#macret, and the
// conditional-block family, before the assembler front-end (out of scope
// here) ever sees it.
package preprocessor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/basm32/basm32/internal/token"
)

// maxExpansions bounds the total number of symbol substitutions a single
// Process call will perform, the same guard the teacher's line-based
// expander placed on recursive macro invocation.
const maxExpansions = 10000

// Preprocessor holds the mutable state of a preprocessing run: the symbol
// and macro tables (shared across a file and everything it #includes), the
// macro invocation stack, and include-cycle tracking. The token stream
// itself is held transiently in tokens/pos for the duration of each
// expand call, saved and restored around nested #include expansion.
type Preprocessor struct {
	IncludeDirs []string

	tokens []token.Token
	pos    int

	symbols           map[string][]token.Token
	macros            map[string]*Macro
	macroStack        []macroStackFrame
	includeStackGuard map[string]bool
	expansions        int
}

// NewPreprocessor constructs an empty Preprocessor ready to Process a file.
func NewPreprocessor() *Preprocessor {
	return &Preprocessor{
		symbols:           map[string][]token.Token{},
		macros:            map[string]*Macro{},
		includeStackGuard: map[string]bool{},
	}
}

// Process tokenizes filename's contents, expands every directive in it
// (and everything it transitively #includes), and renders the result with
// indentation renormalized to the .scope/.scend nesting depth.
func (p *Preprocessor) Process(filename, src string) (string, error) {
	p.expansions = 0
	toks, err := p.expand(filename, src)
	if err != nil {
		return "", err
	}
	return normalizeIndent(toks), nil
}

// expand runs the directive-dispatch loop over filename's token stream and
// returns the fully expanded (but not yet indent-normalized) tokens. It is
// reentrant: handleInclude calls it recursively, saving and restoring the
// caller's cursor around the nested file.
func (p *Preprocessor) expand(filename, src string) ([]token.Token, error) {
	abs, err := filepath.Abs(filename)
	if err != nil {
		abs = filename
	}
	if p.includeStackGuard[abs] {
		return nil, &ErrIncludeCycle{File: abs}
	}
	p.includeStackGuard[abs] = true
	defer delete(p.includeStackGuard, abs)

	toks, err := token.Lex(filename, src)
	if err != nil {
		return nil, err
	}

	savedTokens, savedPos := p.tokens, p.pos
	p.tokens, p.pos = toks, 0
	defer func() { p.tokens, p.pos = savedTokens, savedPos }()

	for p.pos < len(p.tokens) {
		t := p.tokens[p.pos]
		switch {
		case t.Kind == token.PreprocessorInclude:
			if err := p.handleInclude(filename); err != nil {
				return nil, err
			}
		case t.Kind == token.PreprocessorDefine:
			p.handleDefine()
		case t.Kind == token.PreprocessorUndef:
			p.handleUndef()
		case t.Kind == token.PreprocessorMacro:
			if err := p.handleMacro(filename); err != nil {
				return nil, err
			}
		case t.Kind == token.PreprocessorInvoke:
			if err := p.handleInvoke(filename); err != nil {
				return nil, err
			}
		case t.Kind == token.PreprocessorMacret:
			if err := p.handleMacret(filename); err != nil {
				return nil, err
			}
		case t.Kind == token.PreprocessorMacend:
			return nil, &ErrDirective{File: filename, Line: t.Pos.Line, Msg: "#macend without matching #macro"}
		case isIfOpener(t.Kind):
			if err := p.handleIfOpener(t.Kind); err != nil {
				return nil, err
			}
		case isElseContinuation(t.Kind):
			if err := p.handleElseContinuation(t.Kind); err != nil {
				return nil, err
			}
		case t.Kind == token.PreprocessorEndif:
			p.handleEndif()
		case t.Kind == token.Symbol && p.symbols[t.Value] != nil:
			if err := p.substituteSymbol(); err != nil {
				return nil, err
			}
		default:
			p.pos++
		}
	}

	result := p.tokens
	return result, nil
}

// --- cursor helpers, the Go analogue of the original's in-place
// std::vector<Token> insert/erase mutation while iterating. ---

func (p *Preprocessor) insert(at int, toks []token.Token) {
	if len(toks) == 0 {
		return
	}
	grown := make([]token.Token, 0, len(p.tokens)+len(toks))
	grown = append(grown, p.tokens[:at]...)
	grown = append(grown, toks...)
	grown = append(grown, p.tokens[at:]...)
	p.tokens = grown
}

func (p *Preprocessor) erase(from, to int) {
	p.tokens = append(p.tokens[:from], p.tokens[to:]...)
}

func (p *Preprocessor) eraseOne(i int) {
	p.erase(i, i+1)
}

// takeLine erases and returns every token from the cursor up to (but not
// including) the next newline, or end of stream. The directive token
// itself is line[0].
func (p *Preprocessor) takeLine() []token.Token {
	end := p.pos
	for end < len(p.tokens) && p.tokens[end].Kind != token.WhitespaceNewline {
		end++
	}
	line := append([]token.Token{}, p.tokens[p.pos:end]...)
	p.erase(p.pos, end)
	return line
}

func (p *Preprocessor) eraseNewlineIfPresent() {
	if p.pos < len(p.tokens) && p.tokens[p.pos].Kind == token.WhitespaceNewline {
		p.eraseOne(p.pos)
	}
}

// substituteSymbol replaces the #define'd symbol token at the cursor with
// its recorded value tokens, re-entering the main loop so the spliced
// tokens are themselves subject to further directive dispatch.
func (p *Preprocessor) substituteSymbol() error {
	p.expansions++
	if p.expansions > maxExpansions {
		return errors.New("recursive symbol substitution exceeded expansion limit")
	}
	name := p.tokens[p.pos].Value
	val := p.symbols[name]
	p.eraseOne(p.pos)
	p.insert(p.pos, val)
	return nil
}

func (p *Preprocessor) handleDefine() {
	line := p.takeLine()
	p.eraseNewlineIfPresent()
	nonWS := filterNonWhitespace(line[1:])
	if len(nonWS) == 0 {
		return
	}
	name := nonWS[0].Value
	p.symbols[name] = defineBodyAfterName(line[1:], name)
}

func (p *Preprocessor) handleUndef() {
	line := p.takeLine()
	p.eraseNewlineIfPresent()
	nonWS := filterNonWhitespace(line[1:])
	if len(nonWS) == 0 {
		return
	}
	delete(p.symbols, nonWS[0].Value)
}

func defineBodyAfterName(rest []token.Token, name string) []token.Token {
	for i, t := range rest {
		if t.Kind == token.Symbol && t.Value == name {
			return trimLeadingWS(rest[i+1:])
		}
	}
	return nil
}

// handleMacro captures a #macro NAME(args...) [: RETTYPE] ... #macend
// definition, storing the body tokens verbatim for splicing at #invoke.
func (p *Preprocessor) handleMacro(filename string) error {
	header := p.takeLine()
	p.eraseNewlineIfPresent()

	name, args, retType, err := parseMacroHeader(header[1:])
	if err != nil {
		return &ErrDirective{File: filename, Line: header[0].Pos.Line, Msg: err.Error()}
	}

	bodyStart := p.pos
	idx := bodyStart
	for idx < len(p.tokens) && p.tokens[idx].Kind != token.PreprocessorMacend {
		idx++
	}
	if idx >= len(p.tokens) {
		return &ErrDirective{File: filename, Line: header[0].Pos.Line, Msg: "#macro without matching #macend"}
	}
	body := append([]token.Token{}, p.tokens[bodyStart:idx]...)

	macendLineEnd := idx
	for macendLineEnd < len(p.tokens) && p.tokens[macendLineEnd].Kind != token.WhitespaceNewline {
		macendLineEnd++
	}
	if macendLineEnd < len(p.tokens) {
		macendLineEnd++
	}
	p.erase(bodyStart, macendLineEnd)

	key := macroKey(name, len(args))
	if _, exists := p.macros[key]; exists {
		return &ErrMacroRedefinition{Name: name, Arity: len(args)}
	}
	p.macros[key] = &Macro{Name: name, Arguments: args, ReturnType: retType, Definition: body}
	return nil
}

func (p *Preprocessor) handleInclude(filename string) error {
	line := p.takeLine()
	p.eraseNewlineIfPresent()

	path, angled, err := parseIncludeOperand(line)
	if err != nil {
		return &ErrDirective{File: filename, Line: line[0].Pos.Line, Msg: err.Error()}
	}
	resolved, err := p.resolveInclude(filename, path, angled)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return fmt.Errorf("include %q: %w", path, err)
	}
	expanded, err := p.expand(resolved, string(data))
	if err != nil {
		return err
	}
	p.insert(p.pos, expanded)
	return nil
}

// resolveInclude resolves an #include operand to a readable path.
// Quoted includes resolve relative to the including file's directory;
// angle-bracket includes resolve against IncludeDirs, erroring if zero or
// more than one directory contains a matching file.
func (p *Preprocessor) resolveInclude(includingFile, operand string, angled bool) (string, error) {
	if !angled {
		return filepath.Join(filepath.Dir(includingFile), operand), nil
	}

	var found string
	count := 0
	for _, dir := range p.IncludeDirs {
		cand := filepath.Join(dir, operand)
		if st, err := os.Stat(cand); err == nil && !st.IsDir() {
			found = cand
			count++
		}
	}
	switch count {
	case 0:
		return "", &ErrIncludeNotFound{Path: operand}
	case 1:
		return found, nil
	default:
		return "", &ErrIncludeAmbiguous{Path: operand}
	}
}

func filterNonWhitespace(toks []token.Token) []token.Token {
	out := make([]token.Token, 0, len(toks))
	for _, t := range toks {
		if !token.IsWhitespace(t.Kind) {
			out = append(out, t)
		}
	}
	return out
}

func trimLeadingWS(toks []token.Token) []token.Token {
	i := 0
	for i < len(toks) && token.IsWhitespace(toks[i].Kind) {
		i++
	}
	return toks[i:]
}

func trimWS(toks []token.Token) []token.Token {
	toks = trimLeadingWS(toks)
	j := len(toks)
	for j > 0 && token.IsWhitespace(toks[j-1].Kind) {
		j--
	}
	return toks[:j]
}
