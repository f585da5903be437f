package preprocessor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/basm32/basm32/internal/token"
)

func isIfOpener(k token.Kind) bool {
	switch k {
	case token.PreprocessorIfdef, token.PreprocessorIfndef, token.PreprocessorIfequ,
		token.PreprocessorIfnequ, token.PreprocessorIfless, token.PreprocessorIfmore:
		return true
	}
	return false
}

func isElseContinuation(k token.Kind) bool {
	switch k {
	case token.PreprocessorElse, token.PreprocessorElsedef, token.PreprocessorElsendef,
		token.PreprocessorElseequ, token.PreprocessorElsenequ, token.PreprocessorElseless,
		token.PreprocessorElsemore:
		return true
	}
	return false
}

func elseToIfKind(k token.Kind) token.Kind {
	switch k {
	case token.PreprocessorElsedef:
		return token.PreprocessorIfdef
	case token.PreprocessorElsendef:
		return token.PreprocessorIfndef
	case token.PreprocessorElseequ:
		return token.PreprocessorIfequ
	case token.PreprocessorElsenequ:
		return token.PreprocessorIfnequ
	case token.PreprocessorElseless:
		return token.PreprocessorIfless
	case token.PreprocessorElsemore:
		return token.PreprocessorIfmore
	}
	return token.Unknown
}

func (p *Preprocessor) handleIfOpener(kind token.Kind) error {
	line := p.takeLine()
	p.eraseNewlineIfPresent()
	cond, err := p.evalCondition(kind, line[1:])
	if err != nil {
		return err
	}
	return p.conditionalBlock(cond)
}

func (p *Preprocessor) handleElseContinuation(kind token.Kind) error {
	line := p.takeLine()
	p.eraseNewlineIfPresent()

	cond := true
	if kind != token.PreprocessorElse {
		var err error
		cond, err = p.evalCondition(elseToIfKind(kind), line[1:])
		if err != nil {
			return err
		}
	}
	return p.conditionalBlock(cond)
}

func (p *Preprocessor) handleEndif() {
	p.takeLine()
	p.eraseNewlineIfPresent()
}

func (p *Preprocessor) evalCondition(kind token.Kind, rest []token.Token) (bool, error) {
	nonWS := filterNonWhitespace(rest)
	switch kind {
	case token.PreprocessorIfdef:
		if len(nonWS) == 0 {
			return false, errors.New("#ifdef requires a name")
		}
		return p.symbols[nonWS[0].Value] != nil, nil
	case token.PreprocessorIfndef:
		if len(nonWS) == 0 {
			return false, errors.New("#ifndef requires a name")
		}
		return p.symbols[nonWS[0].Value] == nil, nil
	case token.PreprocessorIfequ, token.PreprocessorIfnequ, token.PreprocessorIfless, token.PreprocessorIfmore:
		a, b, err := splitTwoOperands(nonWS)
		if err != nil {
			return false, err
		}
		av, bv := p.resolveOperand(a), p.resolveOperand(b)
		switch kind {
		case token.PreprocessorIfequ:
			return av == bv, nil
		case token.PreprocessorIfnequ:
			return av != bv, nil
		case token.PreprocessorIfless:
			return av < bv, nil
		default:
			return av > bv, nil
		}
	}
	return false, fmt.Errorf("unsupported condition directive %v", kind)
}

func splitTwoOperands(nonWS []token.Token) (a, b []token.Token, err error) {
	for i, t := range nonWS {
		if t.Kind == token.Comma {
			return nonWS[:i], nonWS[i+1:], nil
		}
	}
	if len(nonWS) == 2 {
		return nonWS[:1], nonWS[1:], nil
	}
	return nil, nil, errors.New("expected two operands")
}

// resolveOperand renders an operand's raw text, substituting a single
// level of #define symbol lookup (lexical comparison operates on the
// symbol's current value, not its name).
func (p *Preprocessor) resolveOperand(toks []token.Token) string {
	var b strings.Builder
	for _, t := range toks {
		if t.Kind == token.Symbol {
			if val, ok := p.symbols[t.Value]; ok {
				b.WriteString(token.Join(val))
				continue
			}
		}
		b.WriteString(t.Value)
	}
	return b.String()
}

// conditionalBlock implements the relative-scope-level skip shared by
// every _ifXXX/_elseXXX directive: it scans forward from the cursor for
// the same-level else-continuation or #endif that closes the current
// branch (scanStops), then either keeps the branch (erasing the rest of
// the chain through the final #endif) or drops it (erasing the untaken
// body so the next directive in the chain lands at the cursor).
func (p *Preprocessor) conditionalBlock(cond bool) error {
	stops := p.scanStops(p.pos)
	if len(stops) == 0 {
		return errors.New("unterminated conditional block")
	}
	stopIdx := stops[0]
	if !cond {
		// The untaken branch is removed outright, not merely skipped: the
		// final render walks the whole token slice, so anything left
		// in it unerased would still appear in the output.
		p.erase(p.pos, stopIdx)
		return nil
	}
	endIdx := stops[len(stops)-1]
	eraseEnd := p.lineEnd(endIdx)
	p.erase(stopIdx, eraseEnd)
	p.insert(stopIdx, []token.Token{
		{Kind: token.CommentSingleLine, Value: "; conditional"},
		{Kind: token.WhitespaceNewline, Value: "\n"},
	})
	return nil
}

// scanStops walks forward from "from", tracking nested if/endif depth,
// and records the index of every same-level else-continuation together
// with the terminating #endif (always the last entry).
func (p *Preprocessor) scanStops(from int) []int {
	var stops []int
	level := 0
	for i := from; i < len(p.tokens); i++ {
		k := p.tokens[i].Kind
		switch {
		case isIfOpener(k):
			level++
		case k == token.PreprocessorEndif:
			if level == 0 {
				stops = append(stops, i)
				return stops
			}
			level--
		case level == 0 && isElseContinuation(k):
			stops = append(stops, i)
		}
	}
	return stops
}

func (p *Preprocessor) lineEnd(idx int) int {
	i := idx
	for i < len(p.tokens) && p.tokens[i].Kind != token.WhitespaceNewline {
		i++
	}
	if i < len(p.tokens) {
		i++
	}
	return i
}

// handleInvoke splices a macro call site: an optional output-symbol
// placeholder, a fresh .scope, one .equ per formal argument, the macro's
// captured body, and a closing .scend — the exact five-part order the
// original's invoke handler assembles.
func (p *Preprocessor) handleInvoke(filename string) error {
	line := p.takeLine()
	p.eraseNewlineIfPresent()

	outSym, name, argToks, err := parseInvokeLine(line)
	if err != nil {
		return &ErrDirective{File: filename, Line: line[0].Pos.Line, Msg: err.Error()}
	}
	key := macroKey(name, len(argToks))
	macro, ok := p.macros[key]
	if !ok {
		return &ErrMacroNotFound{Name: name, Arity: len(argToks)}
	}

	var splice []token.Token
	if outSym != "" {
		splice = append(splice, buildEqu(outSym, []token.Token{{Kind: token.LiteralNumberDecimal, Value: "0"}}, macro.ReturnType)...)
	}
	splice = append(splice,
		token.Token{Kind: token.AssemblerScope, Value: ".scope"},
		token.Token{Kind: token.WhitespaceNewline, Value: "\n"},
	)
	for i, arg := range macro.Arguments {
		var val []token.Token
		if i < len(argToks) {
			val = argToks[i]
		}
		splice = append(splice, buildEqu(arg.Name, val, arg.Type)...)
	}
	splice = append(splice, macro.Definition...)
	splice = append(splice,
		token.Token{Kind: token.WhitespaceNewline, Value: "\n"},
		token.Token{Kind: token.AssemblerScend, Value: ".scend"},
	)

	p.macroStack = append(p.macroStack, macroStackFrame{OutputSymbol: outSym, Macro: macro})
	p.insert(p.pos, splice)
	return nil
}

// handleMacret implements #macret: it captures the return expression,
// drops the remainder of the invocation's spliced body up to its closing
// .scend (scope-balance tracked, since the body may itself contain nested
// .scope/.scend), optionally emits a .equ binding the captured output
// symbol to the expression, and pops the macro invocation stack.
func (p *Preprocessor) handleMacret(filename string) error {
	line := p.takeLine()
	p.eraseNewlineIfPresent()

	if len(p.macroStack) == 0 {
		return &ErrMacretOutsideMacro{}
	}
	frame := p.macroStack[len(p.macroStack)-1]
	p.macroStack = p.macroStack[:len(p.macroStack)-1]
	exprToks := trimWS(append([]token.Token{}, line[1:]...))

	level := 0
	end := -1
	for i := p.pos; i < len(p.tokens); i++ {
		switch p.tokens[i].Kind {
		case token.AssemblerScope:
			level++
		case token.AssemblerScend:
			if level == 0 {
				end = i
			} else {
				level--
			}
		}
		if end >= 0 {
			break
		}
	}
	if end < 0 {
		return &ErrDirective{File: filename, Line: line[0].Pos.Line, Msg: "#macret outside balanced .scope/.scend"}
	}
	p.erase(p.pos, end)
	if frame.OutputSymbol != "" {
		p.insert(p.pos, buildEqu(frame.OutputSymbol, exprToks, frame.Macro.ReturnType))
	}
	return nil
}

var variableTypeKeyword = map[token.Kind]string{
	token.VariableTypeByte:  "BYTE",
	token.VariableTypeDByte: "DBYTE",
	token.VariableTypeWord:  "WORD",
	token.VariableTypeDWord: "DWORD",
}

// buildEqu renders ".equ name value : TYPE\n" as tokens, omitting the
// type clause when typ carries no known keyword (an untyped argument).
func buildEqu(name string, value []token.Token, typ token.Kind) []token.Token {
	out := []token.Token{
		{Kind: token.AssemblerEqu, Value: ".equ"},
		{Kind: token.WhitespaceSpace, Value: " "},
		{Kind: token.Symbol, Value: name},
	}
	if len(value) > 0 {
		out = append(out, token.Token{Kind: token.WhitespaceSpace, Value: " "})
		out = append(out, value...)
	}
	if kw, ok := variableTypeKeyword[typ]; ok {
		out = append(out,
			token.Token{Kind: token.WhitespaceSpace, Value: " "},
			token.Token{Kind: token.Colon, Value: ":"},
			token.Token{Kind: token.WhitespaceSpace, Value: " "},
			token.Token{Kind: typ, Value: kw},
		)
	}
	out = append(out, token.Token{Kind: token.WhitespaceNewline, Value: "\n"})
	return out
}

// parseMacroHeader parses the tokens following "#macro": NAME
// [(arg[:TYPE], ...)] [: RETTYPE].
func parseMacroHeader(rest []token.Token) (name string, args []Argument, retType token.Kind, err error) {
	i := 0
	skip := func() {
		for i < len(rest) && token.IsWhitespace(rest[i].Kind) {
			i++
		}
	}
	skip()
	if i >= len(rest) || rest[i].Kind != token.Symbol {
		return "", nil, token.Unknown, errors.New("#macro requires a name")
	}
	name = rest[i].Value
	i++
	skip()

	if i < len(rest) && rest[i].Kind == token.OpenParen {
		i++
		for {
			skip()
			if i < len(rest) && rest[i].Kind == token.CloseParen {
				i++
				break
			}
			if i >= len(rest) || rest[i].Kind != token.Symbol {
				return "", nil, token.Unknown, errors.New("bad #macro argument list")
			}
			arg := Argument{Name: rest[i].Value}
			i++
			skip()
			if i < len(rest) && rest[i].Kind == token.Colon {
				i++
				skip()
				if i >= len(rest) || !token.IsVariableType(rest[i].Kind) {
					return "", nil, token.Unknown, errors.New("bad #macro argument type")
				}
				arg.Type = rest[i].Kind
				i++
				skip()
			}
			args = append(args, arg)
			if i < len(rest) && rest[i].Kind == token.Comma {
				i++
				continue
			}
			skip()
			if i < len(rest) && rest[i].Kind == token.CloseParen {
				i++
				break
			}
			return "", nil, token.Unknown, errors.New("bad #macro argument list")
		}
		skip()
	}

	if i < len(rest) && rest[i].Kind == token.Colon {
		i++
		skip()
		if i >= len(rest) || !token.IsVariableType(rest[i].Kind) {
			return "", nil, token.Unknown, errors.New("bad #macro return type")
		}
		retType = rest[i].Kind
		i++
	}
	return name, args, retType, nil
}

// parseInvokeLine parses the tokens following "#invoke":
// NAME(arg0, arg1, ...) [OUTSYM]. Each argument is kept as its own raw
// token run so multi-token expressions survive the splice unevaluated.
// The trailing OUTSYM, if present, names the symbol the macro's
// #macret expression gets bound to once the call site is spliced.
func parseInvokeLine(line []token.Token) (outSym, name string, args [][]token.Token, err error) {
	rest := line[1:]
	i := 0
	skip := func() {
		for i < len(rest) && token.IsWhitespace(rest[i].Kind) {
			i++
		}
	}
	skip()
	if i >= len(rest) || rest[i].Kind != token.Symbol {
		return "", "", nil, errors.New("#invoke requires a macro name")
	}
	name = rest[i].Value
	i++
	skip()

	if i >= len(rest) || rest[i].Kind != token.OpenParen {
		return "", "", nil, errors.New("#invoke requires (args...)")
	}
	i++

	depth := 0
	var cur []token.Token
	flush := func() { args = append(args, trimWS(cur)); cur = nil }
	for i < len(rest) {
		k := rest[i].Kind
		switch {
		case k == token.OpenParen:
			depth++
			cur = append(cur, rest[i])
		case k == token.CloseParen:
			if depth == 0 {
				if len(cur) > 0 || len(args) > 0 {
					flush()
				}
				i++
				skip()
				if i < len(rest) && rest[i].Kind == token.Symbol {
					outSym = rest[i].Value
					i++
					skip()
				}
				if i < len(rest) {
					return "", "", nil, errors.New("unexpected tokens after #invoke")
				}
				return outSym, name, args, nil
			}
			depth--
			cur = append(cur, rest[i])
		case k == token.Comma && depth == 0:
			flush()
		default:
			cur = append(cur, rest[i])
		}
		i++
	}
	return "", "", nil, errors.New("unterminated #invoke argument list")
}

// parseIncludeOperand extracts the quoted-or-angled operand of an
// #include line; line[0] is the "#include" token itself.
func parseIncludeOperand(line []token.Token) (path string, angled bool, err error) {
	nonWS := filterNonWhitespace(line[1:])
	if len(nonWS) == 0 {
		return "", false, errors.New("missing #include operand")
	}
	if nonWS[0].Kind == token.LiteralString {
		v := nonWS[0].Value
		if len(v) >= 2 {
			v = v[1 : len(v)-1]
		}
		return v, false, nil
	}
	if nonWS[0].Kind == token.OperatorLess {
		var b strings.Builder
		for _, t := range nonWS[1:] {
			if t.Kind == token.OperatorGreater {
				return b.String(), true, nil
			}
			b.WriteString(t.Value)
		}
		return "", false, errors.New("unterminated #include <...>")
	}
	return "", false, errors.New("bad #include operand")
}
