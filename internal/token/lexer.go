package token

import (
	"fmt"
	"regexp"
	"strings"
)

// ErrLex is returned when no rule in the lexer's table matches the input
// at the given position.
type ErrLex struct {
	Pos     Position
	Snippet string
}

func (e *ErrLex) Error() string {
	return fmt.Sprintf("%s: lex error: no rule matches %q", e.Pos, e.Snippet)
}

// rule is one entry of the ordered, longest-match-by-priority table the
// lexer is driven by. match returns the matched lexeme and whether the
// rule fired at the start of s.
type rule struct {
	kind  Kind
	match func(s string) (lexeme string, ok bool)
}

// boundaryIn reports whether b (the byte immediately following a candidate
// keyword match, or 0 at end of input) is an acceptable keyword
// terminator for the given boundary set.
func boundaryIn(b byte, set string) bool {
	if b == 0 {
		return true
	}
	return strings.IndexByte(set, b) >= 0
}

func peek(s string, n int) byte {
	if n >= len(s) {
		return 0
	}
	return s[n]
}

// keywordRule matches a literal keyword followed by a boundary byte from
// boundarySet (whitespace, comma, or close-paren for directives and
// variable-type keywords alike), or by the end of input.
func keywordRule(kind Kind, keyword, boundarySet string) rule {
	return rule{kind: kind, match: func(s string) (string, bool) {
		if !strings.HasPrefix(s, keyword) {
			return "", false
		}
		if !boundaryIn(peek(s, len(keyword)), boundarySet) {
			return "", false
		}
		return keyword, true
	}}
}

// literalRule matches a fixed literal string with no trailing-boundary
// requirement (punctuation, operators).
func literalRule(kind Kind, lit string) rule {
	return rule{kind: kind, match: func(s string) (string, bool) {
		if strings.HasPrefix(s, lit) {
			return lit, true
		}
		return "", false
	}}
}

// regexRule matches via a `^`-anchored regexp evaluated against the
// remaining input.
func regexRule(kind Kind, pattern string) rule {
	re := regexp.MustCompile(pattern)
	return rule{kind: kind, match: func(s string) (string, bool) {
		loc := re.FindStringIndex(s)
		if loc == nil || loc[0] != 0 {
			return "", false
		}
		return s[:loc[1]], true
	}}
}

// Directive and variable-type keywords share one boundary set: whitespace,
// a comma, or a close-paren.
const wsBoundary = " \t\n,)"
const typeBoundary = wsBoundary

// rules is the ordered lexer table, translated from the original
// Tokenizer.h TOKEN_SPEC. Order matters: multi-character and
// keyword/directive patterns must precede the prefixes they shadow.
var rules = []rule{
	literalRule(WhitespaceSpace, " "),
	literalRule(WhitespaceTab, "\t"),
	literalRule(WhitespaceNewline, "\n"),
	regexRule(Whitespace, `^[\s]+`),

	regexRule(CommentMultiLine, `^;\*[^*]*\*+(?:[^;*][^*]*\*+)*;`),
	regexRule(CommentSingleLine, `^;.*`),

	literalRule(OpenBrace, "{"),
	literalRule(CloseBrace, "}"),
	literalRule(OpenBracket, "["),
	literalRule(CloseBracket, "]"),
	literalRule(OpenParen, "("),
	literalRule(CloseParen, ")"),
	literalRule(Comma, ","),
	literalRule(Colon, ":"),
	literalRule(Semicolon, ";"),

	keywordRule(PreprocessorInclude, "#include", wsBoundary),
	keywordRule(PreprocessorMacro, "#macro", wsBoundary),
	keywordRule(PreprocessorMacret, "#macret", wsBoundary),
	keywordRule(PreprocessorMacend, "#macend", wsBoundary),
	keywordRule(PreprocessorInvoke, "#invoke", wsBoundary),
	keywordRule(PreprocessorDefine, "#define", wsBoundary),
	keywordRule(PreprocessorUndef, "#undef", wsBoundary),
	keywordRule(PreprocessorIfdef, "#ifdef", wsBoundary),
	keywordRule(PreprocessorIfndef, "#ifndef", wsBoundary),
	keywordRule(PreprocessorIfequ, "#ifequ", wsBoundary),
	keywordRule(PreprocessorIfnequ, "#ifnequ", wsBoundary),
	keywordRule(PreprocessorIfless, "#ifless", wsBoundary),
	keywordRule(PreprocessorIfmore, "#ifmore", wsBoundary),
	keywordRule(PreprocessorElsedef, "#elsedef", wsBoundary),
	keywordRule(PreprocessorElsendef, "#elsendef", wsBoundary),
	keywordRule(PreprocessorElseequ, "#elseequ", wsBoundary),
	keywordRule(PreprocessorElsenequ, "#elsenequ", wsBoundary),
	keywordRule(PreprocessorElseless, "#elseless", wsBoundary),
	keywordRule(PreprocessorElsemore, "#elsemore", wsBoundary),
	keywordRule(PreprocessorElse, "#else", wsBoundary),
	keywordRule(PreprocessorEndif, "#endif", wsBoundary),

	keywordRule(VariableTypeByte, "BYTE", typeBoundary),
	keywordRule(VariableTypeDByte, "DBYTE", typeBoundary),
	keywordRule(VariableTypeWord, "WORD", typeBoundary),
	keywordRule(VariableTypeDWord, "DWORD", typeBoundary),

	keywordRule(AssemblerGlobal, ".global", wsBoundary),
	keywordRule(AssemblerExtern, ".extern", wsBoundary),
	keywordRule(AssemblerEqu, ".equ", wsBoundary),
	keywordRule(AssemblerOrg, ".org", wsBoundary),
	keywordRule(AssemblerScope, ".scope", wsBoundary),
	keywordRule(AssemblerScend, ".scend", wsBoundary),
	keywordRule(AssemblerDbLowEndian, ".db", wsBoundary),
	keywordRule(AssemblerDdbHighEndian, ".ddb*", wsBoundary),
	keywordRule(AssemblerDdbLowEndian, ".ddb", wsBoundary),
	keywordRule(AssemblerDwHighEndian, ".dw*", wsBoundary),
	keywordRule(AssemblerDwLowEndian, ".dw", wsBoundary),
	keywordRule(AssemblerDdwHighEndian, ".ddw*", wsBoundary),
	keywordRule(AssemblerDdwLowEndian, ".ddw", wsBoundary),
	keywordRule(AssemblerAscii, ".ascii", wsBoundary),
	keywordRule(AssemblerAsciz, ".asciz", wsBoundary),
	keywordRule(AssemblerAdvance, ".advance", wsBoundary),
	keywordRule(AssemblerFill, ".fill", wsBoundary),
	keywordRule(AssemblerSpace, ".space", wsBoundary),
	keywordRule(AssemblerCheckpc, ".checkpc", wsBoundary),
	keywordRule(AssemblerAlign, ".align", wsBoundary),
	keywordRule(AssemblerBssAbsolute, ".bss*", wsBoundary),
	keywordRule(AssemblerBss, ".bss", wsBoundary),
	keywordRule(AssemblerDataAbsolute, ".data*", wsBoundary),
	keywordRule(AssemblerData, ".data", wsBoundary),
	keywordRule(AssemblerCodeAbsolute, ".code*", wsBoundary),
	keywordRule(AssemblerCode, ".code", wsBoundary),
	keywordRule(AssemblerStop, ".stop", wsBoundary),

	literalRule(NumberSign, "#"),
	regexRule(LiteralNumberBinary, `^%[0-1]+`),
	regexRule(LiteralNumberOctal, `^@[0-7]+`),
	regexRule(LiteralNumberDecimal, `^[0-9]+`),
	regexRule(LiteralNumberHexadecimal, `^\$[0-9a-fA-F]+`),

	regexRule(LiteralChar, `^'.'`),
	regexRule(LiteralString, `^".*"`),
	regexRule(Symbol, `^[a-zA-Z_][a-zA-Z0-9_]*`),

	literalRule(OperatorAdd, "+"),
	literalRule(OperatorSub, "-"),
	literalRule(OperatorMul, "*"),
	literalRule(OperatorDiv, "/"),
	literalRule(OperatorMod, "%"),
	literalRule(OperatorLogicalOr, "||"),
	literalRule(OperatorLogicalAnd, "&&"),
	literalRule(OperatorShl, "<<"),
	literalRule(OperatorShr, ">>"),
	literalRule(OperatorXor, "^"),
	literalRule(OperatorAnd, "&"),
	literalRule(OperatorOr, "|"),
	literalRule(OperatorComplement, "~"),
	literalRule(OperatorEqual, "=="),
	literalRule(OperatorNotEqual, "!="),
	literalRule(OperatorNot, "!"),
	literalRule(OperatorLessEqual, "<="),
	literalRule(OperatorGreaterEqual, ">="),
	literalRule(OperatorLess, "<"),
	literalRule(OperatorGreater, ">"),
}

// Lex tokenizes src in full, covering every byte with exactly one token.
// file is recorded on each token's Position for diagnostics.
func Lex(file, src string) ([]Token, error) {
	var out []Token
	line, col := 1, 1
	for i := 0; i < len(src); {
		rest := src[i:]
		matched := false
		for _, r := range rules {
			lexeme, ok := r.match(rest)
			if !ok || lexeme == "" {
				continue
			}
			out = append(out, Token{
				Kind:  r.kind,
				Value: lexeme,
				Pos:   Position{File: file, Line: line, Col: col},
			})
			for _, ch := range lexeme {
				if ch == '\n' {
					line++
					col = 1
				} else {
					col++
				}
			}
			i += len(lexeme)
			matched = true
			break
		}
		if !matched {
			end := i + 16
			if end > len(src) {
				end = len(src)
			}
			return out, &ErrLex{
				Pos:     Position{File: file, Line: line, Col: col},
				Snippet: src[i:end],
			}
		}
	}
	return out, nil
}

// Join concatenates the lexemes of toks back into source text. It is the
// inverse of Lex and is used to assert the lexer round-trip property.
func Join(toks []Token) string {
	var b strings.Builder
	for _, t := range toks {
		b.WriteString(t.Value)
	}
	return b.String()
}
