package token

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// dump renders a token slice as a dot-joined "KIND(value)" stream, the same
// shape the preprocessor's own golden-output tests use.
func dump(toks []Token) string {
	parts := make([]string, 0, len(toks))
	for _, t := range toks {
		parts = append(parts, t.Kind.String()+"("+t.Value+")")
	}
	return strings.Join(parts, ".")
}

type lexTest struct {
	name   string
	input  string
	output string
}

var lexTests = []lexTest{
	{"empty", "", ""},
	{"symbol", "foo", "SYMBOL(foo)"},
	{"decimal", "1234", "LITERAL_NUMBER_DECIMAL(1234)"},
	{"hex", "$1A", "LITERAL_NUMBER_HEXADECIMAL($1A)"},
	{"binary", "%1011", "LITERAL_NUMBER_BINARY(%1011)"},
	{"octal", "@17", "LITERAL_NUMBER_OCTAL(@17)"},
	{"char literal", "'x'", "LITERAL_CHAR('x')"},
	{"string literal", `"hi"`, `LITERAL_STRING("hi")`},
	{"line comment", "; hi\n", "COMMENT_SINGLE_LINE(; hi).WHITESPACE_NEWLINE(\n)"},
	{"block comment", ";* hi *;", "COMMENT_MULTI_LINE(;* hi *;)"},
	{
		"directive keyword vs prefix",
		"#ifndef FOO",
		"PREPROCESSOR_IFNDEF(#ifndef).WHITESPACE_SPACE( ).SYMBOL(FOO)",
	},
	{
		"number sign not a directive",
		"#1",
		"NUMBER_SIGN(#).LITERAL_NUMBER_DECIMAL(1)",
	},
	{
		"variable type keyword boundary",
		"BYTE(x)",
		"SYMBOL(BYTE).OPEN_PARENTHESIS(().SYMBOL(x).CLOSE_PARENTHESIS())",
	},
	{
		"identifier shadowing a keyword prefix",
		"BYTES",
		"SYMBOL(BYTES)",
	},
	{
		"bss vs bss star",
		".bss .bss*",
		".bss .bss*",
	},
	{
		"multi-char operators before single-char",
		"<= >= == != << >> || &&",
		"<= >= == != << >> || &&",
	},
	{
		"scope and scend",
		".scope\n.scend",
		"ASSEMBLER_SCOPE(.scope).WHITESPACE_NEWLINE(\n).ASSEMBLER_SCEND(.scend)",
	},
}

func TestLex(t *testing.T) {
	for _, tt := range lexTests {
		t.Run(tt.name, func(t *testing.T) {
			toks, err := Lex("<test>", tt.input)
			if err != nil {
				t.Fatalf("lex error: %v", err)
			}
			switch tt.name {
			case "bss vs bss star":
				var kinds []string
				for _, tok := range toks {
					if IsWhitespace(tok.Kind) {
						continue
					}
					kinds = append(kinds, tok.Kind.String())
				}
				got := strings.Join(kinds, " ")
				if diff := cmp.Diff("ASSEMBLER_BSS ASSEMBLER_BSS_ABSOLUTE", got); diff != "" {
					t.Errorf("mismatch (-want +got):\n%s", diff)
				}
			case "multi-char operators before single-char":
				var kinds []string
				for _, tok := range toks {
					if IsWhitespace(tok.Kind) {
						continue
					}
					kinds = append(kinds, tok.Value)
				}
				got := strings.Join(kinds, " ")
				want := tt.output
				if diff := cmp.Diff(want, got); diff != "" {
					t.Errorf("mismatch (-want +got):\n%s", diff)
				}
			default:
				if diff := cmp.Diff(tt.output, dump(toks)); diff != "" {
					t.Errorf("mismatch (-want +got):\n%s", diff)
				}
			}
		})
	}
}

func TestLexRoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"#define FOO 42\nFOO",
		".scope\n\tmov r0, #1\n.scend\n",
		"; a comment\nBYTE(x) WORD(y)\n",
		`"a string with spaces" 'c' $FF %101 @17 1234`,
	}
	for _, in := range inputs {
		toks, err := Lex("<roundtrip>", in)
		if err != nil {
			t.Fatalf("lex(%q): %v", in, err)
		}
		if got := Join(toks); got != in {
			t.Errorf("round trip mismatch: got %q, want %q", got, in)
		}
	}
}

func TestBadLex(t *testing.T) {
	_, err := Lex("<test>", "`")
	if err == nil {
		t.Fatalf("expected lex error for unmatched input")
	}
	var lexErr *ErrLex
	if !errors.As(err, &lexErr) {
		t.Fatalf("expected *ErrLex, got %T", err)
	}
}

func TestCategoryPredicates(t *testing.T) {
	cases := []struct {
		k    Kind
		pred func(Kind) bool
		want bool
	}{
		{WhitespaceSpace, IsWhitespace, true},
		{Symbol, IsWhitespace, false},
		{CommentSingleLine, IsComment, true},
		{PreprocessorIfdef, IsPreprocessorDirective, true},
		{AssemblerScope, IsPreprocessorDirective, false},
		{VariableTypeByte, IsVariableType, true},
		{LiteralNumberHexadecimal, IsLiteralNumber, true},
		{LiteralString, IsLiteralValue, true},
		{OperatorShl, IsOperator, true},
		{Comma, IsOperator, false},
	}
	for _, c := range cases {
		if got := c.pred(c.k); got != c.want {
			t.Errorf("predicate(%v) = %v, want %v", c.k, got, c.want)
		}
	}
}
