package preprocessor

import (
	"strings"

	"github.com/basm32/basm32/internal/token"
)

// normalizeIndent renders the final token stream to text, discarding each
// line's original leading whitespace and re-synthesizing it from the
// .scope/.scend nesting depth. Directive expansion leaves this purely
// cosmetic: it changes no token's kind or value; it only rewrites leading
// indentation and collapses runs of consecutive newlines into one.
func normalizeIndent(toks []token.Token) string {
	var b strings.Builder
	depth := 0
	atLineStart := true
	lastByteWasNewline := true // a fresh file starts as if just after a newline

	for _, t := range toks {
		switch t.Kind {
		case token.WhitespaceSpace, token.WhitespaceTab:
			if atLineStart {
				continue
			}
			b.WriteString(t.Value)
			lastByteWasNewline = false
			continue
		case token.WhitespaceNewline:
			if lastByteWasNewline {
				continue
			}
			b.WriteByte('\n')
			atLineStart = true
			lastByteWasNewline = true
			continue
		case token.AssemblerScend:
			if depth > 0 {
				depth--
			}
		}

		if atLineStart {
			for i := 0; i < depth; i++ {
				b.WriteByte('\t')
			}
			atLineStart = false
		}
		b.WriteString(t.Value)
		lastByteWasNewline = false

		if t.Kind == token.AssemblerScope {
			depth++
		}
	}
	return b.String()
}
