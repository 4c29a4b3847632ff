package render

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// sqlLexer prefers the PostgreSQL dialect and falls back to generic SQL.
var sqlLexer = func() chroma.Lexer {
	l := lexers.Get("PostgreSQL")
	if l == nil {
		l = lexers.Get("SQL")
	}
	if l == nil {
		l = lexers.Fallback
	}
	return chroma.Coalesce(l)
}()

// highlight returns code with terminal colour escapes, or code unchanged
// when colour is off or tokenising fails.
func (r *Renderer) highlight(code string) string {
	if !r.Color {
		return code
	}

	iter, err := sqlLexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}

	var b strings.Builder
	if err := formatters.TTY256.Format(&b, style, iter); err != nil {
		return code
	}
	return b.String()
}
