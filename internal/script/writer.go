package script

import (
	"strings"
)

// SQLWriter is a helper for building SQL scripts section by section
type SQLWriter struct {
	output strings.Builder
}

// NewSQLWriter creates a new SQLWriter
func NewSQLWriter() *SQLWriter {
	return &SQLWriter{}
}

// WriteString writes a string to the output
func (w *SQLWriter) WriteString(s string) {
	w.output.WriteString(s)
}

// WriteComment writes a single "-- " comment line
func (w *SQLWriter) WriteComment(text string) {
	w.output.WriteString("-- ")
	w.output.WriteString(text)
	w.output.WriteString("\n")
}

// WriteSectionHeader starts a section: a comment line naming it
func (w *SQLWriter) WriteSectionHeader(title string) {
	w.WriteComment(title)
}

// WriteStatement writes a statement followed by a newline
func (w *SQLWriter) WriteStatement(stmt string) {
	w.output.WriteString(stmt)
	if !strings.HasSuffix(stmt, "\n") {
		w.output.WriteString("\n")
	}
}

// WriteBlankLine separates sections and multi-line statements
func (w *SQLWriter) WriteBlankLine() {
	w.output.WriteString("\n")
}

// String returns the accumulated SQL output
func (w *SQLWriter) String() string {
	return w.output.String()
}
