// Package render prints extraction results for the terminal: the tab
// summary, the policy table, and code views for functions and triggers.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pgschema/supaextract/internal/ir"
)

// Views selectable with --show.
const (
	ViewSummary   = "summary"
	ViewPolicies  = "policies"
	ViewFunctions = "functions"
	ViewTriggers  = "triggers"
	ViewAll       = "all"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// Renderer writes views to Out. Color enables SQL highlighting in code views.
type Renderer struct {
	Out   io.Writer
	Color bool
}

// New creates a Renderer.
func New(out io.Writer, color bool) *Renderer {
	return &Renderer{Out: out, Color: color}
}

// Validate checks view and format before any work is done.
func Validate(view, format string) error {
	switch view {
	case ViewSummary, ViewPolicies, ViewFunctions, ViewTriggers, ViewAll, "":
	default:
		return fmt.Errorf("unsupported view %q", view)
	}
	switch format {
	case FormatTable, FormatJSON, "":
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
	return nil
}

// Result renders the requested view of result in the given format.
func (r *Renderer) Result(result *ir.Result, view, format string) error {
	if result == nil {
		result = ir.NewResult(nil, nil, nil)
	}

	switch format {
	case FormatJSON:
		return r.json(result, view)
	case FormatTable, "":
	default:
		return fmt.Errorf("unsupported format %q", format)
	}

	switch view {
	case ViewSummary, "":
		r.Summary(result)
	case ViewPolicies:
		r.Policies(result.Policies)
	case ViewFunctions:
		r.Functions(result.Functions)
	case ViewTriggers:
		r.Triggers(result.Triggers)
	case ViewAll:
		r.Summary(result)
		r.Policies(result.Policies)
		r.Functions(result.Functions)
		r.Triggers(result.Triggers)
	default:
		return fmt.Errorf("unsupported view %q", view)
	}
	return nil
}

func (r *Renderer) json(result *ir.Result, view string) error {
	var v any
	switch view {
	case ViewSummary, "":
		c := result.Counts()
		v = map[string]int{"policies": c.Policies, "functions": c.Functions, "triggers": c.Triggers}
	case ViewPolicies:
		v = result.Policies
	case ViewFunctions:
		v = result.Functions
	case ViewTriggers:
		v = result.Triggers
	case ViewAll:
		v = result
	default:
		return fmt.Errorf("unsupported view %q", view)
	}

	enc := json.NewEncoder(r.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// TabLabels returns the tab titles with their row counts.
func TabLabels(result *ir.Result) []string {
	c := result.Counts()
	return []string{
		fmt.Sprintf("Policies (%d)", c.Policies),
		fmt.Sprintf("Functions (%d)", c.Functions),
		fmt.Sprintf("Triggers (%d)", c.Triggers),
	}
}

// Summary prints one row per tab with its count.
func (r *Renderer) Summary(result *ir.Result) {
	c := result.Counts()

	t := table.NewWriter()
	t.SetOutputMirror(r.Out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Object", "Count"})
	t.AppendRow(table.Row{"Policies", c.Policies})
	t.AppendRow(table.Row{"Functions", c.Functions})
	t.AppendRow(table.Row{"Triggers", c.Triggers})
	t.Render()
}

// Policies prints the policy table.
func (r *Renderer) Policies(policies []ir.Policy) {
	r.heading(fmt.Sprintf("Policies (%d)", len(policies)))
	if len(policies) == 0 {
		_, _ = fmt.Fprintln(r.Out, "(0 rows)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.Out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Name", "Table", "Command", "Definition"})
	for _, p := range policies {
		t.AppendRow(table.Row{p.Name, p.TableName, p.Command, p.Definition})
	}
	t.Render()
}

// Functions prints one code view per function.
func (r *Renderer) Functions(functions []ir.Function) {
	r.heading(fmt.Sprintf("Functions (%d)", len(functions)))
	for i := range functions {
		r.CodeBlock(functions[i].Title(), functions[i].Definition)
	}
}

// Triggers prints one code view per trigger.
func (r *Renderer) Triggers(triggers []ir.Trigger) {
	r.heading(fmt.Sprintf("Triggers (%d)", len(triggers)))
	for i := range triggers {
		r.CodeBlock(triggers[i].Title(), triggers[i].Definition)
	}
}

// CodeBlock prints a titled block of SQL.
func (r *Renderer) CodeBlock(title, code string) {
	_, _ = fmt.Fprintf(r.Out, "-- %s\n", title)
	_, _ = fmt.Fprint(r.Out, r.highlight(code))
	if !strings.HasSuffix(code, "\n") {
		_, _ = fmt.Fprintln(r.Out)
	}
	_, _ = fmt.Fprintln(r.Out)
}

func (r *Renderer) heading(title string) {
	_, _ = fmt.Fprintf(r.Out, "\n%s\n%s\n", title, strings.Repeat("=", len(title)))
}
