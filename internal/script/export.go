package script

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/lib/pq"
	"github.com/pgschema/supaextract/internal/ir"
)

// ExportFileName is the default name of the downloaded export script.
const ExportFileName = "supabase_export.sql"

// BuildExportScript renders result as an executable script. Sections appear
// in a fixed order: optional DROP POLICY statements, CREATE POLICY statements,
// function definitions, trigger definitions. Rows keep the order in which the
// backend returned them.
func BuildExportScript(result *ir.Result, includeDropStatements bool) string {
	if result == nil {
		result = ir.NewResult(nil, nil, nil)
	}
	w := NewSQLWriter()

	w.WriteComment("Supabase Export")
	w.WriteBlankLine()

	if includeDropStatements {
		w.WriteSectionHeader("Drop existing policies")
		for _, p := range result.Policies {
			w.WriteStatement(dropPolicySQL(p))
		}
		w.WriteBlankLine()
	}

	w.WriteSectionHeader("Policies")
	for _, p := range result.Policies {
		w.WriteStatement(createPolicySQL(p))
		w.WriteBlankLine()
	}
	if len(result.Policies) == 0 {
		w.WriteBlankLine()
	}

	w.WriteSectionHeader("Functions")
	for _, f := range result.Functions {
		w.WriteStatement(f.Definition)
		w.WriteBlankLine()
	}
	if len(result.Functions) == 0 {
		w.WriteBlankLine()
	}

	w.WriteSectionHeader("Triggers")
	for _, tr := range result.Triggers {
		w.WriteStatement(terminate(tr.Definition))
	}

	return w.String()
}

func dropPolicySQL(p ir.Policy) string {
	return fmt.Sprintf("DROP POLICY IF EXISTS %s ON %s;", pq.QuoteIdentifier(p.Name), p.TableName)
}

func createPolicySQL(p ir.Policy) string {
	return fmt.Sprintf("CREATE POLICY %s ON %s\n  FOR %s\n  USING (%s);",
		pq.QuoteIdentifier(p.Name), p.TableName, p.Command, p.Definition)
}

// terminate appends a semicolon unless the statement already ends with one.
func terminate(stmt string) string {
	stmt = strings.TrimRightFunc(stmt, unicode.IsSpace)
	if strings.HasSuffix(stmt, ";") {
		return stmt
	}
	return stmt + ";"
}
