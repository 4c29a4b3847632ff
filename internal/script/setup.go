// Package script generates the SQL text supaextract hands to users: the setup
// script that installs the metadata functions, and the export script that
// recreates extracted policies, functions and triggers.
package script

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/pgschema/supaextract/internal/config"
	"github.com/pgschema/supaextract/internal/remote"
)

// SetupGrantees receive EXECUTE on every installed function.
var SetupGrantees = []string{"authenticated", "service_role"}

// installedFunctions lists the signatures created by the setup script, in
// creation order.
var installedFunctions = []string{
	remote.ProcedureSchema + "." + remote.ProcGetPolicies + "()",
	remote.ProcedureSchema + "." + remote.ProcGetFunctions + "()",
	remote.ProcedureSchema + "." + remote.ProcGetTriggers + "()",
	remote.ProcedureSchema + "." + remote.ProcExecSQL + "(text)",
}

const getPoliciesSQL = `CREATE OR REPLACE FUNCTION public.get_policies()
RETURNS TABLE (name text, table_name text, command text, definition text)
LANGUAGE sql
SECURITY DEFINER
SET search_path = ''
AS $$
  SELECT
    p.policyname::text AS name,
    format('%I.%I', p.schemaname, p.tablename) AS table_name,
    p.cmd::text AS command,
    coalesce(p.qual, p.with_check, 'true') AS definition
  FROM pg_catalog.pg_policies p
  ORDER BY p.schemaname, p.tablename, p.policyname;
$$;`

const getFunctionsHead = `CREATE OR REPLACE FUNCTION public.get_functions()
RETURNS TABLE (name text, schema text, language text, definition text, arguments text)
LANGUAGE sql
SECURITY DEFINER
SET search_path = ''
AS $$
  SELECT
    p.proname::text AS name,
    n.nspname::text AS schema,
    l.lanname::text AS language,
    rtrim(pg_catalog.pg_get_functiondef(p.oid), E'\n') || ';' AS definition,
    pg_catalog.pg_get_function_identity_arguments(p.oid) AS arguments
  FROM pg_catalog.pg_proc p
  JOIN pg_catalog.pg_namespace n ON n.oid = p.pronamespace
  JOIN pg_catalog.pg_language l ON l.oid = p.prolang
  WHERE p.prokind = 'f'
    AND p.proowner = (SELECT r.oid FROM pg_catalog.pg_roles r WHERE r.rolname = current_user)
`

const getFunctionsTail = `  ORDER BY n.nspname, p.proname, pg_catalog.pg_get_function_identity_arguments(p.oid);
$$;`

const getTriggersHead = `CREATE OR REPLACE FUNCTION public.get_triggers()
RETURNS TABLE (name text, table_name text, event text, timing text, definition text)
LANGUAGE sql
SECURITY DEFINER
SET search_path = ''
AS $$
  SELECT
    t.tgname::text AS name,
    format('%I.%I', n.nspname, c.relname) AS table_name,
    CASE WHEN (t.tgtype::int & 1) = 1 THEN 'ROW' ELSE 'STATEMENT' END AS event,
    CASE
      WHEN (t.tgtype::int & 2) = 2 THEN 'BEFORE'
      WHEN (t.tgtype::int & 64) = 64 THEN 'INSTEAD OF'
      ELSE 'AFTER'
    END AS timing,
    pg_catalog.pg_get_triggerdef(t.oid) AS definition
  FROM pg_catalog.pg_trigger t
  JOIN pg_catalog.pg_class c ON c.oid = t.tgrelid
  JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
  WHERE NOT t.tgisinternal
`

const getTriggersTail = `  ORDER BY n.nspname, c.relname, t.tgname;
$$;`

const execSQL = `CREATE OR REPLACE FUNCTION public.exec_sql(sql text)
RETURNS void
LANGUAGE plpgsql
SECURITY DEFINER
AS $$
BEGIN
  EXECUTE sql;
END;
$$;`

// BuildSetupScript returns the script that (re)creates get_policies,
// get_functions, get_triggers and exec_sql and grants access to them. The
// output depends only on cfg.
func BuildSetupScript(cfg config.ExclusionConfig) string {
	cfg = cfg.Normalize()
	w := NewSQLWriter()

	w.WriteComment("Supabase Extractor setup")
	w.WriteComment("Creates the functions used to read policies, functions and triggers,")
	w.WriteComment("plus exec_sql for running SQL remotely. Safe to run more than once.")
	w.WriteBlankLine()

	w.WriteSectionHeader("Function to list row level security policies")
	w.WriteStatement(getPoliciesSQL)
	w.WriteBlankLine()

	w.WriteSectionHeader("Function to list user defined functions")
	w.WriteStatement(getFunctionsHead + schemaExclusion("n.nspname", cfg.FunctionSchemas) + getFunctionsTail)
	w.WriteBlankLine()

	w.WriteSectionHeader("Function to list triggers")
	w.WriteStatement(getTriggersHead + schemaExclusion("n.nspname", cfg.TriggerSchemas) + getTriggersTail)
	w.WriteBlankLine()

	w.WriteSectionHeader("Function to execute SQL")
	w.WriteStatement(execSQL)
	w.WriteBlankLine()

	w.WriteSectionHeader("Grants")
	grantees := strings.Join(SetupGrantees, ", ")
	for _, sig := range installedFunctions {
		w.WriteStatement(fmt.Sprintf("GRANT EXECUTE ON FUNCTION %s TO %s;", sig, grantees))
	}
	w.WriteBlankLine()

	w.WriteSectionHeader("Reload the PostgREST schema cache so the functions can be called")
	w.WriteStatement("NOTIFY pgrst, 'reload schema';")

	return w.String()
}

// schemaExclusion renders "    AND <column> NOT IN ('a', 'b')\n". An empty
// list yields no clause at all since NOT IN () is not valid SQL.
func schemaExclusion(column string, schemas []string) string {
	if len(schemas) == 0 {
		return ""
	}
	quoted := make([]string, len(schemas))
	for i, s := range schemas {
		quoted[i] = pq.QuoteLiteral(s)
	}
	return fmt.Sprintf("    AND %s NOT IN (%s)\n", column, strings.Join(quoted, ", "))
}

// SecurityNote is shown whenever the setup script is printed or applied.
const SecurityNote = "For security reasons, remember to remove the setup functions after extracting your data."

// BuildTeardownScript returns the script that removes everything the setup
// script installed.
func BuildTeardownScript() string {
	w := NewSQLWriter()
	w.WriteComment("Supabase Extractor teardown")
	w.WriteComment("Removes the functions created by the setup script.")
	w.WriteBlankLine()
	for _, sig := range installedFunctions {
		w.WriteStatement(fmt.Sprintf("DROP FUNCTION IF EXISTS %s;", sig))
	}
	w.WriteBlankLine()
	w.WriteStatement("NOTIFY pgrst, 'reload schema';")
	return w.String()
}
