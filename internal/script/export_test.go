package script

import (
	"regexp"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	pg_query "github.com/pganalyze/pg_query_go/v6"
	"github.com/pgschema/supaextract/internal/ir"
)

var dropPolicyPattern = regexp.MustCompile(`(?i)DROP\s+POLICY`)

func sampleResult() *ir.Result {
	return ir.NewResult(
		[]ir.Policy{
			{Name: "Users read own rows", TableName: "public.profiles", Command: ir.PolicyCommandSelect, Definition: "(auth.uid() = id)"},
			{Name: "admins", TableName: "public.audit_log", Command: ir.PolicyCommandAll, Definition: "true"},
		},
		[]ir.Function{
			{
				Name:       "handle_new_user",
				Schema:     "public",
				Language:   "plpgsql",
				Arguments:  "",
				Definition: "CREATE OR REPLACE FUNCTION public.handle_new_user()\n RETURNS trigger\n LANGUAGE plpgsql\nAS $function$\nBEGIN\n  RETURN NEW;\nEND;\n$function$;",
			},
		},
		[]ir.Trigger{
			{
				Name:       "on_profile_created",
				TableName:  "public.profiles",
				Event:      ir.TriggerLevelRow,
				Timing:     ir.TriggerTimingAfter,
				Definition: "CREATE TRIGGER on_profile_created AFTER INSERT ON public.profiles FOR EACH ROW EXECUTE FUNCTION handle_new_user()",
			},
		},
	)
}

func TestBuildExportScript_SinglePolicyWithDrop(t *testing.T) {
	result := ir.NewResult(
		[]ir.Policy{{Name: "p1", TableName: "t1", Command: "SELECT", Definition: "true"}},
		[]ir.Function{},
		[]ir.Trigger{},
	)

	got := BuildExportScript(result, true)
	want := `-- Supabase Export

-- Drop existing policies
DROP POLICY IF EXISTS "p1" ON t1;

-- Policies
CREATE POLICY "p1" ON t1
  FOR SELECT
  USING (true);

-- Functions

-- Triggers
`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("export script mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildExportScript_DropSection(t *testing.T) {
	result := sampleResult()
	script := BuildExportScript(result, true)

	var drops []string
	for _, line := range strings.Split(script, "\n") {
		if strings.HasPrefix(line, "DROP POLICY") {
			drops = append(drops, line)
		}
	}
	if len(drops) != len(result.Policies) {
		t.Fatalf("expected %d drop statements, got %d", len(result.Policies), len(drops))
	}
	for i, p := range result.Policies {
		if !strings.Contains(drops[i], `"`+p.Name+`"`) || !strings.Contains(drops[i], " ON "+p.TableName+";") {
			t.Errorf("drop statement %d %q does not reference %s on %s", i, drops[i], p.Name, p.TableName)
		}
	}

	// Drops come before any CREATE POLICY
	if strings.LastIndex(script, "DROP POLICY") > strings.Index(script, "CREATE POLICY") {
		t.Error("drop statements must precede policy creation")
	}
}

func TestBuildExportScript_WithoutDrop(t *testing.T) {
	script := BuildExportScript(sampleResult(), false)
	if dropPolicyPattern.MatchString(script) {
		t.Errorf("script should not contain drop statements:\n%s", script)
	}
}

func TestBuildExportScript_SectionOrder(t *testing.T) {
	script := BuildExportScript(sampleResult(), true)

	headers := []string{"-- Supabase Export", "-- Drop existing policies", "-- Policies", "-- Functions", "-- Triggers"}
	last := -1
	for _, h := range headers {
		idx := strings.Index(script, h+"\n")
		if idx < 0 {
			t.Fatalf("missing header %q", h)
		}
		if idx <= last {
			t.Errorf("header %q is out of order", h)
		}
		last = idx
	}
}

func TestBuildExportScript_PreservesRowOrder(t *testing.T) {
	result := ir.NewResult(
		[]ir.Policy{
			{Name: "zeta", TableName: "b", Command: "ALL", Definition: "true"},
			{Name: "alpha", TableName: "a", Command: "ALL", Definition: "true"},
		},
		[]ir.Function{
			{Name: "z", Definition: "CREATE FUNCTION z() RETURNS int LANGUAGE sql AS 'SELECT 1';"},
			{Name: "a", Definition: "CREATE FUNCTION a() RETURNS int LANGUAGE sql AS 'SELECT 2';"},
		},
		[]ir.Trigger{
			{Name: "t2", Definition: "CREATE TRIGGER t2 AFTER INSERT ON b FOR EACH ROW EXECUTE FUNCTION z()"},
			{Name: "t1", Definition: "CREATE TRIGGER t1 AFTER INSERT ON a FOR EACH ROW EXECUTE FUNCTION a()"},
		},
	)
	script := BuildExportScript(result, false)

	pairs := [][2]string{
		{`CREATE POLICY "zeta"`, `CREATE POLICY "alpha"`},
		{"CREATE FUNCTION z()", "CREATE FUNCTION a()"},
		{"CREATE TRIGGER t2", "CREATE TRIGGER t1"},
	}
	for _, p := range pairs {
		if strings.Index(script, p[0]) > strings.Index(script, p[1]) {
			t.Errorf("%q should appear before %q", p[0], p[1])
		}
	}
}

func TestBuildExportScript_FunctionsAndTriggers(t *testing.T) {
	result := sampleResult()
	script := BuildExportScript(result, false)

	if !strings.Contains(script, result.Functions[0].Definition+"\n") {
		t.Error("function definition should be emitted verbatim")
	}
	if !strings.Contains(script, result.Triggers[0].Definition+";\n") {
		t.Error("trigger definition should be terminated with a semicolon")
	}

	// A definition that already ends with a terminator is not doubled
	result.Triggers[0].Definition += ";\n"
	script = BuildExportScript(result, false)
	if strings.Contains(script, ";;") {
		t.Errorf("trigger terminator was doubled:\n%s", script)
	}
}

func TestBuildExportScript_QuotesPolicyNames(t *testing.T) {
	result := ir.NewResult(
		[]ir.Policy{{Name: `say "hi"`, TableName: "t", Command: "SELECT", Definition: "true"}},
		nil, nil,
	)
	script := BuildExportScript(result, true)
	if !strings.Contains(script, `DROP POLICY IF EXISTS "say ""hi""" ON t;`) {
		t.Errorf("policy name not quoted as identifier:\n%s", script)
	}
}

func TestBuildExportScript_Empty(t *testing.T) {
	want := "-- Supabase Export\n\n-- Policies\n\n-- Functions\n\n-- Triggers\n"

	if got := BuildExportScript(ir.NewResult(nil, nil, nil), false); got != want {
		t.Errorf("unexpected empty export:\n%s", cmp.Diff(want, got))
	}
	if got := BuildExportScript(nil, false); got != want {
		t.Errorf("nil result should render like an empty one:\n%s", cmp.Diff(want, got))
	}
}

func TestBuildExportScript_Deterministic(t *testing.T) {
	result := sampleResult()
	for _, drop := range []bool{true, false} {
		if BuildExportScript(result, drop) != BuildExportScript(result, drop) {
			t.Errorf("BuildExportScript(drop=%v) is not deterministic", drop)
		}
	}
}

func TestBuildExportScript_Parses(t *testing.T) {
	script := BuildExportScript(sampleResult(), true)

	result, err := pg_query.Parse(script)
	if err != nil {
		t.Fatalf("export script does not parse: %v\n%s", err, script)
	}
	// 2 drops, 2 policies, 1 function, 1 trigger
	if len(result.Stmts) != 6 {
		t.Errorf("expected 6 statements, got %d", len(result.Stmts))
	}
}
