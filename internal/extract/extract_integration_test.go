package extract

import (
	"context"
	"strings"
	"testing"
	"time"

	pg_query "github.com/pganalyze/pg_query_go/v6"
	"github.com/pgschema/supaextract/internal/ir"
	"github.com/pgschema/supaextract/internal/remote"
	"github.com/pgschema/supaextract/testutil"
)

const fixtureSQL = `
CREATE TABLE public.todos (
    id bigint PRIMARY KEY,
    title text NOT NULL,
    updated_at timestamptz
);
ALTER TABLE public.todos ENABLE ROW LEVEL SECURITY;
CREATE POLICY "Todos are readable" ON public.todos FOR SELECT USING (true);

CREATE FUNCTION public.touch_updated_at() RETURNS trigger
LANGUAGE plpgsql AS $$
BEGIN
  NEW.updated_at := now();
  RETURN NEW;
END;
$$;

CREATE TRIGGER todos_touch BEFORE UPDATE ON public.todos
FOR EACH ROW EXECUTE FUNCTION public.touch_updated_at();

CREATE SCHEMA storage;
CREATE FUNCTION storage.hidden() RETURNS int LANGUAGE sql AS 'SELECT 1';
`

func TestExtractPostgres_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	container := testutil.SetupPostgresContainer(ctx, t)
	defer container.Terminate(ctx, t)

	creds := remote.Credentials{URL: container.DSN, Key: "testpass"}
	session := NewSession(New(nil, Options{CallTimeout: 30 * time.Second}))

	// Before setup the procedures are missing
	if _, err := session.Extract(ctx, creds); !IsKind(err, KindSetupRequired) {
		t.Fatalf("Expected setup required before setup, got %v", err)
	}

	if err := session.RunSetup(ctx, creds); err != nil {
		t.Fatalf("RunSetup failed: %v", err)
	}
	if _, err := container.Conn.ExecContext(ctx, fixtureSQL); err != nil {
		t.Fatalf("Failed to create fixture: %v", err)
	}

	result, err := session.Extract(ctx, creds)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	wantPolicy := ir.Policy{Name: "Todos are readable", TableName: "public.todos", Command: ir.PolicyCommandSelect, Definition: "true"}
	if len(result.Policies) != 1 || result.Policies[0] != wantPolicy {
		t.Errorf("Expected %+v, got %+v", wantPolicy, result.Policies)
	}

	var touch *ir.Function
	for i := range result.Functions {
		f := &result.Functions[i]
		if f.Schema == "storage" {
			t.Errorf("Function %s in an excluded schema was reported", f.Title())
		}
		if f.Name == "touch_updated_at" {
			touch = f
		}
	}
	if touch == nil {
		t.Fatalf("touch_updated_at not reported in %+v", result.Functions)
	}
	if touch.Language != "plpgsql" || !strings.HasSuffix(touch.Definition, ";") {
		t.Errorf("Unexpected function row %+v", touch)
	}

	if len(result.Triggers) != 1 {
		t.Fatalf("Expected 1 trigger, got %+v", result.Triggers)
	}
	tr := result.Triggers[0]
	if tr.Name != "todos_touch" || tr.TableName != "public.todos" || tr.Event != ir.TriggerLevelRow || tr.Timing != ir.TriggerTimingBefore {
		t.Errorf("Unexpected trigger row %+v", tr)
	}

	export, err := session.Export(true)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if _, err := pg_query.Parse(export); err != nil {
		t.Errorf("Export does not parse: %v\n%s", err, export)
	}
	if !strings.Contains(export, `DROP POLICY IF EXISTS "Todos are readable" ON public.todos;`) {
		t.Errorf("Export missing drop statement:\n%s", export)
	}
}
