package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pgschema/supaextract/internal/extract"
	"github.com/spf13/pflag"
)

// resetFlags restores every flag to its default so tests do not leak state
// through the package level command.
func resetFlags(t *testing.T) {
	t.Helper()
	ExtractCmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	cfg = nil
}

// isolate runs the test in an empty directory without ambient credentials.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, name := range []string{"SUPABASE_URL", "SUPABASE_KEY", "SUPAEXTRACT_URL", "SUPAEXTRACT_KEY", "SUPAEXTRACT_CONFIG"} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
	t.Setenv("NO_COLOR", "1")
	resetFlags(t)
	return dir
}

// newPostgREST serves fixed JSON bodies per procedure and 404 otherwise.
func newPostgREST(t *testing.T, bodies map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("apikey") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Invalid API key"}`))
			return
		}
		name := strings.TrimPrefix(r.URL.Path, "/rest/v1/rpc/")
		body, ok := bodies[name]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"code":    "PGRST202",
				"message": "Could not find the function public." + name + " without parameters in the schema cache",
			})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

var fullBodies = map[string]string{
	"get_policies":  `[{"name":"p1","table_name":"t1","command":"SELECT","definition":"true"}]`,
	"get_functions": `[]`,
	"get_triggers":  `[]`,
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	ExtractCmd.SetOut(&stdout)
	ExtractCmd.SetErr(&stderr)
	ExtractCmd.SetArgs(args)
	err := ExtractCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestExtractCommand_WritesExport(t *testing.T) {
	dir := isolate(t)
	srv := newPostgREST(t, fullBodies)

	stdout, stderr, err := run(t, "--url", srv.URL, "--key", "test-key", "--include-drop-policies", "--show", "policies")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if !strings.Contains(stderr, "Success: Successfully extracted database information") {
		t.Errorf("Expected success notification, got %q", stderr)
	}
	if !strings.Contains(stdout, "Policies (1)") || !strings.Contains(stdout, "p1") {
		t.Errorf("Expected policy table, got:\n%s", stdout)
	}

	data, err := os.ReadFile(filepath.Join(dir, "supabase_export.sql"))
	if err != nil {
		t.Fatalf("export file not written: %v", err)
	}
	want := "-- Supabase Export\n\n-- Drop existing policies\nDROP POLICY IF EXISTS \"p1\" ON t1;\n\n" +
		"-- Policies\nCREATE POLICY \"p1\" ON t1\n  FOR SELECT\n  USING (true);\n\n-- Functions\n\n-- Triggers\n"
	if string(data) != want {
		t.Errorf("Unexpected export:\n%s", data)
	}
}

func TestExtractCommand_Stdout(t *testing.T) {
	isolate(t)
	srv := newPostgREST(t, fullBodies)

	stdout, _, err := run(t, "--url", srv.URL, "--key", "test-key", "--stdout")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if !strings.HasPrefix(stdout, "-- Supabase Export\n") {
		t.Errorf("Expected export on stdout, got:\n%s", stdout)
	}
	if strings.Contains(stdout, "DROP POLICY") {
		t.Error("DROP POLICY should be off by default")
	}
	if _, err := os.Stat(filepath.Join(".", "supabase_export.sql")); !os.IsNotExist(err) {
		t.Error("No export file should be written with --stdout")
	}
}

func TestExtractCommand_Failures(t *testing.T) {
	tests := []struct {
		name     string
		bodies   map[string]string
		args     []string
		wantKind extract.Kind
	}{
		{
			name:     "missing credentials",
			bodies:   fullBodies,
			args:     []string{"--key", "test-key"},
			wantKind: extract.KindMissingCredentials,
		},
		{
			name:     "setup required",
			bodies:   map[string]string{},
			args:     []string{"--key", "test-key"},
			wantKind: extract.KindSetupRequired,
		},
		{
			name:     "bad key",
			bodies:   fullBodies,
			args:     []string{"--key", "wrong"},
			wantKind: extract.KindAuthentication,
		},
		{
			name: "permission denied",
			bodies: map[string]string{
				"get_policies":  `[]`,
				"get_functions": `null`,
				"get_triggers":  `[]`,
			},
			args:     []string{"--key", "test-key"},
			wantKind: extract.KindPermissionDenied,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			srv := newPostgREST(t, tt.bodies)

			args := tt.args
			if tt.wantKind != extract.KindMissingCredentials {
				args = append([]string{"--url", srv.URL}, args...)
			}
			_, _, err := run(t, args...)

			var extractErr *extract.Error
			if !errors.As(err, &extractErr) {
				t.Fatalf("Expected *extract.Error, got %v", err)
			}
			if extractErr.Kind != tt.wantKind {
				t.Errorf("Expected kind %s, got %s", tt.wantKind, extractErr.Kind)
			}
			if _, err := os.Stat(filepath.Join(dir, "supabase_export.sql")); !os.IsNotExist(err) {
				t.Error("No export should be written after a failure")
			}
		})
	}
}

func TestExtractCommand_InvalidView(t *testing.T) {
	isolate(t)
	if _, _, err := run(t, "--url", "https://x.supabase.co", "--key", "k", "--show", "tables"); err == nil {
		t.Fatal("Expected error for unknown view")
	}
}
