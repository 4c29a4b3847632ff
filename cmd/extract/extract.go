package extract

import (
	"fmt"
	"time"

	"github.com/pgschema/supaextract/cmd/util"
	"github.com/pgschema/supaextract/internal/color"
	"github.com/pgschema/supaextract/internal/config"
	"github.com/pgschema/supaextract/internal/extract"
	"github.com/pgschema/supaextract/internal/logger"
	"github.com/pgschema/supaextract/internal/remote"
	"github.com/pgschema/supaextract/internal/render"
	"github.com/spf13/cobra"
)

var (
	url                 string
	key                 string
	timeout             time.Duration
	includeDropPolicies bool
	output              string
	toStdout            bool
	show                string
	format              string
	noColor             bool

	cfg *config.Config
)

var ExtractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract policies, functions and triggers",
	Long: `Call get_policies, get_functions and get_triggers on the backend, show the
results and write an export script that recreates them.

The URL is either a Supabase project URL (https://<ref>.supabase.co), called
through PostgREST with the API key, or a postgres:// connection string, in
which case the key is used as the password when the URL carries none.`,
	PreRunE: util.PreRunELoadConfig(&cfg),
	RunE:    runExtract,
}

func init() {
	ExtractCmd.Flags().StringVar(&url, "url", "", "Backend URL (or SUPABASE_URL)")
	ExtractCmd.Flags().StringVar(&key, "key", "", "API key (or SUPABASE_KEY)")
	ExtractCmd.Flags().DurationVar(&timeout, "timeout", config.DefaultTimeout, "Time budget for each procedure call")
	ExtractCmd.Flags().BoolVar(&includeDropPolicies, "include-drop-policies", false, "Include DROP POLICY statements in the export")
	ExtractCmd.Flags().StringVar(&output, "output", config.DefaultOutput, "Export script path")
	ExtractCmd.Flags().BoolVar(&toStdout, "stdout", false, "Print the export script to stdout instead of writing a file")
	ExtractCmd.Flags().StringVar(&show, "show", render.ViewSummary, "View to print: summary, policies, functions, triggers, all")
	ExtractCmd.Flags().StringVar(&format, "format", render.FormatTable, "View format: table, json")
	ExtractCmd.Flags().BoolVar(&noColor, "no-color", false, "Disable SQL highlighting")
}

func runExtract(cmd *cobra.Command, args []string) error {
	log := logger.Get()

	if err := render.Validate(show, format); err != nil {
		return err
	}

	session := extract.NewSession(extract.New(nil, extract.Options{CallTimeout: cfg.Timeout}))
	result, err := session.Extract(cmd.Context(), remote.Credentials{URL: cfg.URL, Key: cfg.Key})
	if err != nil {
		return err
	}
	render.Notify(cmd.ErrOrStderr(), render.ExtractSuccess, color.New(util.ColorEnabled(noColor)))

	script, err := session.Export(cfg.IncludeDropPolicies)
	if err != nil {
		return err
	}

	if toStdout {
		return util.WriteOutput(cmd.OutOrStdout(), "", script)
	}

	r := render.New(cmd.OutOrStdout(), util.ColorEnabled(noColor) && format == render.FormatTable)
	if err := r.Result(result, show, format); err != nil {
		return err
	}

	if err := util.WriteOutput(cmd.OutOrStdout(), cfg.Output, script); err != nil {
		return err
	}
	if cfg.Output != "" && cfg.Output != "-" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Export written to %s\n", cfg.Output)
	}
	log.Debug("Export generated", "drop_policies", cfg.IncludeDropPolicies, "bytes", len(script))
	return nil
}
