package setup

import (
	"fmt"
	"time"

	"github.com/pgschema/supaextract/cmd/util"
	"github.com/pgschema/supaextract/internal/color"
	"github.com/pgschema/supaextract/internal/config"
	"github.com/pgschema/supaextract/internal/extract"
	"github.com/pgschema/supaextract/internal/remote"
	"github.com/pgschema/supaextract/internal/render"
	"github.com/pgschema/supaextract/internal/script"
	"github.com/spf13/cobra"
)

var (
	url             string
	key             string
	timeout         time.Duration
	apply           bool
	teardown        bool
	output          string
	functionSchemas []string
	triggerSchemas  []string
	resetExclusions bool

	cfg *config.Config
)

var SetupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Print or install the extractor functions",
	Long: `Generate the SQL that creates get_policies, get_functions, get_triggers and
exec_sql on the backend.

By default the script is printed so it can be pasted into the SQL editor.
With --apply it is sent through exec_sql (or run directly for postgres://
URLs). Functions and triggers in the excluded schemas are never reported.`,
	PreRunE: util.PreRunELoadConfig(&cfg),
	RunE:    runSetup,
}

func init() {
	SetupCmd.Flags().StringVar(&url, "url", "", "Backend URL (or SUPABASE_URL), required with --apply")
	SetupCmd.Flags().StringVar(&key, "key", "", "API key (or SUPABASE_KEY), required with --apply")
	SetupCmd.Flags().DurationVar(&timeout, "timeout", config.DefaultTimeout, "Time budget for applying the script")
	SetupCmd.Flags().BoolVar(&apply, "apply", false, "Install the functions on the backend instead of printing the script")
	SetupCmd.Flags().BoolVar(&teardown, "teardown", false, "Print the script that removes the functions")
	SetupCmd.Flags().StringVar(&output, "output", "", "Write the script to this file instead of stdout")
	SetupCmd.Flags().StringSliceVar(&functionSchemas, "exclude-function-schemas", config.DefaultFunctionSchemas, "Schemas whose functions are not reported")
	SetupCmd.Flags().StringSliceVar(&triggerSchemas, "exclude-trigger-schemas", config.DefaultTriggerSchemas, "Schemas whose triggers are not reported")
	SetupCmd.Flags().BoolVar(&resetExclusions, "reset-exclusions", false, "Ignore configured exclusions and use the defaults")
}

func runSetup(cmd *cobra.Command, args []string) error {
	if apply && teardown {
		return fmt.Errorf("--apply and --teardown cannot be used together")
	}

	if teardown {
		return util.WriteOutput(cmd.OutOrStdout(), output, script.BuildTeardownScript())
	}

	c := color.New(util.ColorEnabled(false))
	session := extract.NewSession(extract.New(nil, extract.Options{CallTimeout: cfg.Timeout}))
	session.SetExclusions(cfg.Exclusions)
	if resetExclusions {
		session.ResetFunctionSchemas()
		session.ResetTriggerSchemas()
	}

	if apply {
		if err := session.RunSetup(cmd.Context(), remote.Credentials{URL: cfg.URL, Key: cfg.Key}); err != nil {
			return err
		}
		render.Notify(cmd.ErrOrStderr(), render.SetupSuccess, c)
	} else if err := util.WriteOutput(cmd.OutOrStdout(), output, session.SetupScript()); err != nil {
		return err
	}

	render.Notify(cmd.ErrOrStderr(), render.Warning("Security note", script.SecurityNote), c)
	return nil
}
