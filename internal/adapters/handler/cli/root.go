package cli

import (
	"github.com/spf13/cobra"

	"github.com/vncsmyrnk/pollctl/internal/config"
)

type rootFlags struct {
	apiBase  string
	wsBase   string
	profile  string
	logLevel string
}

func NewRootCommand(app *App) *cobra.Command {
	var flags rootFlags

	cmd := &cobra.Command{
		Use:           "pollctl",
		Short:         "Browse, create, vote on and watch polls",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig()
			if err != nil {
				return err
			}
			flags.apply(cmd, cfg)

			deps, err := app.build(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			app.deps = deps
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.Close()
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.apiBase, "api", "", "polls API base URL (POLLS_API_BASE)")
	pf.StringVar(&flags.wsBase, "ws", "", "real-time base URL (POLLS_WS_BASE)")
	pf.StringVar(&flags.profile, "profile", "", "session profile name (POLLS_PROFILE)")
	pf.StringVar(&flags.logLevel, "log-level", "", "debug, info, warn or error (POLLS_LOG_LEVEL)")

	cmd.AddCommand(
		newLoginCommand(app),
		newRegisterCommand(app),
		newLogoutCommand(app),
		newWhoamiCommand(app),
		newRefreshCommand(app),
		newListCommand(app),
		newMineCommand(app),
		newShowCommand(app),
		newCreateCommand(app),
		newVoteCommand(app),
		newWatchCommand(app),
	)
	return cmd
}

// apply lets explicitly set flags win over the environment.
func (f *rootFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("api") {
		cfg.APIBase = f.apiBase
	}
	if changed("ws") {
		cfg.WSBase = f.wsBase
	}
	if changed("profile") {
		cfg.Profile = f.profile
	}
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
}
