package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vncsmyrnk/pollctl/internal/core/domain"
	"github.com/vncsmyrnk/pollctl/internal/core/ports"
)

// readSecret takes the value of a flag, or the next line of stdin when the
// flag was left empty.
func readSecret(in *bufio.Reader, value string) (string, error) {
	if value != "" {
		return value, nil
	}
	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newLoginCommand(app *App) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := app.Deps()
			if err != nil {
				return err
			}
			secret, err := readSecret(bufio.NewReader(cmd.InOrStdin()), password)
			if err != nil {
				return err
			}

			session, err := deps.Auth.Login(cmd.Context(), ports.LoginInput{Email: email, Password: secret})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s\n", displayName(session))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (read from stdin when empty)")
	return cmd
}

func newRegisterCommand(app *App) *cobra.Command {
	var input ports.RegisterInput

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := app.Deps()
			if err != nil {
				return err
			}
			in := bufio.NewReader(cmd.InOrStdin())
			if input.Password, err = readSecret(in, input.Password); err != nil {
				return err
			}
			if !cmd.Flags().Changed("confirm-password") {
				input.ConfirmPassword = input.Password
			}

			session, err := deps.Auth.Register(cmd.Context(), input)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "welcome, %s\n", displayName(session))
			return nil
		},
	}
	cmd.Flags().StringVar(&input.Name, "name", "", "display name")
	cmd.Flags().StringVar(&input.Email, "email", "", "account email")
	cmd.Flags().StringVar(&input.Password, "password", "", "account password (read from stdin when empty)")
	cmd.Flags().StringVar(&input.ConfirmPassword, "confirm-password", "", "repeat the password (defaults to --password)")
	return cmd
}

func newLogoutCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := app.Deps()
			if err != nil {
				return err
			}
			if err := deps.Auth.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

func newWhoamiCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := app.Deps()
			if err != nil {
				return err
			}
			user, err := deps.Auth.CurrentUser(cmd.Context())
			if err != nil {
				return err
			}
			newRenderer(cmd.OutOrStdout()).user(user)
			return nil
		},
	}
}

func newRefreshCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the stored token for a fresh one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := app.Deps()
			if err != nil {
				return err
			}
			if _, err := deps.Auth.Refresh(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "session refreshed")
			return nil
		},
	}
}

func displayName(s *domain.Session) string {
	if s.User == nil {
		return "(profile unavailable)"
	}
	return fmt.Sprintf("%s <%s>", s.User.Name, s.User.Email)
}
