package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/repovista/repovista/internal/ui"
)

func loginCmd(envFile *string) *cobra.Command {
	var (
		email    string
		password string
		github   bool
		google   bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate against the analytics backend",
		Long: `Authenticate with email and password. Without flags the credentials are
asked interactively. With --github or --google the OAuth login URL is
printed; completing it in a browser lands on the local gateway's
/auth/callback, which stores the session ('repovista gateway' must be
running). The session is stored locally and reused until it expires or
'repovista logout' is run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cfg, err := newClient(*envFile)
			if err != nil {
				return err
			}
			defer client.Close()
			p := printer(cmd)

			if github || google {
				provider := "github"
				if google {
					provider = "google"
				}
				p.Info("open the following URL in a browser to sign in with %s:", provider)
				fmt.Fprintln(cmd.OutOrStdout(), client.OAuthLoginURL(provider))
				p.Info("the callback lands on http://%s/auth/callback; keep 'repovista gateway' running", cfg.GatewayAddr())
				return nil
			}

			if email == "" || password == "" {
				creds, err := ui.PromptCredentials()
				if err != nil {
					return err
				}
				email, password = creds.Email, creds.Password
			}

			user, err := client.Login(cmd.Context(), email, password)
			if err != nil {
				p.Error("login failed: %v", err)
				return err
			}
			p.Success("logged in as %s <%s>", user.Name(), user.Email())
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prefer the interactive prompt)")
	cmd.Flags().BoolVar(&github, "github", false, "Sign in with GitHub via the gateway OAuth callback")
	cmd.Flags().BoolVar(&google, "google", false, "Sign in with Google via the gateway OAuth callback")

	return cmd
}

func signupCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "signup",
		Short: "Create a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := newClient(*envFile)
			if err != nil {
				return err
			}
			defer client.Close()
			p := printer(cmd)

			details, err := ui.PromptSignup()
			if err != nil {
				return err
			}

			user, err := client.Signup(cmd.Context(), details.Name, details.Email, details.Password)
			if err != nil {
				p.Error("signup failed: %v", err)
				return err
			}
			p.Success("account created for %s <%s>", user.Name(), user.Email())
			return nil
		},
	}
}

func logoutCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := newClient(*envFile)
			if err != nil {
				return err
			}
			defer client.Close()

			client.Logout()
			printer(cmd).Success("logged out")
			return nil
		},
	}
}
