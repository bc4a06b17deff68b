package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/me/mediafront/internal/identity"
)

// ErrSignOutFailed is returned when the backend refuses to end the session.
var ErrSignOutFailed = errors.New("sign out failed")

func newResolver() *identity.Resolver {
	fallbacks := []identity.Source{identity.DevelopmentSource{}}
	if cfg.User.MissingUsername() {
		logger.Warn("fallback user has no username and will be treated as anonymous")
	}
	if cfg.User.Configured() {
		fallbacks = append([]identity.Source{identity.NewStaticSource(cfg.User)}, fallbacks...)
	}
	l := logger.With("component", "identity")
	return identity.NewResolver(identity.NewAPISource(backend, l), backend, l, fallbacks...)
}

func newWhoAmICmd() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Resolve the profile for the given cookies",
		Long: "Resolve the profile the front end would use for the given backend cookies. " +
			"Unauthenticated cookies yield the anonymous profile; an unreachable backend " +
			"yields the configured fallback user or the development profile.",
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")

			if raw {
				w, err := backend.WhoAmI(cmd.Context())
				if err != nil {
					return err
				}
				return enc.Encode(w)
			}
			return enc.Encode(newResolver().Resolve(cmd.Context()))
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print the backend's answer without normalization; errors are not masked")
	return cmd
}

func newSignOutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "End the backend session for the given cookies",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !newResolver().SignOut(cmd.Context()) {
				return ErrSignOutFailed
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func newCSRFCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "csrf",
		Short: "Print the decoded CSRF token from the cookies",
		RunE: func(cmd *cobra.Command, args []string) error {
			token := identity.ParseCSRFToken(cookieHeader())
			if token == "" {
				return fmt.Errorf("no %s cookie", identity.CSRFCookieName)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
}
