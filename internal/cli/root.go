package cli

import (
	"fmt"
	"log/slog"
	"net/http/cookiejar"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/me/mediafront/internal/config"
	"github.com/me/mediafront/internal/identity"
	"github.com/me/mediafront/internal/logging"
)

var (
	flagServer    string
	flagBackend   string
	flagCookie    string
	flagConfig    string
	flagTimeout   time.Duration
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	logger  *slog.Logger
	client  *Client
	backend *identity.Client
	cfg     config.ServerConfig
)

// defaultServer returns the default front-end URL, checking MEDIAFRONT_SERVER first.
func defaultServer() string {
	if s := os.Getenv("MEDIAFRONT_SERVER"); s != "" {
		return s
	}
	return "http://localhost:8080"
}

// cookieHeader picks the backend cookies: --cookie, then MEDIAFRONT_COOKIE,
// then the stored credentials.
func cookieHeader() string {
	if flagCookie != "" {
		return flagCookie
	}
	if c := os.Getenv("MEDIAFRONT_COOKIE"); c != "" {
		return c
	}
	return LoadCookie()
}

// NewRootCmd creates the root cobra command for the mediafront CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mediafront",
		Short: "mediafront: media site front end",
		Long:  "mediafront inspects the identity a media backend reports for a set of session cookies.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flagDebug {
				flagLogLevel = "debug"
			}
			logger = logging.NewLogger(logging.ParseLevel(flagLogLevel), flagLogFormat)
			client = NewClient(flagServer, logger)

			var err error
			cfg, err = config.Load(flagConfig)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("backend") || cfg.Backend.URL == "" {
				cfg.Backend.URL = flagBackend
			}
			if cmd.Flags().Changed("timeout") {
				cfg.Backend.RequestTimeout = flagTimeout
			}

			backend, err = newBackendClient(cookieHeader())
			return err
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagServer, "server", defaultServer(), "mediafront server URL (or MEDIAFRONT_SERVER env)")
	root.PersistentFlags().StringVar(&flagBackend, "backend", "http://localhost", "Media backend URL (or MEDIAFRONT_BACKEND_URL env)")
	root.PersistentFlags().StringVar(&flagCookie, "cookie", "", "Backend cookie header, e.g. 'sessionid=...; csrftoken=...' (or MEDIAFRONT_COOKIE env)")
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "Site config file (YAML) with the fallback user")
	root.PersistentFlags().DurationVar(&flagTimeout, "timeout", 10*time.Second, "Backend request timeout")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newLoginCmd(),
		newWhoAmICmd(),
		newSignOutCmd(),
		newCSRFCmd(),
		newHealthCmd(),
	)

	return root
}

// newBackendClient builds an identity client whose jar holds the cookies of header.
func newBackendClient(header string) (*identity.Client, error) {
	base, err := url.Parse(cfg.Backend.URL)
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	if cookies := identity.ParseCookieHeader(header); len(cookies) > 0 {
		jar.SetCookies(base, cookies)
	}
	return identity.NewClient(identity.ClientConfig{
		BaseURL:    cfg.Backend.URL,
		WhoAmIPath: cfg.Backend.WhoAmIPath,
		LogoutPath: cfg.Backend.LogoutPath,
		Timeout:    cfg.Backend.RequestTimeout,
	}, jar, logger.With("component", "identity"))
}
