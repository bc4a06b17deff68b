package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

const credentialsFileName = "credentials.json"

type credentials struct {
	Cookie string `json:"cookie"`
}

func newLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store backend session cookies",
		Long:  "Store the backend cookie header for later mediafront commands.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cookie := flagCookie
			if cookie == "" {
				fmt.Fprint(cmd.OutOrStdout(), "Cookie header: ")
				reader := bufio.NewReader(cmd.InOrStdin())
				line, err := reader.ReadString('\n')
				if err != nil {
					return fmt.Errorf("read cookie: %w", err)
				}
				cookie = strings.TrimSpace(line)
			}

			if cookie == "" {
				return fmt.Errorf("cookie cannot be empty")
			}

			credPath, err := credentialsPath()
			if err != nil {
				return err
			}

			if err := os.MkdirAll(filepath.Dir(credPath), 0700); err != nil {
				return fmt.Errorf("create config directory: %w", err)
			}

			data, err := json.MarshalIndent(credentials{Cookie: cookie}, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal credentials: %w", err)
			}

			if err := os.WriteFile(credPath, data, 0600); err != nil {
				return fmt.Errorf("write credentials: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Credentials saved to %s\n", credPath)
			return nil
		},
	}

	return cmd
}

// credentialsPath returns the path to the credentials file (~/.mediafront/credentials.json).
func credentialsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return filepath.Join(home, ".mediafront", credentialsFileName), nil
}

// LoadCookie reads the stored cookie header, returning empty string if not found.
func LoadCookie() string {
	p, err := credentialsPath()
	if err != nil {
		return ""
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return ""
	}
	var creds credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return ""
	}
	return creds.Cookie
}
