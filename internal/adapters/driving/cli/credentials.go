package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/idlekit/internal/core/domain"
)

var (
	credSessionID   string
	credLoginSecure string
	credMachineAuth string
)

var credentialsCmd = &cobra.Command{
	Use:   "credentials",
	Short: "Manage community session credentials",
	Long: `Card farming reads drop progress from the community site with the
sessionid and steamLoginSecure cookies of a signed-in browser.`,
}

var credentialsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store session cookies",
	Long: `Store session cookies for the active identity. Values not given as flags
are prompted for without echo.`,
	Args: cobra.NoArgs,
	RunE: runCredentialsSet,
}

var credentialsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove stored cookies",
	Args:  cobra.NoArgs,
	RunE:  runCredentialsClear,
}

var credentialsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate stored cookies",
	Long:  `Validate stored cookies against the community site. Rejected cookies are removed.`,
	Args:  cobra.NoArgs,
	RunE:  runCredentialsCheck,
}

func init() {
	credentialsSetCmd.Flags().StringVar(&credSessionID, "session-id", "", "sessionid cookie")
	credentialsSetCmd.Flags().StringVar(&credLoginSecure, "login-secure", "", "steamLoginSecure cookie")
	credentialsSetCmd.Flags().StringVar(&credMachineAuth, "machine-auth", "", "optional parental or machine auth cookie")
	credentialsCmd.AddCommand(credentialsSetCmd)
	credentialsCmd.AddCommand(credentialsClearCmd)
	credentialsCmd.AddCommand(credentialsCheckCmd)
	rootCmd.AddCommand(credentialsCmd)
}

func runCredentialsSet(cmd *cobra.Command, _ []string) error {
	if credentialsService == nil {
		return notConfigured("credentials service")
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	creds := domain.SessionCredentials{
		SessionID:   credSessionID,
		LoginSecure: credLoginSecure,
		MachineAuth: credMachineAuth,
	}
	if creds.SessionID == "" {
		cmd.Print("sessionid: ")
		creds.SessionID = readSecret(cmd, reader)
	}
	if creds.LoginSecure == "" {
		cmd.Print("steamLoginSecure: ")
		creds.LoginSecure = readSecret(cmd, reader)
	}

	if err := credentialsService.Save(cmd.Context(), creds); err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return fmt.Errorf("%w: sessionid and steamLoginSecure are required", err)
		}
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	masked := creds.Masked()
	cmd.Printf("Saved credentials (sessionid %s)\n", masked.SessionID)
	return nil
}

func runCredentialsClear(cmd *cobra.Command, _ []string) error {
	if credentialsService == nil {
		return notConfigured("credentials service")
	}
	if err := credentialsService.Clear(cmd.Context()); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	cmd.Println("Credentials cleared.")
	return nil
}

func runCredentialsCheck(cmd *cobra.Command, _ []string) error {
	if farmingService == nil {
		return notConfigured("farming service")
	}
	summary, err := farmingService.CheckCredentials(cmd.Context())
	switch {
	case errors.Is(err, domain.ErrMissingCredentials):
		cmd.Println("No credentials stored.")
		return nil
	case errors.Is(err, domain.ErrCredentialsExpired):
		return fmt.Errorf("%w: stored credentials were cleared", err)
	case err != nil:
		return fmt.Errorf("credential check failed: %w", err)
	}
	cmd.Printf("Credentials valid for %s (%s)\n", summary.Name, summary.Identity)
	return nil
}

// readSecret reads without echo from a terminal, or a line from reader.
//
//nolint:errcheck // CLI helper, error ignored for UX
func readSecret(cmd *cobra.Command, reader *bufio.Reader) string {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		cmd.Println()
		if err == nil {
			return strings.TrimSpace(string(secret))
		}
	}
	input, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return ""
	}
	return strings.TrimSpace(input)
}
