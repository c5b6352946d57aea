// Command authsetup drives the one-time OAuth2 authorization-code
// exchange against the quote vendor and persists the resulting token to
// the encrypted credential store.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"futuresregime/config"
	"futuresregime/internal/adapters/credstore"
	"futuresregime/internal/adapters/quotefeed"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "authsetup",
	Short: "Authorize this application against the quote vendor",
	Long: `authsetup prints an authorization URL, waits for the operator to paste
back the authorization code from the redirect callback, exchanges it for an
access/refresh token pair, and saves the encrypted result to disk.`,
	RunE: runAuthSetup,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "authsetup: %v\n", err)
		os.Exit(1)
	}
}

func runAuthSetup(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	auth := quotefeed.NewAuthManager(quotefeed.AuthConfig{
		AppKey:      cfg.AppKey,
		AppSecret:   cfg.AppSecret,
		RedirectURI: cfg.RedirectURI,
		AuthURL:     cfg.AuthURL,
		TokenURL:    cfg.TokenURL,
	})

	state := uuid.NewString()
	fmt.Println("Visit this URL, grant access, then paste the code from the redirect below:")
	fmt.Println(auth.AuthCodeURL(state))
	fmt.Print("Authorization code: ")

	reader := bufio.NewReader(os.Stdin)
	code, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("read authorization code: %w", err)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("no authorization code provided")
	}

	ctx := cmd.Context()
	tok, err := auth.ExchangeCode(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange authorization code: %w", err)
	}

	key, err := credstore.DecodeKeyHex(cfg.EncryptionKeyHex)
	if err != nil {
		return err
	}
	store, err := credstore.New(cfg.TokenPath, key)
	if err != nil {
		return fmt.Errorf("construct credential store: %w", err)
	}
	if err := store.Save(tok); err != nil {
		return fmt.Errorf("save token: %w", err)
	}

	fmt.Printf("Token saved to %s\n", cfg.TokenPath)
	return nil
}
