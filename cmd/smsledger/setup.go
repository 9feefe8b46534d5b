package main

import (
	"fmt"
	"log/slog"
	"os"

	"google.golang.org/api/sheets/v4"

	"github.com/smsledger/smsledger/pkg/client"
	"github.com/smsledger/smsledger/pkg/config"
)

// runSetup handles the OAuth setup flow for the sheets writer.
func runSetup(logger *slog.Logger, force bool) error {
	fmt.Println("=== SMSLedger Setup ===")
	fmt.Println()

	// Check if credentials file exists
	if _, err := os.Stat(config.ClientSecretFile); os.IsNotExist(err) {
		return fmt.Errorf("credentials file not found: %s\n\nTo get your credentials:\n"+
			"1. Go to https://console.cloud.google.com/apis/credentials\n"+
			"2. Create an OAuth 2.0 Client ID (Desktop application)\n"+
			"3. Download the JSON file and save it as '%s'", config.ClientSecretFile, config.ClientSecretFile)
	}

	// Check if already authenticated
	if !force {
		if _, err := os.Stat(client.TokenFile); err == nil {
			fmt.Printf("Already authenticated! Token file exists: %s\n", client.TokenFile)
			fmt.Println()
			fmt.Println("To re-authenticate, run: smsledger setup --force")
			return nil
		}
	}

	if force {
		if err := os.Remove(client.TokenFile); err != nil && !os.IsNotExist(err) {
			logger.Warn("failed to remove existing token", "error", err)
		}
		fmt.Println("Forcing re-authentication...")
		fmt.Println()
	}

	fmt.Println("This will set up OAuth authentication with Google.")
	fmt.Println()
	fmt.Println("Required permissions:")
	fmt.Println("  - Sheets: Read and write spreadsheets")
	fmt.Println()
	fmt.Println("The file, database and mbox backends need no authentication;")
	fmt.Println("setup is only required for the sheets writer.")
	fmt.Println()
	fmt.Println("Starting authentication...")
	fmt.Println()

	// Trigger OAuth flow by creating client
	_, err := client.New(config.ClientSecretFile, sheets.SpreadsheetsScope)
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	fmt.Println()
	fmt.Println("=== Setup Complete ===")
	fmt.Println()
	fmt.Printf("Token saved to: %s\n", client.TokenFile)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Set SMSLEDGER_WRITER=sheets and SMSLEDGER_WRITER_CONFIG")
	fmt.Println("  2. Run 'smsledger run' to start extracting expenses")
	fmt.Println()

	return nil
}
