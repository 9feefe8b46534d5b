package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/smsledger/smsledger/pkg/client"
	"github.com/smsledger/smsledger/pkg/config"
)

// runStatus checks the configuration and authentication status.
func runStatus() error {
	fmt.Println("=== SMSLedger Status ===")
	fmt.Println()

	allGood := true

	cfg := checkEnvConfig(&allGood)
	checkReaderSource(cfg, &allGood)

	if cfg != nil && cfg.WriterPlugin == "sheets" {
		token := checkTokenStatus(&allGood)
		if token != nil {
			checkAPIConnectivity(&allGood)
		}
	}

	printFinalStatus(allGood)

	return nil
}

func checkEnvConfig(allGood *bool) *config.Config {
	fmt.Print("Environment configuration: ")

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", nil), nil); err != nil {
		fmt.Printf("✗ %v\n", err)
		*allGood = false
		return nil
	}

	var cfg config.Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf", FlatPaths: true}); err != nil {
		fmt.Printf("✗ invalid format: %v\n", err)
		*allGood = false
		return nil
	}

	reader := cfg.ReaderPlugin
	if reader == "" {
		reader = "smsbackup (default)"
	}
	writer := cfg.WriterPlugin
	if writer == "" {
		writer = "csv (default)"
	}
	fmt.Printf("✓ reader=%s writer=%s\n", reader, writer)

	// Keep the raw backup path around for the source check
	if len(cfg.ReaderConfig) == 0 {
		if path := k.String("SMSLEDGER_BACKUP_PATH"); path != "" {
			raw, _ := json.Marshal(map[string]any{"path": path})
			cfg.ReaderConfig = raw
		}
	}

	return &cfg
}

func checkReaderSource(cfg *config.Config, allGood *bool) {
	fmt.Print("Message source: ")
	if cfg == nil || len(cfg.ReaderConfig) == 0 {
		fmt.Println("✗ No reader config (set SMSLEDGER_BACKUP_PATH or SMSLEDGER_READER_CONFIG)")
		*allGood = false
		return
	}

	var readerCfg struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(cfg.ReaderConfig, &readerCfg); err != nil || readerCfg.Path == "" {
		fmt.Println("⚠ Reader config has no path field")
		return
	}

	if _, err := os.Stat(readerCfg.Path); os.IsNotExist(err) {
		fmt.Printf("✗ Not found: %s\n", readerCfg.Path)
		*allGood = false
	} else {
		fmt.Printf("✓ %s\n", readerCfg.Path)
	}
}

func checkTokenStatus(allGood *bool) *oauth2.Token {
	fmt.Printf("OAuth token (%s): ", client.TokenFile)
	token, err := client.TokenFromFile(client.TokenFile)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("✗ Not found (run 'smsledger setup')")
		} else {
			fmt.Printf("✗ %v\n", err)
		}
		*allGood = false
		return nil
	}

	if token.Expiry.Before(time.Now()) {
		fmt.Println("⚠ Expired (will refresh on next run)")
	} else {
		fmt.Printf("✓ Valid (expires: %s)\n", token.Expiry.Format(time.RFC3339))
	}
	return token
}

func checkAPIConnectivity(allGood *bool) {
	fmt.Println()
	fmt.Println("API Connectivity:")

	httpClient, err := client.New(config.ClientSecretFile, sheets.SpreadsheetsScope)
	if err != nil {
		fmt.Printf("  OAuth client: ✗ %v\n", err)
		*allGood = false
		return
	}

	fmt.Print("  Sheets API: ")
	if err := testSheetsAPI(httpClient); err != nil {
		fmt.Printf("✗ %v\n", err)
		*allGood = false
	} else {
		fmt.Println("✓ Connected")
	}
}

func printFinalStatus(allGood bool) {
	fmt.Println()
	if allGood {
		fmt.Println("Status: ✓ Ready to run")
		fmt.Println()
		fmt.Println("Run 'smsledger run' to start extracting expenses.")
	} else {
		fmt.Println("Status: ✗ Configuration issues detected")
		fmt.Println()
		fmt.Println("Fix the issues above, then run 'smsledger status' again.")
	}
}

func testSheetsAPI(httpClient *http.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient)); err != nil {
		return fmt.Errorf("creating service: %w", err)
	}

	return nil
}
