package main

import (
	"fmt"
	"os"

	"github.com/smsledger/smsledger/pkg/logging"
)

func main() {
	logger := logging.Setup(logging.DefaultConfig())

	cmd := "run"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	var err error
	switch cmd {
	case "run":
		err = runDaemon(logger)
	case "setup":
		force := len(os.Args) > 2 && os.Args[2] == "--force"
		err = runSetup(logger, force)
	case "status":
		err = runStatus()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		logger.Error("command failed", "command", cmd, "error", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: smsledger [command]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  run       Start the extraction pipeline (default)")
	fmt.Println("  setup     Run the OAuth flow for the sheets writer")
	fmt.Println("  status    Check configuration and authentication")
	fmt.Println("  help      Show this help")
}
