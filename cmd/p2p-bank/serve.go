package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/c-bata/go-prompt"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lukas-hradil/p2p-bank/bank"
	"lukas-hradil/p2p-bank/pkg/config"
	"lukas-hradil/p2p-bank/pkg/logger"
	"lukas-hradil/p2p-bank/pkg/monitor"
	"lukas-hradil/p2p-bank/pkg/secrets"
	"lukas-hradil/p2p-bank/pkg/store"
)

var (
	serveConfigPath  string
	serveInteractive bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the bank node",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(serveConfigPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "config:", err)
			os.Exit(1)
		}

		log, err := logger.New(cfg.LogFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "logger:", err)
			os.Exit(1)
		}

		st, err := buildStore(cfg, log)
		if err != nil {
			log.Errorf("store: %v", err)
			fmt.Fprintln(os.Stderr, "store:", err)
			os.Exit(1)
		}
		defer st.Close()

		server := bank.NewBankServer(cfg, st, log)
		if err := server.Start(); err != nil {
			log.Errorf("start: %v", err)
			fmt.Fprintln(os.Stderr, "start:", err)
			os.Exit(1)
		}

		go monitor.LogPeriodic(log, 30*time.Second)

		if serveInteractive {
			fmt.Println("P2P Bank Node Interactive Shell")
			fmt.Println("Type 'help' for commands.")

			prompt.New(
				func(in string) { serveExecutor(in, server) },
				serveCompleter,
				prompt.OptionPrefix("bank> "),
				prompt.OptionTitle("P2P Bank Node"),
			).Run()
		} else {
			select {}
		}
	},
}

// buildStore wires the account store selected by the config. The postgres
// password is kept encrypted in the config file and decrypted here with the
// key file.
func buildStore(cfg config.Config, log *zap.SugaredLogger) (store.AccountStore, error) {
	switch cfg.Database.Driver {
	case "", "memory":
		return store.NewMemoryStore(), nil
	case "postgres":
		key, err := secrets.LoadKeyFile(cfg.Database.KeyFile)
		if err != nil {
			return nil, err
		}
		password, err := secrets.Decrypt(key, cfg.Database.EncryptedPassword)
		if err != nil {
			return nil, err
		}
		return store.NewPostgresStore(cfg.Database.DSN(password), log)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

func serveExecutor(in string, server *bank.BankServer) {
	in = strings.TrimSpace(in)
	blocks := strings.Fields(in)
	if len(blocks) == 0 {
		return
	}

	switch blocks[0] {
	case "exit", "quit":
		fmt.Println("Stopping bank node...")
		server.Stop()
		os.Exit(0)
	case "status":
		fmt.Println(server.GetStatus())
	case "accounts":
		accounts, err := server.ListAccounts()
		if err != nil {
			fmt.Printf("Error listing accounts: %v\n", err)
			return
		}
		if len(accounts) == 0 {
			fmt.Println("No accounts found.")
			return
		}
		fmt.Println("List of all accounts:")
		for _, acc := range accounts {
			fmt.Printf("  Account: %d/%s | Balance: %d\n", acc.Number, acc.IP, acc.Balance)
		}
	case "help":
		fmt.Println("Available commands:")
		fmt.Println("  status     - Show node status")
		fmt.Println("  accounts   - List all local accounts with balances")
		fmt.Println("  exit       - Stop the node and exit")
	default:
		fmt.Println("Unknown command: " + blocks[0])
	}
}

func serveCompleter(d prompt.Document) []prompt.Suggest {
	s := []prompt.Suggest{
		{Text: "status", Description: "Show node status"},
		{Text: "accounts", Description: "List all local accounts"},
		{Text: "exit", Description: "Stop the node"},
		{Text: "help", Description: "Show help"},
	}
	return prompt.FilterHasPrefix(s, d.GetWordBeforeCursor(), true)
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", "", "Path to config.json (defaults to ./config.json)")
	serveCmd.Flags().BoolVarP(&serveInteractive, "interactive", "i", false, "Start with an interactive shell")
}
