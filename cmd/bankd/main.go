package main

import (
	"fmt"
	"os"

	"lukas-hradil/p2p-bank/bank"
	"lukas-hradil/p2p-bank/pkg/config"
	"lukas-hradil/p2p-bank/pkg/logger"
	"lukas-hradil/p2p-bank/pkg/store"
)

// bankd is the bare daemon: config.json from the working directory, the
// in-memory store, no shell. The p2p-bank binary is the full CLI.
func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	server := bank.NewBankServer(cfg, store.NewMemoryStore(), log)
	if err := server.Start(); err != nil {
		log.Errorf("error starting bank node: %v", err)
		os.Exit(1)
	}

	select {}
}
