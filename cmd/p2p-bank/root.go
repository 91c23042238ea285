package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "p2p-bank",
	Short: "P2P Banking Node",
	Long:  `A peer-to-peer banking node speaking a line-based TCP protocol, forwarding commands to the bank that owns the target account.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
