package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lukas-hradil/p2p-bank/pkg/secrets"
)

var secretKeyFile string

var secretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Manage the encrypted database password",
}

var secretKeygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a new encryption key file",
	Run: func(cmd *cobra.Command, args []string) {
		if _, err := os.Stat(secretKeyFile); err == nil {
			fmt.Fprintf(os.Stderr, "Encryption key already exists at %s\n", secretKeyFile)
			os.Exit(1)
		}

		key, err := secrets.GenerateKey()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if err := secrets.WriteKeyFile(secretKeyFile, key); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Printf("Encryption key generated and saved to %s\n", secretKeyFile)
	},
}

var secretEncryptCmd = &cobra.Command{
	Use:   "encrypt <password>",
	Short: "Encrypt a database password with the key file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		key, err := secrets.LoadKeyFile(secretKeyFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		encrypted, err := secrets.Encrypt(key, args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		fmt.Println("Put this value into database.encrypted_password in your config.json:")
		fmt.Println(encrypted)
	},
}

func init() {
	rootCmd.AddCommand(secretCmd)
	secretCmd.AddCommand(secretKeygenCmd, secretEncryptCmd)
	secretCmd.PersistentFlags().StringVarP(&secretKeyFile, "key-file", "k", "encryption.key", "Path to the encryption key file")
}
