package main

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/c-bata/go-prompt"
	"github.com/spf13/cobra"

	"lukas-hradil/p2p-bank/pkg/discovery"
)

var consoleAddr string

// consoleClient keeps one connection to a bank node and re-dials it when the
// node drops us (e.g. after an inactivity timeout).
type consoleClient struct {
	addr   string
	conn   net.Conn
	reader *bufio.Reader
}

func (c *consoleClient) ensure() error {
	if c.conn != nil {
		return nil
	}
	conn, err := net.DialTimeout("tcp", c.addr, 5*time.Second)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", c.addr, err)
	}
	c.conn = conn
	c.reader = bufio.NewReader(conn)
	return nil
}

func (c *consoleClient) drop() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
		c.reader = nil
	}
}

// send writes one command line and reads one response line.
func (c *consoleClient) send(command string) (string, error) {
	if err := c.ensure(); err != nil {
		return "", err
	}

	if err := c.conn.SetDeadline(time.Now().Add(10 * time.Second)); err != nil {
		c.drop()
		return "", err
	}
	if _, err := fmt.Fprintf(c.conn, "%s\n", command); err != nil {
		c.drop()
		return "", fmt.Errorf("send: %w", err)
	}

	line, err := c.reader.ReadString('\n')
	if err != nil && line == "" {
		c.drop()
		return "", fmt.Errorf("receive: %w", err)
	}
	return strings.TrimSpace(line), nil
}

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Interactive client for a bank node",
	Run: func(cmd *cobra.Command, args []string) {
		client := &consoleClient{addr: consoleAddr}
		defer client.drop()

		fmt.Printf("P2P Bank Console (%s)\n", consoleAddr)
		fmt.Println("Type a protocol command (BC, AC, AD, AW, AB, AR, BA, BN) or 'help'.")

		prompt.New(
			func(in string) { consoleExecutor(in, client) },
			consoleCompleter,
			prompt.OptionPrefix("console> "),
			prompt.OptionTitle("P2P Bank Console"),
		).Run()
	},
}

func consoleExecutor(in string, client *consoleClient) {
	in = strings.TrimSpace(in)
	if in == "" {
		return
	}

	switch strings.ToLower(strings.Fields(in)[0]) {
	case "exit", "quit":
		fmt.Println("Bye.")
		client.drop()
		os.Exit(0)
	case "discover":
		discoverBanks()
	case "help":
		fmt.Println("Available commands:")
		fmt.Println("  BC                        - Ask the node for its bank code")
		fmt.Println("  AC                        - Create an account")
		fmt.Println("  AD <acct>/<ip> <amount>   - Deposit")
		fmt.Println("  AW <acct>/<ip> <amount>   - Withdraw")
		fmt.Println("  AB <acct>/<ip>            - Balance")
		fmt.Println("  AR <acct>/<ip>            - Remove account")
		fmt.Println("  BA                        - Total bank balance")
		fmt.Println("  BN                        - Number of accounts")
		fmt.Println("  discover                  - Find bank nodes via mDNS")
		fmt.Println("  exit                      - Leave the console")
	default:
		response, err := client.send(in)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		fmt.Println(response)
	}
}

func discoverBanks() {
	resolver, err := discovery.NewResolver()
	if err != nil {
		fmt.Printf("Error creating resolver: %v\n", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	ch, err := resolver.Browse(ctx)
	if err != nil {
		fmt.Printf("Error browsing: %v\n", err)
		return
	}

	found := 0
	for info := range ch {
		found++
		fmt.Printf("  %s at %v:%d (bank=%s)\n", info.InstanceName, info.IPs, info.Port, info.Meta["bank"])
	}
	if found == 0 {
		fmt.Println("No bank nodes discovered.")
	}
}

func consoleCompleter(d prompt.Document) []prompt.Suggest {
	s := []prompt.Suggest{
		{Text: "BC", Description: "Bank code"},
		{Text: "AC", Description: "Create account"},
		{Text: "AD", Description: "Deposit"},
		{Text: "AW", Description: "Withdraw"},
		{Text: "AB", Description: "Balance"},
		{Text: "AR", Description: "Remove account"},
		{Text: "BA", Description: "Total bank balance"},
		{Text: "BN", Description: "Number of accounts"},
		{Text: "discover", Description: "Find bank nodes via mDNS"},
		{Text: "exit", Description: "Leave the console"},
	}
	return prompt.FilterHasPrefix(s, d.GetWordBeforeCursor(), true)
}

func init() {
	rootCmd.AddCommand(consoleCmd)
	consoleCmd.Flags().StringVarP(&consoleAddr, "addr", "a", "127.0.0.1:65530", "Address of the bank node")
}
