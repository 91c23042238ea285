package bank

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"lukas-hradil/p2p-bank/pkg/protocol"
	"lukas-hradil/p2p-bank/pkg/store"
)

// Account number generation samples a 5-digit space and gives up after a
// bounded number of collisions rather than looping until the space is free.
const (
	accountNumberMin   = 10000
	accountNumberMax   = 99999
	createAttemptLimit = 5
)

// PeerDialer relays one raw command line to the bank at peerIP and returns
// the peer's response line, or a protocol error response of its own.
type PeerDialer interface {
	Forward(peerIP string, rawCommand string) string
}

// CommandHandler routes parsed commands to the local account store or, when
// the account reference names another bank, to the peer forwarder.
type CommandHandler struct {
	localHost string
	store     store.AccountStore
	forwarder PeerDialer
	log       *zap.SugaredLogger
}

func NewCommandHandler(localHost string, st store.AccountStore, fw PeerDialer, log *zap.SugaredLogger) *CommandHandler {
	return &CommandHandler{
		localHost: localHost,
		store:     st,
		forwarder: fw,
		log:       log,
	}
}

// Process handles one command line and returns the response without the
// trailing newline. This is the routing boundary: nothing below it may crash
// a connection, so any panic is downgraded to a generic error response.
func (h *CommandHandler) Process(ctx context.Context, line string, clientIP string) (resp string) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Errorf("[CommandHandler] panic processing command %q: %v", line, r)
			resp = "ER Internal processing error"
		}
	}()

	cmd, err := protocol.Parse(line)
	if err != nil {
		var perr *protocol.ParseError
		if errors.As(err, &perr) {
			return "ER " + perr.Message
		}
		return "ER Invalid command"
	}

	switch cmd.Verb {
	case protocol.VerbBankCode:
		return "BC " + h.localHost
	case protocol.VerbAccountCreate:
		return h.createAccount(ctx, clientIP)
	case protocol.VerbAccountDeposit:
		return h.deposit(ctx, cmd)
	case protocol.VerbAccountWithdraw:
		return h.withdraw(ctx, cmd)
	case protocol.VerbAccountBalance:
		return h.balance(ctx, cmd)
	case protocol.VerbAccountRemove:
		return h.remove(ctx, cmd)
	case protocol.VerbBankAmount:
		return h.totalBalance(ctx)
	case protocol.VerbBankNumber:
		return h.countAccounts(ctx)
	default:
		return "ER Unknown command"
	}
}

// isRemote reports whether the account lives on another bank. The comparison
// is a literal string match against the configured host, never a DNS lookup.
func (h *CommandHandler) isRemote(ref protocol.AccountRef) bool {
	return ref.BankIP != h.localHost
}

func (h *CommandHandler) createAccount(ctx context.Context, clientIP string) string {
	h.log.Infof("[CommandHandler] creating account for IP: %s", clientIP)

	for i := 0; i < createAttemptLimit; i++ {
		number := accountNumberMin + rand.Intn(accountNumberMax-accountNumberMin+1)

		exists, err := h.store.Exists(ctx, number)
		if err != nil {
			h.log.Errorf("[CommandHandler] existence check failed for %d: %v", number, err)
			return "ER Database error"
		}
		if exists {
			continue
		}

		if err := h.store.Create(ctx, number, clientIP); err != nil {
			h.log.Errorf("[CommandHandler] failed to create account %d: %v", number, err)
			return "ER Database error"
		}

		h.log.Infof("[CommandHandler] account %d/%s created", number, clientIP)
		return fmt.Sprintf("AC %d/%s", number, clientIP)
	}

	h.log.Errorf("[CommandHandler] failed to generate a unique account number after %d attempts", createAttemptLimit)
	return "ER Unable to create account"
}

func (h *CommandHandler) deposit(ctx context.Context, cmd protocol.Command) string {
	if h.isRemote(cmd.Account) {
		return h.forwarder.Forward(cmd.Account.BankIP, cmd.Wire())
	}

	ok, err := h.store.Deposit(ctx, cmd.Account.Number, cmd.Amount)
	if err != nil {
		h.log.Errorf("[CommandHandler] deposit failed: account=%d err=%v", cmd.Account.Number, err)
		return "ER Deposit failed"
	}
	if !ok {
		return "ER Deposit failed"
	}
	return "AD"
}

func (h *CommandHandler) withdraw(ctx context.Context, cmd protocol.Command) string {
	if h.isRemote(cmd.Account) {
		return h.forwarder.Forward(cmd.Account.BankIP, cmd.Wire())
	}

	ok, err := h.store.Withdraw(ctx, cmd.Account.Number, cmd.Amount)
	if err != nil {
		h.log.Errorf("[CommandHandler] withdrawal failed: account=%d err=%v", cmd.Account.Number, err)
		return "ER Not enough funds"
	}
	if !ok {
		return "ER Not enough funds"
	}
	return "AW"
}

func (h *CommandHandler) balance(ctx context.Context, cmd protocol.Command) string {
	if h.isRemote(cmd.Account) {
		return h.forwarder.Forward(cmd.Account.BankIP, cmd.Wire())
	}

	balance, err := h.store.Balance(ctx, cmd.Account.Number)
	if err != nil {
		if !errors.Is(err, store.ErrAccountNotFound) {
			h.log.Errorf("[CommandHandler] balance lookup failed: account=%d err=%v", cmd.Account.Number, err)
		}
		return "ER Account not found"
	}
	return fmt.Sprintf("AB %d", balance)
}

func (h *CommandHandler) remove(ctx context.Context, cmd protocol.Command) string {
	if h.isRemote(cmd.Account) {
		return h.forwarder.Forward(cmd.Account.BankIP, cmd.Wire())
	}

	ok, err := h.store.Remove(ctx, cmd.Account.Number)
	if err != nil {
		h.log.Errorf("[CommandHandler] removal failed: account=%d err=%v", cmd.Account.Number, err)
		return "ER Cannot remove account"
	}
	if !ok {
		return "ER Cannot remove account"
	}
	return "AR"
}

func (h *CommandHandler) totalBalance(ctx context.Context) string {
	total, err := h.store.TotalBalance(ctx)
	if err != nil {
		h.log.Errorf("[CommandHandler] total balance failed: %v", err)
		return "ER Internal processing error"
	}
	return fmt.Sprintf("BA %d", total)
}

func (h *CommandHandler) countAccounts(ctx context.Context) string {
	count, err := h.store.Count(ctx)
	if err != nil {
		h.log.Errorf("[CommandHandler] account count failed: %v", err)
		return "ER Internal processing error"
	}
	return fmt.Sprintf("BN %d", count)
}
