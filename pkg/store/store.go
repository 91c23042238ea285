package store

import (
	"context"
	"errors"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountExists   = errors.New("account already exists")
)

// Account is one bank account row: the number, the IP of the client it was
// created for, and the current balance.
type Account struct {
	Number  int
	IP      string
	Balance int64
}

// AccountStore owns balances and account identity. Implementations must make
// every operation atomic and serialize conflicting operations on the same
// account: two concurrent withdrawals must never both succeed past a balance
// of zero. The boolean results mirror the protocol semantics — false means
// the domain condition failed (absent account, insufficient funds, non-zero
// balance on remove), while a non-nil error means the store itself failed.
type AccountStore interface {
	Create(ctx context.Context, number int, ip string) error
	Exists(ctx context.Context, number int) (bool, error)
	Deposit(ctx context.Context, number int, amount int64) (bool, error)
	Withdraw(ctx context.Context, number int, amount int64) (bool, error)
	Balance(ctx context.Context, number int) (int64, error)
	Remove(ctx context.Context, number int) (bool, error)
	TotalBalance(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int, error)
	List(ctx context.Context) ([]Account, error)
	Close() error
}
