package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps all accounts in process memory behind one mutex. It is
// the default store and the one the protocol tests run against.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[int]*Account
}

var _ AccountStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[int]*Account),
	}
}

func (s *MemoryStore) Create(ctx context.Context, number int, ip string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[number]; ok {
		return ErrAccountExists
	}
	s.accounts[number] = &Account{Number: number, IP: ip}
	return nil
}

func (s *MemoryStore) Exists(ctx context.Context, number int) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.accounts[number]
	return ok, nil
}

func (s *MemoryStore) Deposit(ctx context.Context, number int, amount int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[number]
	if !ok {
		return false, nil
	}
	acc.Balance += amount
	return true, nil
}

func (s *MemoryStore) Withdraw(ctx context.Context, number int, amount int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[number]
	if !ok || acc.Balance < amount {
		return false, nil
	}
	acc.Balance -= amount
	return true, nil
}

func (s *MemoryStore) Balance(ctx context.Context, number int) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[number]
	if !ok {
		return 0, ErrAccountNotFound
	}
	return acc.Balance, nil
}

func (s *MemoryStore) Remove(ctx context.Context, number int) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[number]
	if !ok || acc.Balance != 0 {
		return false, nil
	}
	delete(s.accounts, number)
	return true, nil
}

func (s *MemoryStore) TotalBalance(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	for _, acc := range s.accounts {
		total += acc.Balance
	}
	return total, nil
}

func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.accounts), nil
}

func (s *MemoryStore) List(ctx context.Context) ([]Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]Account, 0, len(s.accounts))
	for _, acc := range s.accounts {
		list = append(list, *acc)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Number < list[j].Number })
	return list, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
