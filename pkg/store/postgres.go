package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const accountsSchema = `
CREATE TABLE IF NOT EXISTS accounts (
	account_number INTEGER PRIMARY KEY,
	ip_address     TEXT    NOT NULL,
	balance        BIGINT  NOT NULL DEFAULT 0
)`

// PostgresStore is the durable AccountStore. The domain guards live in the
// SQL itself: a withdrawal only updates rows with a sufficient balance and a
// removal only deletes rows with a balance of exactly zero, so concurrent
// conflicting operations are serialized by the database.
type PostgresStore struct {
	db  *sql.DB
	log *zap.SugaredLogger
}

var _ AccountStore = (*PostgresStore)(nil)

// NewPostgresStore opens the connection, verifies it and ensures the
// accounts table exists.
func NewPostgresStore(dsn string, log *zap.SugaredLogger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(accountsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure accounts table: %w", err)
	}

	log.Infof("[PostgresStore] connected and accounts table ready")
	return &PostgresStore{db: db, log: log}, nil
}

func (s *PostgresStore) Create(ctx context.Context, number int, ip string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (account_number, ip_address, balance) VALUES ($1, $2, 0)`,
		number, ip,
	)
	if err != nil {
		return fmt.Errorf("create account %d: %w", number, err)
	}
	s.log.Infof("[PostgresStore] account %d/%s created", number, ip)
	return nil
}

func (s *PostgresStore) Exists(ctx context.Context, number int) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM accounts WHERE account_number = $1`,
		number,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check account %d: %w", number, err)
	}
	return count > 0, nil
}

func (s *PostgresStore) Deposit(ctx context.Context, number int, amount int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET balance = balance + $1 WHERE account_number = $2`,
		amount, number,
	)
	if err != nil {
		return false, fmt.Errorf("deposit to account %d: %w", number, err)
	}
	return rowsAffected(res)
}

func (s *PostgresStore) Withdraw(ctx context.Context, number int, amount int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET balance = balance - $1 WHERE account_number = $2 AND balance >= $1`,
		amount, number,
	)
	if err != nil {
		return false, fmt.Errorf("withdraw from account %d: %w", number, err)
	}
	return rowsAffected(res)
}

func (s *PostgresStore) Balance(ctx context.Context, number int) (int64, error) {
	var balance int64
	err := s.db.QueryRowContext(ctx,
		`SELECT balance FROM accounts WHERE account_number = $1`,
		number,
	).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, ErrAccountNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("balance of account %d: %w", number, err)
	}
	return balance, nil
}

func (s *PostgresStore) Remove(ctx context.Context, number int) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM accounts WHERE account_number = $1 AND balance = 0`,
		number,
	)
	if err != nil {
		return false, fmt.Errorf("remove account %d: %w", number, err)
	}
	return rowsAffected(res)
}

func (s *PostgresStore) TotalBalance(ctx context.Context) (int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(balance), 0) FROM accounts`,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("total balance: %w", err)
	}
	return total, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT account_number, ip_address, balance FROM accounts ORDER BY account_number`,
	)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var list []Account
	for rows.Next() {
		var acc Account
		if err := rows.Scan(&acc.Number, &acc.IP, &acc.Balance); err != nil {
			return nil, fmt.Errorf("scan account row: %w", err)
		}
		list = append(list, acc)
	}
	return list, rows.Err()
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func rowsAffected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
