package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/olgkv/tasklist/internal/domain"
)

const createTasksTable = `CREATE TABLE IF NOT EXISTS tasks (
    id BIGINT PRIMARY KEY AUTO_INCREMENT,
    name VARCHAR(255) NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'Pending',
    creation_date TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

const selectTasks = `SELECT id, name, status, creation_date FROM tasks`

// MySQLStorage keeps tasks in a single table. Every operation is one
// statement; nothing spans a transaction.
type MySQLStorage struct {
	db *sql.DB
}

// OpenMySQL connects using dsn and creates the tasks table when missing.
// ClientFoundRows is forced so an UPDATE that matches a row without
// changing it still reports one affected row.
func OpenMySQL(ctx context.Context, dsn string) (*MySQLStorage, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.ClientFoundRows = true

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("mysql connector: %w", err)
	}
	db := sql.OpenDB(connector)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	s := NewMySQLStorage(db)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func NewMySQLStorage(db *sql.DB) *MySQLStorage {
	return &MySQLStorage{db: db}
}

func (s *MySQLStorage) Close() error { return s.db.Close() }

func (s *MySQLStorage) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTasksTable); err != nil {
		return fmt.Errorf("create tasks table: %w", err)
	}
	return nil
}

func (s *MySQLStorage) List(ctx context.Context) ([]*domain.Task, error) {
	rows, err := s.db.QueryContext(ctx, selectTasks+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var out []*domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return out, nil
}

func (s *MySQLStorage) Get(ctx context.Context, id int) (*domain.Task, error) {
	row := s.db.QueryRowContext(ctx, selectTasks+` WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound(id)
	}
	return t, err
}

func (s *MySQLStorage) Create(ctx context.Context, name string, status domain.Status, created time.Time) (*domain.Task, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (name, status, creation_date) VALUES (?, ?, ?)`,
		name, string(status), created)
	if err != nil {
		return nil, domain.StorageWrite(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, domain.StorageWrite(err)
	}
	return &domain.Task{ID: int(id), Name: name, Status: status, CreationDate: created}, nil
}

func (s *MySQLStorage) Rename(ctx context.Context, id int, name string) error {
	return s.execOne(ctx, id, `UPDATE tasks SET name = ? WHERE id = ?`, name, id)
}

func (s *MySQLStorage) UpdateStatus(ctx context.Context, id int, status domain.Status) error {
	return s.execOne(ctx, id, `UPDATE tasks SET status = ? WHERE id = ?`, string(status), id)
}

func (s *MySQLStorage) Delete(ctx context.Context, id int) error {
	return s.execOne(ctx, id, `DELETE FROM tasks WHERE id = ?`, id)
}

// execOne runs a single-row statement; zero affected rows means the id does not exist.
func (s *MySQLStorage) execOne(ctx context.Context, id int, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return domain.StorageWrite(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.StorageWrite(err)
	}
	if n == 0 {
		return domain.NotFound(id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(r rowScanner) (*domain.Task, error) {
	var (
		t      domain.Task
		status string
	)
	if err := r.Scan(&t.ID, &t.Name, &status, &t.CreationDate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}
	st, err := domain.ParseStatus(status)
	if err != nil {
		return nil, domain.DataFormat(fmt.Errorf("task %d: unknown status %q", t.ID, status))
	}
	t.Status = st
	return &t, nil
}
