package postgres

import (
	"context"
	"database/sql"
	"errors"

	"regportal/internal/model"
	"regportal/internal/repository"
)

// CredentialPostgres stores credentials keyed by employee_id.
type CredentialPostgres struct {
	db *sql.DB
}

func NewCredentialPostgres(db *sql.DB) *CredentialPostgres {
	return &CredentialPostgres{db: db}
}

var _ repository.CredentialRepository = (*CredentialPostgres)(nil)

func scanCredential(row rowScanner) (*model.Credential, error) {
	var c model.Credential
	if err := row.Scan(
		&c.EmployeeID,
		&c.RequestID,
		&c.IDNumber,
		&c.IssueDate,
		&c.ExpiryDate,
		&c.Status,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CredentialPostgres) FindByEmployeeID(ctx context.Context, employeeID string) (*model.Credential, error) {
	const q = `
		SELECT employee_id, request_id, id_number, issue_date, expiry_date, status
		FROM credentials
		WHERE employee_id = $1
	`
	c, err := scanCredential(r.db.QueryRowContext(ctx, q, employeeID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return c, err
}

// CreateIfAbsent relies on the employee_id primary key. The no-op update makes
// RETURNING yield the existing row on conflict.
func (r *CredentialPostgres) CreateIfAbsent(ctx context.Context, c *model.Credential) (*model.Credential, error) {
	const q = `
		INSERT INTO credentials (employee_id, request_id, id_number, issue_date, expiry_date, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (employee_id) DO UPDATE SET employee_id = EXCLUDED.employee_id
		RETURNING employee_id, request_id, id_number, issue_date, expiry_date, status
	`
	return scanCredential(r.db.QueryRowContext(ctx, q,
		c.EmployeeID,
		c.RequestID,
		c.IDNumber,
		c.IssueDate,
		c.ExpiryDate,
		string(c.Status),
	))
}

func (r *CredentialPostgres) Activate(ctx context.Context, employeeID string) error {
	const q = `UPDATE credentials SET status = 'active' WHERE employee_id = $1`
	res, err := r.db.ExecContext(ctx, q, employeeID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
