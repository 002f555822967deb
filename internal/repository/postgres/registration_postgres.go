package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"regportal/internal/model"
	"regportal/internal/repository"
)

const registrationColumns = `id, company_id, employee_id, full_name, national_id, status,
		documents, flagged_documents, submission_date, review_date, reviewer_id,
		rejection_reason, printed, printed_at, generated_at, collected_at, collector_name`

// RegistrationPostgres is a PostgreSQL implementation of repository.RegistrationRepository.
// Documents and flagged documents live in JSONB columns.
type RegistrationPostgres struct {
	db *sql.DB
}

func NewRegistrationPostgres(db *sql.DB) *RegistrationPostgres {
	return &RegistrationPostgres{db: db}
}

var _ repository.RegistrationRepository = (*RegistrationPostgres)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRegistration(row rowScanner) (*model.RegistrationRequest, error) {
	var (
		r          model.RegistrationRequest
		companyID  sql.NullString
		nationalID sql.NullString
		reviewerID sql.NullString
		reason     sql.NullString
		collector  sql.NullString
		docs       []byte
		flagged    []byte
		reviewDate sql.NullTime
		printedAt  sql.NullTime
		generated  sql.NullTime
		collected  sql.NullTime
	)
	if err := row.Scan(
		&r.ID,
		&companyID,
		&r.EmployeeID,
		&r.FullName,
		&nationalID,
		&r.Status,
		&docs,
		&flagged,
		&r.SubmissionDate,
		&reviewDate,
		&reviewerID,
		&reason,
		&r.Printed,
		&printedAt,
		&generated,
		&collected,
		&collector,
	); err != nil {
		return nil, err
	}
	r.CompanyID = companyID.String
	r.NationalID = nationalID.String
	r.ReviewerID = reviewerID.String
	r.RejectionReason = reason.String
	r.CollectorName = collector.String
	r.ReviewDate = nullTime(reviewDate)
	r.PrintedAt = nullTime(printedAt)
	r.GeneratedAt = nullTime(generated)
	r.CollectedAt = nullTime(collected)

	r.Documents = map[string]model.DocumentRef{}
	if len(docs) > 0 {
		if err := json.Unmarshal(docs, &r.Documents); err != nil {
			return nil, fmt.Errorf("decode documents of %s: %w", r.ID, err)
		}
	}
	if len(flagged) > 0 {
		if err := json.Unmarshal(flagged, &r.FlaggedDocuments); err != nil {
			return nil, fmt.Errorf("decode flagged documents of %s: %w", r.ID, err)
		}
	}
	return &r, nil
}

func (r *RegistrationPostgres) Create(ctx context.Context, req *model.RegistrationRequest) (*model.RegistrationRequest, error) {
	if err := req.CheckInvariants(); err != nil {
		return nil, err
	}
	docs, err := json.Marshal(nonNilDocs(req.Documents))
	if err != nil {
		return nil, fmt.Errorf("encode documents: %w", err)
	}
	flagged, err := json.Marshal(nonNilStrings(req.FlaggedDocuments))
	if err != nil {
		return nil, fmt.Errorf("encode flagged documents: %w", err)
	}
	q := `
		INSERT INTO registration_requests (id, company_id, employee_id, full_name, national_id, status, documents, flagged_documents, submission_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + registrationColumns
	row := r.db.QueryRowContext(ctx, q,
		req.ID,
		nullString(req.CompanyID),
		req.EmployeeID,
		req.FullName,
		nullString(req.NationalID),
		req.Status,
		docs,
		flagged,
		req.SubmissionDate,
	)
	return scanRegistration(row)
}

func (r *RegistrationPostgres) FindByID(ctx context.Context, id string) (*model.RegistrationRequest, error) {
	q := `SELECT ` + registrationColumns + ` FROM registration_requests WHERE id = $1`
	out, err := scanRegistration(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return out, err
}

// List returns a page of requests and the total match count.
func (r *RegistrationPostgres) List(ctx context.Context, f repository.RegistrationFilter) (*repository.PageResult[model.RegistrationRequest], error) {
	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.CompanyID != "" {
		args = append(args, f.CompanyID)
		where = append(where, fmt.Sprintf("company_id = $%d", len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM registration_requests`+clause, args...).Scan(&total); err != nil {
		return nil, err
	}

	limit := f.Page.Limit
	if limit <= 0 {
		limit = 20
	}
	pageArgs := append(append([]any(nil), args...), limit, f.Page.Offset)
	q := `SELECT ` + registrationColumns + ` FROM registration_requests` + clause +
		fmt.Sprintf(` ORDER BY submission_date DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	rows, err := r.db.QueryContext(ctx, q, pageArgs...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.RegistrationRequest, 0)
	for rows.Next() {
		req, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &repository.PageResult[model.RegistrationRequest]{Items: items, Total: total}, nil
}

// PutDocument merges one key into the documents object. Status is untouched.
func (r *RegistrationPostgres) PutDocument(ctx context.Context, id, docType string, ref model.DocumentRef) (*model.RegistrationRequest, error) {
	b, err := json.Marshal(ref)
	if err != nil {
		return nil, fmt.Errorf("encode document ref: %w", err)
	}
	q := `
		UPDATE registration_requests
		SET documents = documents || jsonb_build_object($2::text, $3::jsonb)
		WHERE id = $1
		RETURNING ` + registrationColumns
	out, err := scanRegistration(r.db.QueryRowContext(ctx, q, id, docType, b))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return out, err
}

// UpdateStatus runs the conditional write and its history insert in one transaction.
func (r *RegistrationPostgres) UpdateStatus(ctx context.Context, change repository.StatusChange) (*model.RegistrationRequest, error) {
	q, args, err := buildStatusUpdate(change)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	out, err := scanRegistration(tx.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		var current model.Status
		serr := tx.QueryRowContext(ctx, `SELECT status FROM registration_requests WHERE id = $1`, change.ID).Scan(&current)
		if errors.Is(serr, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		if serr != nil {
			return nil, serr
		}
		return nil, &repository.StaleError{ID: change.ID, Expected: change.From, Current: current}
	}
	if err != nil {
		return nil, err
	}

	const qHistory = `
		INSERT INTO registration_status_history (request_id, from_status, to_status, actor_id, changed_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := tx.ExecContext(ctx, qHistory, change.ID, change.From, change.To, nullString(change.ActorID), change.At); err != nil {
		return nil, fmt.Errorf("insert status history: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return out, nil
}

func buildStatusUpdate(c repository.StatusChange) (string, []any, error) {
	sets := []string{"status = $1"}
	args := []any{c.To}
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if c.ReviewerID != nil {
		set("reviewer_id", nullString(*c.ReviewerID))
	}
	if c.ReviewDate != nil {
		set("review_date", *c.ReviewDate)
	}
	if c.RejectionReason != nil {
		set("rejection_reason", nullString(*c.RejectionReason))
	}
	if c.FlaggedDocuments != nil {
		b, err := json.Marshal(nonNilStrings(*c.FlaggedDocuments))
		if err != nil {
			return "", nil, fmt.Errorf("encode flagged documents: %w", err)
		}
		set("flagged_documents", b)
	}
	if c.Printed != nil {
		set("printed", *c.Printed)
	}
	if c.PrintedAt != nil {
		set("printed_at", *c.PrintedAt)
	}
	if c.GeneratedAt != nil {
		set("generated_at", *c.GeneratedAt)
	}
	if c.CollectedAt != nil {
		set("collected_at", *c.CollectedAt)
	}
	if c.CollectorName != nil {
		set("collector_name", nullString(*c.CollectorName))
	}
	args = append(args, c.ID, c.From)
	q := fmt.Sprintf(`UPDATE registration_requests SET %s WHERE id = $%d AND status = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args)-1, len(args), registrationColumns)
	return q, args, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nonNilDocs(m map[string]model.DocumentRef) map[string]model.DocumentRef {
	if m == nil {
		return map[string]model.DocumentRef{}
	}
	return m
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
