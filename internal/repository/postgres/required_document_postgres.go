package postgres

import (
	"context"
	"database/sql"

	"regportal/internal/model"
	"regportal/internal/repository"
)

// RequiredDocumentPostgres reads the document checklist in display order.
type RequiredDocumentPostgres struct {
	db *sql.DB
}

func NewRequiredDocumentPostgres(db *sql.DB) *RequiredDocumentPostgres {
	return &RequiredDocumentPostgres{db: db}
}

var _ repository.RequiredDocumentRepository = (*RequiredDocumentPostgres)(nil)

func (r *RequiredDocumentPostgres) List(ctx context.Context) ([]model.RequiredDocumentType, error) {
	const q = `
		SELECT name, required, instructions
		FROM required_document_types
		ORDER BY position ASC, name ASC
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.RequiredDocumentType, 0)
	for rows.Next() {
		var (
			t            model.RequiredDocumentType
			instructions sql.NullString
		)
		if err := rows.Scan(&t.Name, &t.Required, &instructions); err != nil {
			return nil, err
		}
		t.Instructions = instructions.String
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *RequiredDocumentPostgres) Upsert(ctx context.Context, t model.RequiredDocumentType, position int) error {
	const q = `
		INSERT INTO required_document_types (name, required, instructions, position)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE
		SET required = EXCLUDED.required, instructions = EXCLUDED.instructions, position = EXCLUDED.position
	`
	_, err := r.db.ExecContext(ctx, q, t.Name, t.Required, nullString(t.Instructions), position)
	return err
}
