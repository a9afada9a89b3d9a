package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/enrollment/core"
	"github.com/trezcool/enrollment/core/guardian"
)

type guardianRow struct {
	ID             int64     `db:"id"`
	FirstName      string    `db:"first_name"`
	LastName       string    `db:"last_name"`
	DocumentType   string    `db:"document_type"`
	DocumentNumber string    `db:"document_number"`
	Phone          string    `db:"phone"`
	Email          string    `db:"email"`
	Address        string    `db:"address"`
	IsPrincipal    bool      `db:"is_principal"`
	Relationship   string    `db:"relationship"`
	CreatedAt      time.Time `db:"created_at"`
}

func (row guardianRow) unboil() guardian.Guardian {
	return guardian.Guardian{
		ID:             row.ID,
		FirstName:      row.FirstName,
		LastName:       row.LastName,
		DocumentType:   row.DocumentType,
		DocumentNumber: row.DocumentNumber,
		Phone:          row.Phone,
		Email:          row.Email,
		Address:        row.Address,
		IsPrincipal:    row.IsPrincipal,
		Relationship:   row.Relationship,
		CreatedAt:      row.CreatedAt.UTC(),
	}
}

const guardianSelect = `SELECT id, first_name, last_name, document_type, document_number, phone, email, address,
	is_principal, relationship, created_at
FROM guardians`

type guardianRepository struct {
	repo
}

var _ guardian.Repository = (*guardianRepository)(nil) // interface compliance check

func NewGuardianRepository(db *sqlx.DB) *guardianRepository {
	return &guardianRepository{repo{db: db}}
}

func (r guardianRepository) GetGuardianByID(ctx context.Context, id int64, exec ...core.DBExecutor) (guardian.Guardian, error) {
	var row guardianRow
	if err := r.get(ctx, exec, &row, r.query(guardianSelect+` WHERE id = ?`), id); err != nil {
		return guardian.Guardian{}, trapNoRowsErr(err, guardian.Entity, id)
	}
	return row.unboil(), nil
}

func (r guardianRepository) GetGuardianByDocument(ctx context.Context, docType, docNumber string, exec ...core.DBExecutor) (guardian.Guardian, error) {
	var row guardianRow
	q := r.query(guardianSelect + ` WHERE document_type = ? AND document_number = ?`)
	if err := r.get(ctx, exec, &row, q, docType, docNumber); err != nil {
		return guardian.Guardian{}, trapNoRowsErr(err, guardian.Entity, fmt.Sprintf("%s:%s", docType, docNumber))
	}
	return row.unboil(), nil
}

func (r guardianRepository) CreateGuardian(ctx context.Context, g guardian.Guardian, exec ...core.DBExecutor) (guardian.Guardian, error) {
	q := r.query(`INSERT INTO guardians
	(first_name, last_name, document_type, document_number, phone, email, address, is_principal, relationship, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (document_type, document_number) DO NOTHING
RETURNING id`)

	err := r.get(ctx, exec, &g.ID, q,
		g.FirstName, g.LastName, g.DocumentType, g.DocumentNumber, g.Phone, g.Email, g.Address,
		g.IsPrincipal, g.Relationship, g.CreatedAt.UTC(),
	)
	if errors.Is(err, sql.ErrNoRows) {
		// already registered
		return r.GetGuardianByDocument(ctx, g.DocumentType, g.DocumentNumber, exec...)
	}
	if err != nil {
		return guardian.Guardian{}, errors.Wrap(err, "inserting guardian")
	}
	return g, nil
}
