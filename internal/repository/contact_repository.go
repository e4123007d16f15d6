package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/artist-site/internal/model"
)

type ContactRepo struct{ DB *sql.DB }

func NewContactRepo(db *sql.DB) *ContactRepo { return &ContactRepo{DB: db} }

func (r *ContactRepo) Create(ctx context.Context, c model.Contact) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO contacts (name,email,inquiry_type,subject,message) VALUES (?,?,?,?,?)",
		c.Name, c.Email, c.InquiryType, c.Subject, c.Message)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return uint64(id), err
}
