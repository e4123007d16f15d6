package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/artist-site/internal/model"
)

type ProductRepo struct{ DB *sql.DB }

func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{DB: db} }

const productCols = "id,name,description,price,image,stock,sizes"

type rowScanner interface{ Scan(dest ...any) error }

func scanProduct(s rowScanner) (model.Product, error) {
	var p model.Product
	var sizes string
	if err := s.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Image, &p.Stock, &sizes); err != nil {
		return p, err
	}
	if sizes != "" {
		p.Sizes = strings.Split(sizes, ",")
	}
	return p, nil
}

// List returns every product ordered by id.
func (r *ProductRepo) List(ctx context.Context) ([]model.Product, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+productCols+" FROM products ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetByID returns ErrNotFound for an unknown id.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (model.Product, error) {
	p, err := scanProduct(r.DB.QueryRowContext(ctx,
		"SELECT "+productCols+" FROM products WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	return p, err
}

// DecrementStock removes qty units in a single conditional update and
// returns the remaining stock. Two concurrent callers can never both succeed
// past zero: the WHERE clause re-checks stock under the row lock.
func (r *ProductRepo) DecrementStock(ctx context.Context, id string, qty int) (int, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"UPDATE products SET stock = stock - ? WHERE id = ? AND stock >= ?", qty, id, qty)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		var exists int
		if err := tx.QueryRowContext(ctx, "SELECT 1 FROM products WHERE id=?", id).Scan(&exists); errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, ErrInsufficientStock
	}

	var stock int
	if err := tx.QueryRowContext(ctx, "SELECT stock FROM products WHERE id=?", id).Scan(&stock); err != nil {
		return 0, err
	}
	return stock, tx.Commit()
}

// IncrementStock returns qty units, e.g. when a cart line is removed.
func (r *ProductRepo) IncrementStock(ctx context.Context, id string, qty int) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE products SET stock = stock + ? WHERE id = ?", qty, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStock overwrites the stock count.
func (r *ProductRepo) SetStock(ctx context.Context, id string, stock int) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE products SET stock=? WHERE id=?", stock, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports 0 affected rows when the value is unchanged.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
