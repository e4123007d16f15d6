package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*ProductRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewProductRepo(db), mock
}

const decrementSQL = "UPDATE products SET stock = stock - ? WHERE id = ? AND stock >= ?"

func TestDecrementStock(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(decrementSQL)).WithArgs(2, "1", 2).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT stock FROM products WHERE id=?")).WithArgs("1").
		WillReturnRows(sqlmock.NewRows([]string{"stock"}).AddRow(3))
	mock.ExpectCommit()

	left, err := repo.DecrementStock(context.Background(), "1", 2)
	require.NoError(t, err)
	assert.Equal(t, 3, left)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecrementStockInsufficient(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(decrementSQL)).WithArgs(5, "1", 5).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM products WHERE id=?")).WithArgs("1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectRollback()

	_, err := repo.DecrementStock(context.Background(), "1", 5)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecrementStockUnknownProduct(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(decrementSQL)).WithArgs(1, "9", 1).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM products WHERE id=?")).WithArgs("9").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectRollback()

	_, err := repo.DecrementStock(context.Background(), "9", 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubscriberCreateDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO subscribers")).
		WithArgs("fan@example.com", "footer", "tok").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	_, err = NewSubscriberRepo(db).Create(context.Background(), " Fan@Example.com ", "footer", "tok")
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestIsDuplicate(t *testing.T) {
	assert.True(t, isDuplicate(fmt.Errorf("insert: %w", &mysql.MySQLError{Number: 1062})))
	assert.False(t, isDuplicate(&mysql.MySQLError{Number: 1452}))
	assert.False(t, isDuplicate(errors.New("boom")))
}
