package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-shop-pos/internal/model"
	"go-shop-pos/internal/repository"
	"go-shop-pos/internal/ws"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return db, mock
}

func newSaleService(db *gorm.DB) SaleService {
	hub := ws.NewHub()
	go hub.Run()
	return NewSaleService(
		repository.NewProductRepo(db),
		repository.NewSaleRepo(db),
		db,
		hub,
		3*time.Second,
	)
}

func productRows(id uint, name string, price int64, stock int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "emoji", "price", "stock", "barcode", "category", "img"}).
		AddRow(id, name, "🥪", price, stock, "", "Food", "")
}

func TestSubmitSaleEmptyCart(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newSaleService(db)

	_, err := svc.SubmitSale(context.Background(), &SaleRequest{Items: []SaleLine{}}, nil)

	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitSaleInvalidQuantity(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newSaleService(db)

	_, err := svc.SubmitSale(context.Background(), &SaleRequest{
		Items: []SaleLine{{ID: 1, Qty: -2}},
	}, nil)

	var invalid *ValidationError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "gt", invalid.Tag)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Scenario: price 300, stock 2, cart of 2, paid 0 — total and paid land on
// 600 and stock is decremented by 2 in the same transaction.
func TestSubmitSaleCommitsAtomically(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newSaleService(db)

	mock.ExpectBegin()
	mock.ExpectExec("SET LOCAL lock_timeout").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT .* FROM "products" .*FOR UPDATE`).
		WillReturnRows(productRows(1, "Sandwich", 300, 2))
	mock.ExpectExec(`UPDATE "products" SET "stock"=stock - \$1`).
		WithArgs(2, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "sales"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(`INSERT INTO "sale_items"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	operator := uint(7)
	sale, err := svc.SubmitSale(context.Background(), &SaleRequest{
		Items: []SaleLine{{ID: 1, Qty: 2}},
		Paid:  0,
	}, &operator)

	require.NoError(t, err)
	assert.Equal(t, int64(600), sale.Total)
	assert.Equal(t, int64(600), sale.Paid, "zero paid means exact payment")
	assert.Equal(t, sale.Date, model.SaleDate(time.UnixMilli(sale.Ts)))

	require.Len(t, sale.Items, 1)
	item := sale.Items[0]
	assert.Equal(t, "Sandwich", item.Name)
	assert.Equal(t, int64(300), item.Price)
	assert.Equal(t, 2, item.Qty)
	require.NotNil(t, item.ProductID)
	assert.Equal(t, uint(1), *item.ProductID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// Scenario: stock 0, cart of 1 — whole operation rolls back, the error
// carries the available quantity.
func TestSubmitSaleInsufficientStock(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newSaleService(db)

	mock.ExpectBegin()
	mock.ExpectExec("SET LOCAL lock_timeout").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT .* FROM "products" .*FOR UPDATE`).
		WillReturnRows(productRows(1, "Sandwich", 300, 0))
	mock.ExpectRollback()

	_, err := svc.SubmitSale(context.Background(), &SaleRequest{
		Items: []SaleLine{{ID: 1, Qty: 1}},
	}, nil)

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, uint(1), stockErr.ProductID)
	assert.Equal(t, 0, stockErr.Available)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// Duplicate cart lines for one product must validate against the running
// remainder, not the row stock each time.
func TestSubmitSaleDuplicateLinesCannotOversell(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newSaleService(db)

	mock.ExpectBegin()
	mock.ExpectExec("SET LOCAL lock_timeout").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT .* FROM "products" .*FOR UPDATE`).
		WillReturnRows(productRows(1, "Sandwich", 300, 3))
	mock.ExpectRollback()

	_, err := svc.SubmitSale(context.Background(), &SaleRequest{
		Items: []SaleLine{{ID: 1, Qty: 2}, {ID: 1, Qty: 2}},
	}, nil)

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 1, stockErr.Available, "second line sees what the first left")

	assert.NoError(t, mock.ExpectationsWereMet())
}

// Scenario: paid 100 against a 300 total — rejected before any decrement.
func TestSubmitSaleInsufficientPayment(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newSaleService(db)

	mock.ExpectBegin()
	mock.ExpectExec("SET LOCAL lock_timeout").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT .* FROM "products" .*FOR UPDATE`).
		WillReturnRows(productRows(1, "Sandwich", 300, 2))
	mock.ExpectRollback()

	_, err := svc.SubmitSale(context.Background(), &SaleRequest{
		Items: []SaleLine{{ID: 1, Qty: 1}},
		Paid:  100,
	}, nil)

	assert.ErrorIs(t, err, ErrInsufficientPayment)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitSaleUnknownProduct(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newSaleService(db)

	mock.ExpectBegin()
	mock.ExpectExec("SET LOCAL lock_timeout").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT .* FROM "products" .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := svc.SubmitSale(context.Background(), &SaleRequest{
		Items: []SaleLine{{ID: 42, Qty: 1}},
	}, nil)

	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, uint(42), notFound.ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// A lock wait that exceeds lock_timeout surfaces as the retryable ErrBusy.
func TestSubmitSaleLockTimeoutIsBusy(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newSaleService(db)

	mock.ExpectBegin()
	mock.ExpectExec("SET LOCAL lock_timeout").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT .* FROM "products" .*FOR UPDATE`).
		WillReturnError(&pgconn.PgError{Code: "55P03", Message: "canceling statement due to lock timeout"})
	mock.ExpectRollback()

	_, err := svc.SubmitSale(context.Background(), &SaleRequest{
		Items: []SaleLine{{ID: 1, Qty: 1}},
	}, nil)

	assert.ErrorIs(t, err, ErrBusy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A cart referencing two products locks them in ascending id order even when
// the register listed them the other way round.
func TestSubmitSaleLocksInAscendingIDOrder(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newSaleService(db)

	mock.ExpectBegin()
	mock.ExpectExec("SET LOCAL lock_timeout").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT .* FROM "products" .*FOR UPDATE`).
		WithArgs(1, 1).
		WillReturnRows(productRows(1, "Sandwich", 300, 5))
	mock.ExpectQuery(`SELECT .* FROM "products" .*FOR UPDATE`).
		WithArgs(2, 1).
		WillReturnRows(productRows(2, "Juice", 250, 5))
	mock.ExpectExec(`UPDATE "products" SET "stock"=stock - \$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "products" SET "stock"=stock - \$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "sales"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(`INSERT INTO "sale_items"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))
	mock.ExpectCommit()

	sale, err := svc.SubmitSale(context.Background(), &SaleRequest{
		Items: []SaleLine{{ID: 2, Qty: 1}, {ID: 1, Qty: 1}},
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, int64(550), sale.Total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Locks are always taken in ascending product id order, whatever order the
// register sent the cart in.
func TestDistinctSortedIDs(t *testing.T) {
	ids := distinctSortedIDs([]SaleLine{
		{ID: 3, Qty: 1},
		{ID: 1, Qty: 2},
		{ID: 2, Qty: 1},
		{ID: 1, Qty: 1},
	})
	assert.Equal(t, []uint{1, 2, 3}, ids)
}

func TestIsLockTimeout(t *testing.T) {
	assert.True(t, isLockTimeout(&pgconn.PgError{Code: "55P03"}))
	assert.False(t, isLockTimeout(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isLockTimeout(errors.New("plain error")))
}
