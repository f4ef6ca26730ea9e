//go:build integration
// +build integration

// To enable gopls support for this file, add the following to your VSCode settings.json:
// "gopls": {
//   "buildFlags": ["-tags=integration"]
// }

package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go-shop-pos/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupPostgresContainer(t *testing.T) (*gorm.DB, func()) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("shop_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&model.Product{}, &model.Sale{}, &model.SaleItem{}, &model.User{})
	require.NoError(t, err)

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		pgContainer.Terminate(ctx)
	}

	return db, cleanup
}

// Two registers race for the last unit. Exactly one sale commits, the other
// is turned away, and stock never goes negative.
func TestSubmitSaleConcurrentLastUnit(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	svc := newSaleService(db)

	product := model.Product{Name: "Sandwich", Emoji: "🥪", Price: 300, Stock: 1, Category: "Food"}
	require.NoError(t, db.Create(&product).Error)

	start := make(chan struct{})
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			<-start
			_, err := svc.SubmitSale(context.Background(), &SaleRequest{
				Items: []SaleLine{{ID: product.ID, Qty: 1}},
			}, nil)
			results <- err
		}()
	}
	close(start)

	var succeeded, turnedAway int
	for i := 0; i < 2; i++ {
		err := <-results
		if err == nil {
			succeeded++
			continue
		}
		var noStock *InsufficientStockError
		require.ErrorAs(t, err, &noStock)
		assert.Equal(t, 0, noStock.Available)
		turnedAway++
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, turnedAway)

	var reloaded model.Product
	require.NoError(t, db.First(&reloaded, product.ID).Error)
	assert.Equal(t, 0, reloaded.Stock)

	var saleCount int64
	require.NoError(t, db.Model(&model.Sale{}).Count(&saleCount).Error)
	assert.EqualValues(t, 1, saleCount)
}

// Carts listing the same two products in opposite order must not deadlock:
// rows are locked in ascending product id order regardless of cart order.
// Each register submits five carts of one unit per product, draining both
// products exactly to zero.
func TestSubmitSaleOppositeOrderCartsDoNotDeadlock(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	svc := newSaleService(db)

	water := model.Product{Name: "Water 0.5l", Emoji: "💧", Price: 200, Stock: 10, Category: "Drinks"}
	juice := model.Product{Name: "Juice", Emoji: "🧃", Price: 250, Stock: 10, Category: "Drinks"}
	require.NoError(t, db.Create(&water).Error)
	require.NoError(t, db.Create(&juice).Error)

	const rounds = 5
	carts := [][]SaleLine{
		{{ID: water.ID, Qty: 1}, {ID: juice.ID, Qty: 1}},
		{{ID: juice.ID, Qty: 1}, {ID: water.ID, Qty: 1}},
	}

	start := make(chan struct{})
	results := make(chan error, 2*rounds)
	var wg sync.WaitGroup
	for _, cart := range carts {
		wg.Add(1)
		go func(items []SaleLine) {
			defer wg.Done()
			<-start
			for i := 0; i < rounds; i++ {
				_, err := svc.SubmitSale(context.Background(), &SaleRequest{Items: items}, nil)
				results <- err
			}
		}(cart)
	}
	close(start)
	wg.Wait()
	close(results)

	for err := range results {
		if errors.Is(err, ErrBusy) {
			t.Fatalf("lock wait timed out, ordered locking should prevent this: %v", err)
		}
		require.NoError(t, err)
	}

	for _, id := range []uint{water.ID, juice.ID} {
		var reloaded model.Product
		require.NoError(t, db.First(&reloaded, id).Error)
		assert.Equal(t, 0, reloaded.Stock, "product %d", id)
	}

	var saleCount int64
	require.NoError(t, db.Model(&model.Sale{}).Count(&saleCount).Error)
	assert.EqualValues(t, 2*rounds, saleCount)
}
