package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-inventory-api/internal/models"
)

var goodCols = []string{"id", "name", "category_id", "description", "status", "quantity", "available_quantity", "location", "responsible", "created_at", "updated_at"}

func TestGoodListWithFilter(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGoodRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM goods WHERE category_id = $1 AND status = $2 ORDER BY created_at DESC")).
		WithArgs("c1", models.GoodStatusAvailable).
		WillReturnRows(sqlmock.NewRows(goodCols).AddRow("g1", "Soccer Ball", "c1", "", "available", 5, 5, "Shed", "Luis", now, now))

	goods, err := repo.List(context.Background(), models.GoodFilter{CategoryID: "c1", Status: models.GoodStatusAvailable})
	require.NoError(t, err)
	require.Len(t, goods, 1)
	assert.Equal(t, 5, goods[0].AvailableQuantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGoodFindByIDs(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGoodRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM goods WHERE id = ANY($1)")).
		WithArgs(pq.Array([]string{"g1", "g2"})).
		WillReturnRows(sqlmock.NewRows(goodCols).AddRow("g1", "Ball", "c1", "", "available", 5, 5, "", "", now, now))

	goods, err := repo.FindByIDs(context.Background(), []string{"g1", "g2"})
	require.NoError(t, err)
	assert.Contains(t, goods, "g1")
	assert.NotContains(t, goods, "g2")
}

func TestGoodUpdateShiftsAvailability(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGoodRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("available_quantity = available_quantity + $7")).
		WithArgs("g1", "Ball", "c1", "", models.GoodStatusAvailable, 12, 2, "", "", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"available_quantity"}).AddRow(9))

	good := &models.Good{ID: "g1", Name: "Ball", CategoryID: "c1", Status: models.GoodStatusAvailable, Quantity: 12}
	require.NoError(t, repo.Update(context.Background(), good, 2))
	assert.Equal(t, 9, good.AvailableQuantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGoodUpdateGuardRejectsNegativeAvailability(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGoodRepository(db)

	mock.ExpectQuery("UPDATE goods SET").WillReturnRows(sqlmock.NewRows([]string{"available_quantity"}))

	err := repo.Update(context.Background(), &models.Good{ID: "g1"}, -10)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestGoodTotals(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGoodRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) AS total_goods")).
		WillReturnRows(sqlmock.NewRows([]string{"total_goods", "total_quantity", "available_quantity"}).AddRow(3, 30, 21))

	totals, err := repo.Totals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, totals.TotalGoods)
	assert.Equal(t, 30, totals.TotalQuantity)
	assert.Equal(t, 21, totals.AvailableQuantity)
}

func TestCategoryDeleteReferenced(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCategoryRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM categories WHERE id = $1")).
		WithArgs("c1").
		WillReturnError(&pq.Error{Code: "23503", Constraint: "goods_category_id_fkey"})

	err := repo.Delete(context.Background(), "c1")
	assert.ErrorIs(t, err, ErrReferenced)
}
