package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var inventoryReportCols = append(append([]string{}, goodCols...), "category_name")

func TestReportInventoryAllCategories(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN categories c ON c.id = g.category_id ORDER BY c.name ASC, g.name ASC")).
		WillReturnRows(sqlmock.NewRows(inventoryReportCols).
			AddRow("g1", "Soccer Ball", "c1", "", "available", 5, 3, "Shed", "Luis", now, now, "Balls").
			AddRow("g2", "Old Net", "", "", "retired", 1, 1, "", "", now, now, "N/A"))

	rows, err := repo.Inventory(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Balls", rows[0].CategoryName)
	assert.Equal(t, 3, rows[0].AvailableQuantity)
	assert.Equal(t, "N/A", rows[1].CategoryName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportInventoryByCategory(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE g.category_id = $1 ORDER BY")).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows(inventoryReportCols))

	rows, err := repo.Inventory(context.Background(), "c1")
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.NotNil(t, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
