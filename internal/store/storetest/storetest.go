// Package storetest opens throwaway databases for tests.
package storetest

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"healthcare-risk-platform/internal/models"
	"healthcare-risk-platform/internal/store"
)

var seq atomic.Int64

// OpenDB returns a migrated in-memory SQLite database private to t.
func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:storetest%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", seq.Add(1))
	db, err := models.OpenDialector(sqlite.Open(dsn), models.DatabaseConfig{MaxOpenConns: 1})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// New returns a Store over a fresh database with no cache.
func New(t testing.TB) *store.Store {
	t.Helper()
	return store.New(OpenDB(t), nil, nil)
}

// Patient returns a valid, unsaved patient with the given MRN.
func Patient(mrn string) *models.Patient {
	return &models.Patient{
		MRN:         mrn,
		FirstName:   "Ada",
		LastName:    "Lovelace",
		DateOfBirth: datatypes.Date(time.Date(1980, 12, 10, 0, 0, 0, 0, time.UTC)),
		Gender:      models.GenderFemale,
	}
}
