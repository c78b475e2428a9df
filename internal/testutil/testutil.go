// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"tafaseel/internal/model"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDB returns a migrated in-memory sqlite database private to the test.
func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Discard,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(model.All()...))
	return db
}

func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// CreateUser stores a merchant user with an account holding live tokens.
func CreateUser(t testing.TB, db *gorm.DB, sallaID string) (*model.SallaUser, *model.Account) {
	t.Helper()

	user := &model.SallaUser{
		SallaID:  model.SallaID(sallaID),
		Name:     "Merchant " + sallaID,
		Email:    sallaID + "@example.com",
		Merchant: map[string]any{"id": sallaID},
	}
	require.NoError(t, db.Omit("Store", "Account").Create(user).Error)

	account := &model.Account{
		UserID:       &user.ID,
		AccessToken:  "access-" + sallaID,
		RefreshToken: "refresh-" + sallaID,
		TokenType:    "bearer",
	}
	require.NoError(t, db.Omit("User").Create(account).Error)
	return user, account
}
