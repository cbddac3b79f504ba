// Package testutil opens throwaway databases and seeds tenants for tests.
package testutil

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/suteetoe/erp/internal/model"
	"github.com/suteetoe/erp/pkg/database"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a shared in-memory sqlite database named after the test
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	return open(t, "file:"+name+"?mode=memory&cache=shared")
}

// NewFileDB opens a file-backed sqlite database that serialises writers,
// for tests that run transactions from several goroutines.
func NewFileDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "erp.db")
	return open(t, path+"?_busy_timeout=5000&_txlock=immediate")
}

func open(t *testing.T, dsn string) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

// Tenant is a seeded owner, its default company and its members
type Tenant struct {
	Owner   model.User
	Company model.Company
	Members []model.User
}

// SeedTenant creates an owner with a default company and n members
func SeedTenant(t *testing.T, db *gorm.DB, email string, members int) *Tenant {
	t.Helper()

	tn := &Tenant{
		Owner: model.User{Email: email, Name: "Owner " + email, Role: model.RoleOwner, Active: true, EmailVerified: true},
	}
	require.NoError(t, db.Create(&tn.Owner).Error)

	tn.Company = model.Company{OwnerID: tn.Owner.ID, Name: "Company " + email, IsDefault: true}
	require.NoError(t, db.Create(&tn.Company).Error)

	for i := 0; i < members; i++ {
		m := model.User{
			Email:         string(rune('a'+i)) + "." + email,
			Name:          "Member",
			Role:          model.RoleMember,
			CreatedByID:   &tn.Owner.ID,
			Active:        true,
			EmailVerified: true,
			HourlyRate:    decimal.NewNullDecimal(decimal.NewFromInt(10)),
		}
		require.NoError(t, db.Create(&m).Error)
		tn.Members = append(tn.Members, m)
	}
	return tn
}
