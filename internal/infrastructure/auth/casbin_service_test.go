package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupCasbinDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func TestCasbinService_DefaultModel(t *testing.T) {
	db := setupCasbinDB(t)

	cas, err := NewCasbinService(db, "")
	require.NoError(t, err)

	_, err = cas.E.AddPolicy("role_admin", "/api/auth/customers/:id", "DELETE")
	require.NoError(t, err)
	_, err = cas.E.AddPolicy("role_admin", "/api/admin/*", "(GET|POST|DELETE)")
	require.NoError(t, err)

	tests := []struct {
		sub, obj, act string
		want          bool
	}{
		{"role_admin", "/api/auth/customers/42", "DELETE", true},
		{"role_admin", "/api/auth/customers/42", "GET", false},
		{"role_customer", "/api/auth/customers/42", "DELETE", false},
		{"role_admin", "/api/admin/policies", "POST", true},
		{"role_admin", "/api/admin/policies", "PUT", false},
	}
	for _, tt := range tests {
		ok, err := cas.E.Enforce(tt.sub, tt.obj, tt.act)
		require.NoError(t, err)
		assert.Equal(t, tt.want, ok, "%s %s %s", tt.sub, tt.act, tt.obj)
	}
}

func TestCasbinService_PersistsPolicies(t *testing.T) {
	db := setupCasbinDB(t)

	first, err := NewCasbinService(db, "")
	require.NoError(t, err)
	_, err = first.E.AddPolicy("role_owner", "/api/auth/customers/:id", "DELETE")
	require.NoError(t, err)

	second, err := NewCasbinService(db, "")
	require.NoError(t, err)
	ok, err := second.E.Enforce("role_owner", "/api/auth/customers/abc", "DELETE")
	require.NoError(t, err)
	assert.True(t, ok, "policies should be reloaded from the casbin_rule table")
}

func TestCasbinService_ModelFile(t *testing.T) {
	db := setupCasbinDB(t)
	path := filepath.Join(t.TempDir(), "model.conf")
	require.NoError(t, os.WriteFile(path, []byte(DefaultModel), 0o600))

	cas, err := NewCasbinService(db, path)
	require.NoError(t, err)
	assert.NotNil(t, cas.E)

	_, err = NewCasbinService(db, filepath.Join(t.TempDir(), "missing.conf"))
	assert.Error(t, err)
}
