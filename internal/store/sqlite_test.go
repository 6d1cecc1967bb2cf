package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dnx-plataformas/crm-leads/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	require.NoError(t, st.Migrate(context.Background()))
	require.NoError(t, st.Ping(context.Background()))
}

func TestSQLite_ForeignKeysEnforced(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.CreateCompanyDetail(context.Background(), &model.CompanyDetail{LeadID: "ghost", CNPJ: "11222333000181"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert company detail")
}

func TestSQLite_OfficerPairUnique(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	lead := &model.Lead{TenantID: "t", Name: "ACME", TaxID: strPtr("11222333000181"), Source: "x"}
	require.NoError(t, st.CreateLead(ctx, lead))
	detail := &model.CompanyDetail{LeadID: lead.ID, CNPJ: "11222333000181"}
	require.NoError(t, st.CreateCompanyDetail(ctx, detail))

	require.NoError(t, st.CreateOfficer(ctx, &model.Officer{CompanyDetailID: detail.ID, CPF: "12345678901"}))
	require.Error(t, st.CreateOfficer(ctx, &model.Officer{CompanyDetailID: detail.ID, CPF: "12345678901"}))
}

func TestSQLite_OpenBadPath(t *testing.T) {
	_, err := NewSQLite(filepath.Join(t.TempDir(), "missing-dir", "x.db"))
	require.Error(t, err)
}

func TestIsSQLiteUnique(t *testing.T) {
	assert.False(t, isSQLiteUnique(nil))
	assert.False(t, isSQLiteUnique(assert.AnError))
}
