// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/gauntlet/pkg/errutil"
)

// mockMigrate implements migrateIface for testing.
type mockMigrate struct {
	upErr          error
	downErr        error
	stepsErr       error
	versionVal     uint
	versionErr     error
	dirty          bool
	forceErr       error
	forced         int
	closeSourceErr error
	closeDbErr     error
}

func (m *mockMigrate) Up() error                    { return m.upErr }
func (m *mockMigrate) Down() error                  { return m.downErr }
func (m *mockMigrate) Steps(_ int) error            { return m.stepsErr }
func (m *mockMigrate) Version() (uint, bool, error) { return m.versionVal, m.dirty, m.versionErr }
func (m *mockMigrate) Close() (error, error)        { return m.closeSourceErr, m.closeDbErr }

func (m *mockMigrate) Force(v int) error {
	m.forced = v
	return m.forceErr
}

func TestNewMigrator_InitFailures(t *testing.T) {
	for _, url := range []string{
		"invalid://url",
		"badscheme://localhost:5432/testdb",
		"postgresql://localhost:1/testdb",
	} {
		t.Run(url, func(t *testing.T) {
			_, err := NewMigrator(url)
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, "MIGRATION_INIT_FAILED")
			assert.NotContains(t, err.Error(), "unknown driver postgresql")
		})
	}
}

func TestMigrateURL(t *testing.T) {
	tests := map[string]string{
		"postgres://u:p@db:5432/gauntlet":   "pgx5://u:p@db:5432/gauntlet",
		"postgresql://u:p@db:5432/gauntlet": "pgx5://u:p@db:5432/gauntlet",
		"pgx5://u:p@db:5432/gauntlet":       "pgx5://u:p@db:5432/gauntlet",
	}
	for in, want := range tests {
		assert.Equal(t, want, migrateURL(in), in)
	}
}

func TestMigrator_Operations(t *testing.T) {
	boom := errors.New("database locked")

	tests := []struct {
		name     string
		mock     *mockMigrate
		call     func(*Migrator) error
		wantCode string
	}{
		{"up", &mockMigrate{}, (*Migrator).Up, ""},
		{"up no change", &mockMigrate{upErr: migrate.ErrNoChange}, (*Migrator).Up, ""},
		{"up error", &mockMigrate{upErr: boom}, (*Migrator).Up, "MIGRATION_UP_FAILED"},
		{"down", &mockMigrate{}, (*Migrator).Down, ""},
		{"down no change", &mockMigrate{downErr: migrate.ErrNoChange}, (*Migrator).Down, ""},
		{"down error", &mockMigrate{downErr: boom}, (*Migrator).Down, "MIGRATION_DOWN_FAILED"},
		{"steps", &mockMigrate{}, func(m *Migrator) error { return m.Steps(2) }, ""},
		{"steps zero", &mockMigrate{stepsErr: migrate.ErrNoChange}, func(m *Migrator) error { return m.Steps(0) }, ""},
		{"steps error", &mockMigrate{stepsErr: boom}, func(m *Migrator) error { return m.Steps(-1) }, "MIGRATION_STEPS_FAILED"},
		{"force", &mockMigrate{}, func(m *Migrator) error { return m.Force(2) }, ""},
		{"force negative", &mockMigrate{}, func(m *Migrator) error { return m.Force(-1) }, "INVALID_VERSION"},
		{"force error", &mockMigrate{forceErr: boom}, func(m *Migrator) error { return m.Force(2) }, "MIGRATION_FORCE_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call(&Migrator{m: tt.mock})
			if tt.wantCode == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, tt.wantCode)
		})
	}
}

func TestMigrator_ForceNegativeNeverReachesDriver(t *testing.T) {
	mock := &mockMigrate{forced: 42}
	require.Error(t, (&Migrator{m: mock}).Force(-3))
	assert.Equal(t, 42, mock.forced)
}

func TestMigrator_Version(t *testing.T) {
	tests := []struct {
		name      string
		mock      *mockMigrate
		wantVer   uint
		wantDirty bool
		wantErr   bool
	}{
		{"clean", &mockMigrate{versionVal: 2}, 2, false, false},
		{"dirty", &mockMigrate{versionVal: 3, dirty: true}, 3, true, false},
		{"never migrated", &mockMigrate{versionErr: migrate.ErrNilVersion}, 0, false, false},
		{"error", &mockMigrate{versionErr: errors.New("connection lost")}, 0, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, dirty, err := (&Migrator{m: tt.mock}).Version()
			if tt.wantErr {
				require.Error(t, err)
				errutil.AssertErrorCode(t, err, "MIGRATION_VERSION_FAILED")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantVer, v)
			assert.Equal(t, tt.wantDirty, dirty)
		})
	}
}

func TestMigrator_Close(t *testing.T) {
	srcErr := errors.New("source close failed")
	dbErr := errors.New("db close failed")

	tests := []struct {
		name          string
		mock          *mockMigrate
		wantComponent string
	}{
		{"clean", &mockMigrate{}, ""},
		{"source", &mockMigrate{closeSourceErr: srcErr}, "source"},
		{"database", &mockMigrate{closeDbErr: dbErr}, "database"},
		{"both", &mockMigrate{closeSourceErr: srcErr, closeDbErr: dbErr}, "both"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := (&Migrator{m: tt.mock}).Close()
			if tt.wantComponent == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, "MIGRATION_CLOSE_FAILED")
			errutil.AssertErrorContext(t, err, "component", tt.wantComponent)
		})
	}

	t.Run("both errors keep both messages", func(t *testing.T) {
		err := (&Migrator{m: &mockMigrate{closeSourceErr: srcErr, closeDbErr: dbErr}}).Close()
		assert.Contains(t, err.Error(), "source close failed")
		assert.Contains(t, err.Error(), "db close failed")
	})
}

func TestMigrator_Status(t *testing.T) {
	tests := []struct {
		name        string
		mock        *mockMigrate
		wantApplied []uint
		wantPending []uint
	}{
		{"fresh database", &mockMigrate{versionErr: migrate.ErrNilVersion}, nil, []uint{1, 2, 3}},
		{"partially migrated", &mockMigrate{versionVal: 1}, []uint{1}, []uint{2, 3}},
		{"latest", &mockMigrate{versionVal: 3}, []uint{1, 2, 3}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Migrator{m: tt.mock}

			st, err := m.Status()
			require.NoError(t, err)
			assert.Equal(t, tt.wantApplied, st.Applied)
			assert.Equal(t, tt.wantPending, st.Pending)

			pending, err := m.PendingMigrations()
			require.NoError(t, err)
			assert.Equal(t, tt.wantPending, pending)

			applied, err := m.AppliedMigrations()
			require.NoError(t, err)
			assert.Equal(t, tt.wantApplied, applied)
		})
	}
}

func TestMigrator_StatusVersionError(t *testing.T) {
	m := &Migrator{m: &mockMigrate{versionErr: errors.New("connection lost")}}

	_, err := m.PendingMigrations()
	require.Error(t, err)
	errutil.AssertErrorContext(t, err, "operation", "get pending migrations")

	_, err = m.AppliedMigrations()
	require.Error(t, err)
	errutil.AssertErrorContext(t, err, "operation", "get applied migrations")
}

// closedMock fails every call once Close has run, like golang-migrate.
type closedMock struct {
	closed bool
}

var errMigratorClosed = errors.New("migrator is closed")

func (m *closedMock) check() error {
	if m.closed {
		return errMigratorClosed
	}
	return nil
}

func (m *closedMock) Up() error                    { return m.check() }
func (m *closedMock) Down() error                  { return m.check() }
func (m *closedMock) Steps(_ int) error            { return m.check() }
func (m *closedMock) Force(_ int) error            { return m.check() }
func (m *closedMock) Version() (uint, bool, error) { return 1, false, m.check() }

func (m *closedMock) Close() (error, error) {
	m.closed = true
	return nil, nil
}

func TestMigrator_MethodsAfterClose(t *testing.T) {
	calls := map[string]func(*Migrator) error{
		"Up":    (*Migrator).Up,
		"Down":  (*Migrator).Down,
		"Steps": func(m *Migrator) error { return m.Steps(1) },
		"Force": func(m *Migrator) error { return m.Force(1) },
		"Version": func(m *Migrator) error {
			_, _, err := m.Version()
			return err
		},
		"Status": func(m *Migrator) error {
			_, err := m.Status()
			return err
		},
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			m := &Migrator{m: &closedMock{}}
			require.NoError(t, m.Close())
			require.Error(t, call(m))
		})
	}
}

func TestMigrationName(t *testing.T) {
	tests := []struct {
		version  uint
		expected string
	}{
		{1, "000001_challenge_settings"},
		{2, "000002_permadeath"},
		{3, "000003_challenge_runs"},
		{999, ""},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("version_%d", tt.version), func(t *testing.T) {
			name, err := MigrationName(tt.version)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, name)
		})
	}
}

func TestLatestVersion(t *testing.T) {
	v, err := LatestVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(3), v)
}

func TestAllMigrationVersions_ReturnsCopy(t *testing.T) {
	versions, err := allMigrationVersions()
	require.NoError(t, err)
	require.NotEmpty(t, versions)
	versions[0] = 99999

	again, err := allMigrationVersions()
	require.NoError(t, err)
	assert.Equal(t, uint(1), again[0], "mutation should not affect cache")
}
