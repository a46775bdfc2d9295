// internal/store/catalog_test.go
package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"advisory-engine/internal/common/errors"
	"advisory-engine/internal/common/logger"
)

// ==========================
// Test Helper Functions
// ==========================

func newCatalogStore(t *testing.T) (*CatalogStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewCatalogStore(db, logger.NewTestLogger(t)), mock
}

var programRowColumns = []string{
	"p.id", "p.name", "p.field_id", "p.level", "p.tuition_fee", "p.duration",
	"p.employment_rate", "p.rating", "p.average_salary",
	"u.id", "u.name", "u.city", "u.state",
}

// ==========================
// Field Lookup Tests
// ==========================

func TestCatalogStore_GetFieldByName(t *testing.T) {
	store, mock := newCatalogStore(t)

	rows := sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(3), "Engineering")
	mock.ExpectQuery(`LOWER\(name\) = LOWER\(\$1\)`).WithArgs("engineering").WillReturnRows(rows)

	field, err := store.GetFieldByName(context.Background(), "engineering")
	require.NoError(t, err)
	assert.Equal(t, int64(3), field.ID)
	assert.Equal(t, "Engineering", field.Name)
}

func TestCatalogStore_GetFieldByName_Unknown(t *testing.T) {
	store, mock := newCatalogStore(t)

	mock.ExpectQuery(`LOWER\(name\) = LOWER\(\$1\)`).WithArgs("Alchemy").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	_, err := store.GetFieldByName(context.Background(), "Alchemy")
	require.Error(t, err)
	assertErrorCode(t, err, errors.ErrCodeFieldNotFound)
}

func TestCatalogStore_FieldHasPrograms(t *testing.T) {
	store, mock := newCatalogStore(t)

	mock.ExpectQuery(`SELECT EXISTS`).WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := store.FieldHasPrograms(context.Background(), 3)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCatalogStore_ListFields(t *testing.T) {
	store, mock := newCatalogStore(t)

	rows := sqlmock.NewRows([]string{"id", "name"}).
		AddRow(int64(1), "Engineering").
		AddRow(int64(2), "Law")
	mock.ExpectQuery(`FROM field_of_interest ORDER BY id`).WillReturnRows(rows)

	fields, err := store.ListFields(context.Background())
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, "Law", fields[1].Name)
}

// ==========================
// Program Read Tests
// ==========================

func TestCatalogStore_GetActiveProgramsByField_NullableColumns(t *testing.T) {
	store, mock := newCatalogStore(t)

	rows := sqlmock.NewRows(programRowColumns).
		AddRow(
			int64(11), "Mechanical Engineering", int64(3),
			"Bachelor's Degree", 45000.0, "4 years", 88.5, 4.3, 3800.0,
			int64(1), "UM", "Kuala Lumpur", "Kuala Lumpur",
		).
		AddRow(
			int64(12), "Civil Engineering", int64(3),
			nil, nil, nil, nil, nil, nil,
			int64(2), "UKM", nil, nil,
		)
	mock.ExpectQuery(`p\.field_id = \$1 AND p\.is_active = TRUE`).
		WithArgs(int64(3)).WillReturnRows(rows)

	programs, err := store.GetActiveProgramsByField(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, programs, 2)

	full := programs[0]
	require.NotNil(t, full.Level)
	assert.Equal(t, "Bachelor's Degree", *full.Level)
	require.NotNil(t, full.TuitionFee)
	assert.Equal(t, 45000.0, *full.TuitionFee)
	require.NotNil(t, full.University.State)
	assert.Equal(t, "Kuala Lumpur", *full.University.State)

	sparse := programs[1]
	assert.Nil(t, sparse.Level)
	assert.Nil(t, sparse.TuitionFee)
	assert.Nil(t, sparse.Duration)
	assert.Nil(t, sparse.EmploymentRate)
	assert.Nil(t, sparse.Rating)
	assert.Nil(t, sparse.AverageSalary)
	assert.Nil(t, sparse.University.City)
	assert.Equal(t, "UKM", sparse.University.Name)
}

func TestCatalogStore_GetProgramByID(t *testing.T) {
	store, mock := newCatalogStore(t)

	rows := sqlmock.NewRows(programRowColumns).AddRow(
		int64(11), "Mechanical Engineering", int64(3),
		"Bachelor's Degree", 45000.0, "4 years", 88.5, 4.3, 3800.0,
		int64(1), "UM", "Kuala Lumpur", "Kuala Lumpur",
	)
	mock.ExpectQuery(`p\.id = \$1`).WithArgs(int64(11)).WillReturnRows(rows)

	program, err := store.GetProgramByID(context.Background(), 11)
	require.NoError(t, err)
	assert.Equal(t, "Mechanical Engineering", program.Name)
	assert.Equal(t, int64(1), program.University.ID)
}

func TestCatalogStore_GetProgramByID_Missing(t *testing.T) {
	store, mock := newCatalogStore(t)

	mock.ExpectQuery(`p\.id = \$1`).WithArgs(int64(999)).
		WillReturnRows(sqlmock.NewRows(programRowColumns))

	_, err := store.GetProgramByID(context.Background(), 999)
	require.Error(t, err)
	assertErrorCode(t, err, errors.ErrCodeProgramNotFound)
}

func TestCatalogStore_GetAllActivePrograms_QueryFailure(t *testing.T) {
	store, mock := newCatalogStore(t)

	mock.ExpectQuery(`p\.is_active = TRUE`).WillReturnError(assert.AnError)

	_, err := store.GetAllActivePrograms(context.Background())
	require.Error(t, err)
	assertErrorCode(t, err, errors.ErrCodeQueryExecutionFailed)
}
