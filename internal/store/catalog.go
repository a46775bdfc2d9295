// internal/store/catalog.go
package store

import (
	"context"
	"database/sql"

	"advisory-engine/internal/common/errors"
	"advisory-engine/internal/common/logger"
	"advisory-engine/internal/models"
)

// CatalogStore reads fields, programs and universities. The pipeline only
// ever reads the catalog; rows are copied into value types and never
// written back.
type CatalogStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewCatalogStore(db *sql.DB, log logger.Logger) *CatalogStore {
	return &CatalogStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"store": "catalog"}),
	}
}

// GetFieldByName resolves a field case-insensitively. Returns
// ErrCodeFieldNotFound when no field matches.
func (s *CatalogStore) GetFieldByName(ctx context.Context, name string) (*models.Field, error) {
	query := `SELECT id, name FROM field_of_interest WHERE LOWER(name) = LOWER($1)`

	var field models.Field
	err := s.db.QueryRowContext(ctx, query, name).Scan(&field.ID, &field.Name)
	if err == sql.ErrNoRows {
		return nil, errors.NewFieldNotFoundError(name)
	}
	if err != nil {
		return nil, queryError("get_field_by_name", err)
	}
	return &field, nil
}

// ListFields returns the whole field taxonomy.
func (s *CatalogStore) ListFields(ctx context.Context) ([]models.Field, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM field_of_interest ORDER BY id`)
	if err != nil {
		return nil, queryError("list_fields", err)
	}
	defer rows.Close()

	var fields []models.Field
	for rows.Next() {
		var field models.Field
		if err := rows.Scan(&field.ID, &field.Name); err != nil {
			return nil, queryError("list_fields", err)
		}
		fields = append(fields, field)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("list_fields", err)
	}
	return fields, nil
}

// FieldHasPrograms reports whether at least one active program references
// the field.
func (s *CatalogStore) FieldHasPrograms(ctx context.Context, fieldID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM programs WHERE field_id = $1 AND is_active = TRUE)`

	var exists bool
	if err := s.db.QueryRowContext(ctx, query, fieldID).Scan(&exists); err != nil {
		return false, queryError("field_has_programs", err)
	}
	return exists, nil
}

const programColumns = `
	p.id, p.name, p.field_id, p.level, p.tuition_fee, p.duration,
	p.employment_rate, p.rating, p.average_salary,
	u.id, u.name, u.city, u.state`

const programJoin = `
	FROM programs p
	JOIN universities u ON u.id = p.university_id`

// GetActiveProgramsByField fetches the active catalog for one field, joined
// with universities, in catalog order.
func (s *CatalogStore) GetActiveProgramsByField(ctx context.Context, fieldID int64) ([]models.ProgramCandidate, error) {
	query := `SELECT` + programColumns + programJoin + `
	WHERE p.field_id = $1 AND p.is_active = TRUE
	ORDER BY p.id`

	rows, err := s.db.QueryContext(ctx, query, fieldID)
	if err != nil {
		return nil, queryError("get_programs_by_field", err)
	}
	defer rows.Close()

	return scanPrograms(rows)
}

// GetAllActivePrograms fetches the full active catalog.
func (s *CatalogStore) GetAllActivePrograms(ctx context.Context) ([]models.ProgramCandidate, error) {
	query := `SELECT` + programColumns + programJoin + `
	WHERE p.is_active = TRUE
	ORDER BY p.id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, queryError("get_all_programs", err)
	}
	defer rows.Close()

	return scanPrograms(rows)
}

// GetProgramByID fetches a single program joined with its university.
func (s *CatalogStore) GetProgramByID(ctx context.Context, programID int64) (*models.ProgramCandidate, error) {
	query := `SELECT` + programColumns + programJoin + `
	WHERE p.id = $1`

	row := s.db.QueryRowContext(ctx, query, programID)
	program, err := scanProgram(row.Scan)
	if err == sql.ErrNoRows {
		return nil, errors.NewProgramNotFoundError(programID)
	}
	if err != nil {
		return nil, queryError("get_program_by_id", err)
	}
	return program, nil
}

func scanPrograms(rows *sql.Rows) ([]models.ProgramCandidate, error) {
	var programs []models.ProgramCandidate
	for rows.Next() {
		program, err := scanProgram(rows.Scan)
		if err != nil {
			return nil, queryError("scan_program", err)
		}
		programs = append(programs, *program)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("scan_program", err)
	}
	return programs, nil
}

func scanProgram(scan func(dest ...interface{}) error) (*models.ProgramCandidate, error) {
	var (
		program models.ProgramCandidate
		level   sql.NullString
		tuition sql.NullFloat64
		// free text, e.g. "3 years" or "18 months"
		duration   sql.NullString
		employment sql.NullFloat64
		rating     sql.NullFloat64
		salary     sql.NullFloat64
		city       sql.NullString
		state      sql.NullString
	)

	err := scan(
		&program.ID, &program.Name, &program.FieldID, &level, &tuition, &duration,
		&employment, &rating, &salary,
		&program.University.ID, &program.University.Name, &city, &state,
	)
	if err != nil {
		return nil, err
	}

	if level.Valid {
		program.Level = &level.String
	}
	if tuition.Valid {
		program.TuitionFee = &tuition.Float64
	}
	if duration.Valid {
		program.Duration = &duration.String
	}
	if employment.Valid {
		program.EmploymentRate = &employment.Float64
	}
	if rating.Valid {
		program.Rating = &rating.Float64
	}
	if salary.Valid {
		program.AverageSalary = &salary.Float64
	}
	if city.Valid {
		program.University.City = &city.String
	}
	if state.Valid {
		program.University.State = &state.String
	}

	return &program, nil
}
