package postgres

import (
	"context"
	"database/sql"

	"clinsim/internal/model"
	"clinsim/internal/repository"
)

// PatientFilePostgres is a PostgreSQL implementation of
// repository.PatientFileRepository. It uses database/sql with parameterized
// queries and contains no business logic.
type PatientFilePostgres struct {
	db *sql.DB
}

// NewPatientFilePostgres creates a new PatientFilePostgres repository.
func NewPatientFilePostgres(db *sql.DB) *PatientFilePostgres {
	return &PatientFilePostgres{db: db}
}

var _ repository.PatientFileRepository = (*PatientFilePostgres)(nil)

const fileColumns = `id, patient_id, category, requires_pagination, page_count, filename, storage_path, size, content_type, created_at`

func scanFile(row interface{ Scan(...any) error }) (*model.PatientFile, error) {
	var f model.PatientFile
	if err := row.Scan(
		&f.ID,
		&f.PatientID,
		&f.Category,
		&f.RequiresPagination,
		&f.PageCount,
		&f.Filename,
		&f.StoragePath,
		&f.Size,
		&f.ContentType,
		&f.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &f, nil
}

// Create inserts a new patient file row and returns the stored record.
func (r *PatientFilePostgres) Create(ctx context.Context, file *model.PatientFile) (*model.PatientFile, error) {
	const q = `
		INSERT INTO patient_files (id, patient_id, category, requires_pagination, page_count, filename, storage_path, size, content_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + fileColumns
	row := r.db.QueryRowContext(ctx, q,
		file.ID,
		file.PatientID,
		file.Category,
		file.RequiresPagination,
		file.PageCount,
		file.Filename,
		file.StoragePath,
		file.Size,
		file.ContentType,
		file.CreatedAt,
	)
	return scanFile(row)
}

// FindByID fetches a single file by its ID.
func (r *PatientFilePostgres) FindByID(ctx context.Context, id string) (*model.PatientFile, error) {
	const q = `SELECT ` + fileColumns + ` FROM patient_files WHERE id = $1`
	return scanFile(r.db.QueryRowContext(ctx, q, id))
}

// FindByIDs returns the subset of the given IDs that exist.
func (r *PatientFilePostgres) FindByIDs(ctx context.Context, ids []string) ([]model.PatientFile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	// pgx's stdlib driver encodes a []string argument as text[] natively.
	const q = `SELECT ` + fileColumns + ` FROM patient_files WHERE id = ANY($1)`
	rows, err := r.db.QueryContext(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []model.PatientFile
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, *f)
	}
	return files, rows.Err()
}

// ListByPatient returns a patient's files using LIMIT/OFFSET pagination and
// a total count.
func (r *PatientFilePostgres) ListByPatient(ctx context.Context, patientID string, pq repository.PageQuery) (*repository.PageResult[model.PatientFile], error) {
	const qCount = `SELECT COUNT(*) FROM patient_files WHERE patient_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount, patientID).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT ` + fileColumns + `
		FROM patient_files
		WHERE patient_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, qList, patientID, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.PatientFile, 0)
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.PatientFile]{Items: items, Total: total}, nil
}

// UpdateClassification corrects category, pagination flag and page count.
func (r *PatientFilePostgres) UpdateClassification(ctx context.Context, id string, category model.FileCategory, requiresPagination bool, pageCount *int) (*model.PatientFile, error) {
	const q = `
		UPDATE patient_files
		SET category = $2, requires_pagination = $3, page_count = $4
		WHERE id = $1
		RETURNING ` + fileColumns
	return scanFile(r.db.QueryRowContext(ctx, q, id, category, requiresPagination, pageCount))
}

// Delete removes a file by ID. It does not return an error if the row does
// not exist.
func (r *PatientFilePostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM patient_files WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}
