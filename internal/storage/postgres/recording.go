package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/psavelis/safelynx/internal/domain/entity"
	"github.com/psavelis/safelynx/internal/domain/repository"
)

// RecordingRepo persists entity.Recording rows.
type RecordingRepo struct {
	pool *Pool
}

// NewRecordingRepo wraps pool as a repository.RecordingRepository.
func NewRecordingRepo(pool *Pool) *RecordingRepo {
	return &RecordingRepo{pool: pool}
}

const recordingColumns = `id, camera_id, file_path, file_size_bytes, duration_ms, frame_count,
	        status, has_detections, started_at, ended_at, created_at`

func (r *RecordingRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Recording, error) {
	var rec entity.Recording
	err := r.pool.QueryRow(ctx,
		`SELECT `+recordingColumns+` FROM recordings WHERE id = $1`, id,
	).Scan(&rec.ID, &rec.CameraID, &rec.FilePath, &rec.FileSizeBytes, &rec.DurationMs, &rec.FrameCount,
		&rec.Status, &rec.HasDetections, &rec.StartedAt, &rec.EndedAt, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &repository.NotFoundError{Entity: "recording", ID: id.String()}
		}
		return nil, fmt.Errorf("find recording by id: %w", err)
	}
	return &rec, nil
}

func (r *RecordingRepo) FindAll(ctx context.Context, limit int64) ([]entity.Recording, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+recordingColumns+` FROM recordings ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("find all recordings: %w", err)
	}
	defer rows.Close()
	return scanRecordings(rows)
}

func (r *RecordingRepo) FindByCamera(ctx context.Context, cameraID uuid.UUID, limit int64) ([]entity.Recording, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+recordingColumns+` FROM recordings WHERE camera_id = $1 ORDER BY started_at DESC LIMIT $2`,
		cameraID, limit)
	if err != nil {
		return nil, fmt.Errorf("find recordings by camera: %w", err)
	}
	defer rows.Close()
	return scanRecordings(rows)
}

func (r *RecordingRepo) FindWithDetections(ctx context.Context, limit int64) ([]entity.Recording, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+recordingColumns+` FROM recordings WHERE has_detections = true ORDER BY started_at DESC LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("find recordings with detections: %w", err)
	}
	defer rows.Close()
	return scanRecordings(rows)
}

// FindOldest returns the oldest recordings first, the order storage quota
// cleanup deletes in.
func (r *RecordingRepo) FindOldest(ctx context.Context, limit int64) ([]entity.Recording, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+recordingColumns+` FROM recordings ORDER BY started_at ASC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("find oldest recordings: %w", err)
	}
	defer rows.Close()
	return scanRecordings(rows)
}

func scanRecordings(rows pgx.Rows) ([]entity.Recording, error) {
	var recordings []entity.Recording
	for rows.Next() {
		var rec entity.Recording
		if err := rows.Scan(&rec.ID, &rec.CameraID, &rec.FilePath, &rec.FileSizeBytes, &rec.DurationMs,
			&rec.FrameCount, &rec.Status, &rec.HasDetections, &rec.StartedAt, &rec.EndedAt, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan recording: %w", err)
		}
		recordings = append(recordings, rec)
	}
	return recordings, nil
}

func (r *RecordingRepo) Save(ctx context.Context, recording *entity.Recording) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO recordings (`+recordingColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		recording.ID, recording.CameraID, recording.FilePath, recording.FileSizeBytes, recording.DurationMs,
		recording.FrameCount, recording.Status, recording.HasDetections, recording.StartedAt,
		recording.EndedAt, recording.CreatedAt)
	if err != nil {
		return fmt.Errorf("save recording: %w", err)
	}
	return nil
}

func (r *RecordingRepo) Update(ctx context.Context, recording *entity.Recording) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE recordings SET file_path = $1, file_size_bytes = $2, duration_ms = $3, frame_count = $4,
		                       status = $5, has_detections = $6, ended_at = $7
		 WHERE id = $8`,
		recording.FilePath, recording.FileSizeBytes, recording.DurationMs, recording.FrameCount,
		recording.Status, recording.HasDetections, recording.EndedAt, recording.ID)
	if err != nil {
		return fmt.Errorf("update recording: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &repository.NotFoundError{Entity: "recording", ID: recording.ID.String()}
	}
	return nil
}

func (r *RecordingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM recordings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete recording: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &repository.NotFoundError{Entity: "recording", ID: id.String()}
	}
	return nil
}

func (r *RecordingRepo) TotalStorageBytes(ctx context.Context) (int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(file_size_bytes), 0) FROM recordings`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("total storage bytes: %w", err)
	}
	return total, nil
}
