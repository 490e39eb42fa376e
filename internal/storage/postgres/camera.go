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

// CameraRepo persists entity.Camera rows.
type CameraRepo struct {
	pool *Pool
}

// NewCameraRepo wraps pool as a repository.CameraRepository.
func NewCameraRepo(pool *Pool) *CameraRepo {
	return &CameraRepo{pool: pool}
}

func (r *CameraRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Camera, error) {
	var c entity.Camera
	var locRaw []byte

	err := r.pool.QueryRow(ctx,
		`SELECT id, name, camera_type, device_id, rtsp_url, location, status,
		        resolution_width, resolution_height, fps, is_enabled, last_frame_at,
		        created_at, updated_at
		 FROM cameras WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Type, &c.DeviceID, &c.RTSPURL, &locRaw, &c.Status,
		&c.ResolutionWidth, &c.ResolutionHeight, &c.FPS, &c.IsEnabled, &c.LastFrameAt,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &repository.NotFoundError{Entity: "camera", ID: id.String()}
		}
		return nil, fmt.Errorf("find camera by id: %w", err)
	}

	loc, err := decodeLocation(locRaw)
	if err != nil {
		return nil, fmt.Errorf("decode camera location: %w", err)
	}
	c.Location = loc

	return &c, nil
}

func (r *CameraRepo) FindAll(ctx context.Context) ([]entity.Camera, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, camera_type, device_id, rtsp_url, location, status,
		        resolution_width, resolution_height, fps, is_enabled, last_frame_at,
		        created_at, updated_at
		 FROM cameras ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("find all cameras: %w", err)
	}
	defer rows.Close()
	return scanCameras(rows)
}

func (r *CameraRepo) FindEnabled(ctx context.Context) ([]entity.Camera, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, camera_type, device_id, rtsp_url, location, status,
		        resolution_width, resolution_height, fps, is_enabled, last_frame_at,
		        created_at, updated_at
		 FROM cameras WHERE is_enabled = true ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("find enabled cameras: %w", err)
	}
	defer rows.Close()
	return scanCameras(rows)
}

func scanCameras(rows pgx.Rows) ([]entity.Camera, error) {
	var cameras []entity.Camera
	for rows.Next() {
		var c entity.Camera
		var locRaw []byte
		if err := rows.Scan(&c.ID, &c.Name, &c.Type, &c.DeviceID, &c.RTSPURL, &locRaw, &c.Status,
			&c.ResolutionWidth, &c.ResolutionHeight, &c.FPS, &c.IsEnabled, &c.LastFrameAt,
			&c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan camera: %w", err)
		}
		loc, err := decodeLocation(locRaw)
		if err != nil {
			return nil, fmt.Errorf("decode camera location: %w", err)
		}
		c.Location = loc
		cameras = append(cameras, c)
	}
	return cameras, nil
}

func (r *CameraRepo) Save(ctx context.Context, camera *entity.Camera) error {
	locRaw, err := encodeLocation(camera.Location)
	if err != nil {
		return fmt.Errorf("encode camera location: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO cameras (id, name, camera_type, device_id, rtsp_url, location, status,
		                      resolution_width, resolution_height, fps, is_enabled, last_frame_at,
		                      created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		camera.ID, camera.Name, camera.Type, camera.DeviceID, camera.RTSPURL, locRaw, camera.Status,
		camera.ResolutionWidth, camera.ResolutionHeight, camera.FPS, camera.IsEnabled, camera.LastFrameAt,
		camera.CreatedAt, camera.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save camera: %w", err)
	}
	return nil
}

func (r *CameraRepo) Update(ctx context.Context, camera *entity.Camera) error {
	locRaw, err := encodeLocation(camera.Location)
	if err != nil {
		return fmt.Errorf("encode camera location: %w", err)
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE cameras SET name = $1, camera_type = $2, device_id = $3, rtsp_url = $4, location = $5,
		                   status = $6, resolution_width = $7, resolution_height = $8, fps = $9,
		                   is_enabled = $10, last_frame_at = $11, updated_at = $12
		 WHERE id = $13`,
		camera.Name, camera.Type, camera.DeviceID, camera.RTSPURL, locRaw, camera.Status,
		camera.ResolutionWidth, camera.ResolutionHeight, camera.FPS, camera.IsEnabled,
		camera.LastFrameAt, camera.UpdatedAt, camera.ID)
	if err != nil {
		return fmt.Errorf("update camera: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &repository.NotFoundError{Entity: "camera", ID: camera.ID.String()}
	}
	return nil
}

func (r *CameraRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cameras WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete camera: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &repository.NotFoundError{Entity: "camera", ID: id.String()}
	}
	return nil
}
