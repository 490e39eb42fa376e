package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/psavelis/safelynx/internal/domain/entity"
	"github.com/psavelis/safelynx/internal/domain/repository"
	"github.com/psavelis/safelynx/internal/domain/valueobject"
)

// SightingRepo persists entity.Sighting rows.
type SightingRepo struct {
	pool *Pool
}

// NewSightingRepo wraps pool as a repository.SightingRepository.
func NewSightingRepo(pool *Pool) *SightingRepo {
	return &SightingRepo{pool: pool}
}

// boundingBoxJSON and geoLocationJSON are the on-the-wire shapes stored
// in jsonb columns; neither type appears outside this file.
type boundingBoxJSON struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type geoLocationJSON struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Altitude  *float64 `json:"altitude,omitempty"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
	Name      string   `json:"name,omitempty"`
}

func encodeBoundingBox(b valueobject.BoundingBox) ([]byte, error) {
	return json.Marshal(boundingBoxJSON{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height})
}

func decodeBoundingBox(data []byte) (valueobject.BoundingBox, error) {
	var raw boundingBoxJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return valueobject.BoundingBox{}, err
	}
	return valueobject.NewBoundingBox(raw.X, raw.Y, raw.Width, raw.Height), nil
}

func encodeLocation(loc *valueobject.GeoLocation) ([]byte, error) {
	if loc == nil {
		return nil, nil
	}
	return json.Marshal(geoLocationJSON{
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
		Altitude:  loc.Altitude,
		Accuracy:  loc.Accuracy,
		Name:      loc.Name,
	})
}

func decodeLocation(data []byte) (*valueobject.GeoLocation, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var raw geoLocationJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	loc := valueobject.NewGeoLocationWithMetadata(raw.Latitude, raw.Longitude, raw.Altitude, raw.Accuracy, raw.Name)
	return &loc, nil
}

func (r *SightingRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Sighting, error) {
	var s entity.Sighting
	var bboxRaw, locRaw []byte

	err := r.pool.QueryRow(ctx,
		`SELECT id, profile_id, camera_id, snapshot_path, bounding_box, confidence, location,
		        recording_id, recording_timestamp_ms, detected_at
		 FROM sightings WHERE id = $1`, id,
	).Scan(&s.ID, &s.ProfileID, &s.CameraID, &s.SnapshotPath, &bboxRaw, &s.Confidence, &locRaw,
		&s.RecordingID, &s.RecordingTimestampMs, &s.DetectedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &repository.NotFoundError{Entity: "sighting", ID: id.String()}
		}
		return nil, fmt.Errorf("find sighting by id: %w", err)
	}

	bbox, err := decodeBoundingBox(bboxRaw)
	if err != nil {
		return nil, fmt.Errorf("decode bounding box: %w", err)
	}
	s.BoundingBox = bbox

	loc, err := decodeLocation(locRaw)
	if err != nil {
		return nil, fmt.Errorf("decode location: %w", err)
	}
	s.Location = loc

	return &s, nil
}

func (r *SightingRepo) FindByProfile(ctx context.Context, profileID uuid.UUID, limit int64) ([]entity.Sighting, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, profile_id, camera_id, snapshot_path, bounding_box, confidence, location,
		        recording_id, recording_timestamp_ms, detected_at
		 FROM sightings WHERE profile_id = $1 ORDER BY detected_at DESC LIMIT $2`, profileID, limit)
	if err != nil {
		return nil, fmt.Errorf("find sightings by profile: %w", err)
	}
	defer rows.Close()
	return scanSightings(rows)
}

func (r *SightingRepo) FindInRange(ctx context.Context, start, end time.Time, limit int64) ([]entity.Sighting, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, profile_id, camera_id, snapshot_path, bounding_box, confidence, location,
		        recording_id, recording_timestamp_ms, detected_at
		 FROM sightings WHERE detected_at BETWEEN $1 AND $2 ORDER BY detected_at DESC LIMIT $3`,
		start, end, limit)
	if err != nil {
		return nil, fmt.Errorf("find sightings in range: %w", err)
	}
	defer rows.Close()
	return scanSightings(rows)
}

func scanSightings(rows pgx.Rows) ([]entity.Sighting, error) {
	var sightings []entity.Sighting
	for rows.Next() {
		var s entity.Sighting
		var bboxRaw, locRaw []byte
		if err := rows.Scan(&s.ID, &s.ProfileID, &s.CameraID, &s.SnapshotPath, &bboxRaw, &s.Confidence, &locRaw,
			&s.RecordingID, &s.RecordingTimestampMs, &s.DetectedAt); err != nil {
			return nil, fmt.Errorf("scan sighting: %w", err)
		}
		bbox, err := decodeBoundingBox(bboxRaw)
		if err != nil {
			return nil, fmt.Errorf("decode bounding box: %w", err)
		}
		s.BoundingBox = bbox

		loc, err := decodeLocation(locRaw)
		if err != nil {
			return nil, fmt.Errorf("decode location: %w", err)
		}
		s.Location = loc

		sightings = append(sightings, s)
	}
	return sightings, nil
}

func (r *SightingRepo) Save(ctx context.Context, sighting *entity.Sighting) error {
	bboxRaw, err := encodeBoundingBox(sighting.BoundingBox)
	if err != nil {
		return fmt.Errorf("encode bounding box: %w", err)
	}
	locRaw, err := encodeLocation(sighting.Location)
	if err != nil {
		return fmt.Errorf("encode location: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO sightings (id, profile_id, camera_id, snapshot_path, bounding_box, confidence,
		                        location, recording_id, recording_timestamp_ms, detected_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		sighting.ID, sighting.ProfileID, sighting.CameraID, sighting.SnapshotPath, bboxRaw,
		sighting.Confidence, locRaw, sighting.RecordingID, sighting.RecordingTimestampMs, sighting.DetectedAt)
	if err != nil {
		return fmt.Errorf("save sighting: %w", err)
	}
	return nil
}

// LocationHeatmap buckets sightings by their rounded coordinates — wide
// enough to group nearby detections, tight enough to keep the heatmap
// meaningful at street scale.
func (r *SightingRepo) LocationHeatmap(ctx context.Context) ([]repository.LocationCount, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT
		    round((location->>'latitude')::numeric, 4) AS lat,
		    round((location->>'longitude')::numeric, 4) AS lng,
		    COUNT(*) AS cnt
		 FROM sightings
		 WHERE location IS NOT NULL
		 GROUP BY lat, lng`)
	if err != nil {
		return nil, fmt.Errorf("location heatmap: %w", err)
	}
	defer rows.Close()

	var buckets []repository.LocationCount
	for rows.Next() {
		var b repository.LocationCount
		if err := rows.Scan(&b.Latitude, &b.Longitude, &b.Count); err != nil {
			return nil, fmt.Errorf("scan heatmap bucket: %w", err)
		}
		buckets = append(buckets, b)
	}
	return buckets, nil
}

func (r *SightingRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sightings`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count sightings: %w", err)
	}
	return count, nil
}

func (r *SightingRepo) CountByProfile(ctx context.Context, profileID uuid.UUID) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sightings WHERE profile_id = $1`, profileID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count sightings by profile: %w", err)
	}
	return count, nil
}
