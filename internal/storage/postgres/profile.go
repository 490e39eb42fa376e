package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/google/uuid"

	"github.com/psavelis/safelynx/internal/domain/entity"
	"github.com/psavelis/safelynx/internal/domain/repository"
	"github.com/psavelis/safelynx/internal/domain/valueobject"
)

// ProfileRepo persists entity.Profile rows, matching by embedding through
// pgvector's L2 (euclidean) operator.
type ProfileRepo struct {
	pool *Pool
}

// NewProfileRepo wraps pool as a repository.ProfileRepository.
func NewProfileRepo(pool *Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

func (r *ProfileRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Profile, error) {
	var p entity.Profile
	var vec pgvector.Vector
	var tags []string

	err := r.pool.QueryRow(ctx,
		`SELECT id, name, classification, embedding, thumbnail_path, tags, notes,
		        first_seen_at, last_seen_at, sighting_count, is_active, created_at, updated_at
		 FROM profiles WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Classification, &vec, &p.ThumbnailPath, &tags, &p.Notes,
		&p.FirstSeenAt, &p.LastSeenAt, &p.SightingCount, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &repository.NotFoundError{Entity: "profile", ID: id.String()}
		}
		return nil, fmt.Errorf("find profile by id: %w", err)
	}

	embedding, err := valueobject.NewFaceEmbedding(vec.Slice())
	if err != nil {
		return nil, fmt.Errorf("decode profile embedding: %w", err)
	}
	p.Embedding = embedding
	p.Tags = tagsFromStrings(tags)

	return &p, nil
}

func (r *ProfileRepo) FindAllActive(ctx context.Context) ([]entity.Profile, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, classification, embedding, thumbnail_path, tags, notes,
		        first_seen_at, last_seen_at, sighting_count, is_active, created_at, updated_at
		 FROM profiles WHERE is_active = true`)
	if err != nil {
		return nil, fmt.Errorf("find active profiles: %w", err)
	}
	defer rows.Close()

	var profiles []entity.Profile
	for rows.Next() {
		var p entity.Profile
		var vec pgvector.Vector
		var tags []string
		if err := rows.Scan(&p.ID, &p.Name, &p.Classification, &vec, &p.ThumbnailPath, &tags, &p.Notes,
			&p.FirstSeenAt, &p.LastSeenAt, &p.SightingCount, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		embedding, err := valueobject.NewFaceEmbedding(vec.Slice())
		if err != nil {
			return nil, fmt.Errorf("decode profile embedding: %w", err)
		}
		p.Embedding = embedding
		p.Tags = tagsFromStrings(tags)
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// FindByEmbedding returns every active profile within threshold distance
// of embedding, nearest first, using pgvector's <-> (L2) operator — the
// operator that agrees with valueobject.FaceEmbedding.Distance, which is
// explicitly euclidean.
func (r *ProfileRepo) FindByEmbedding(ctx context.Context, embedding valueobject.FaceEmbedding, threshold float32) ([]repository.ProfileMatch, error) {
	vec := pgvector.NewVector(embedding.Values())

	rows, err := r.pool.Query(ctx,
		`SELECT id, name, classification, embedding, thumbnail_path, tags, notes,
		        first_seen_at, last_seen_at, sighting_count, is_active, created_at, updated_at,
		        embedding <-> $1 AS distance
		 FROM profiles
		 WHERE is_active = true AND embedding <-> $1 < $2
		 ORDER BY distance ASC`, vec, threshold)
	if err != nil {
		return nil, fmt.Errorf("find profiles by embedding: %w", err)
	}
	defer rows.Close()

	var matches []repository.ProfileMatch
	for rows.Next() {
		var p entity.Profile
		var pvec pgvector.Vector
		var tags []string
		var distance float32
		if err := rows.Scan(&p.ID, &p.Name, &p.Classification, &pvec, &p.ThumbnailPath, &tags, &p.Notes,
			&p.FirstSeenAt, &p.LastSeenAt, &p.SightingCount, &p.IsActive, &p.CreatedAt, &p.UpdatedAt, &distance); err != nil {
			return nil, fmt.Errorf("scan profile match: %w", err)
		}
		pe, err := valueobject.NewFaceEmbedding(pvec.Slice())
		if err != nil {
			return nil, fmt.Errorf("decode profile embedding: %w", err)
		}
		p.Embedding = pe
		p.Tags = tagsFromStrings(tags)
		matches = append(matches, repository.ProfileMatch{Profile: p, Distance: distance})
	}
	return matches, nil
}

func (r *ProfileRepo) Save(ctx context.Context, profile *entity.Profile) error {
	vec := pgvector.NewVector(profile.Embedding.Values())
	_, err := r.pool.Exec(ctx,
		`INSERT INTO profiles (id, name, classification, embedding, thumbnail_path, tags, notes,
		                       first_seen_at, last_seen_at, sighting_count, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		profile.ID, profile.Name, profile.Classification, vec, profile.ThumbnailPath,
		tagsToStrings(profile.Tags), profile.Notes, profile.FirstSeenAt, profile.LastSeenAt,
		profile.SightingCount, profile.IsActive, profile.CreatedAt, profile.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (r *ProfileRepo) Update(ctx context.Context, profile *entity.Profile) error {
	vec := pgvector.NewVector(profile.Embedding.Values())
	tag, err := r.pool.Exec(ctx,
		`UPDATE profiles SET name = $1, classification = $2, embedding = $3, thumbnail_path = $4,
		                     tags = $5, notes = $6, last_seen_at = $7, sighting_count = $8,
		                     is_active = $9, updated_at = $10
		 WHERE id = $11`,
		profile.Name, profile.Classification, vec, profile.ThumbnailPath, tagsToStrings(profile.Tags),
		profile.Notes, profile.LastSeenAt, profile.SightingCount, profile.IsActive, profile.UpdatedAt,
		profile.ID)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &repository.NotFoundError{Entity: "profile", ID: profile.ID.String()}
	}
	return nil
}

func (r *ProfileRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &repository.NotFoundError{Entity: "profile", ID: id.String()}
	}
	return nil
}

func (r *ProfileRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count profiles: %w", err)
	}
	return count, nil
}

func tagsToStrings(tags []valueobject.ProfileTag) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = t.Value()
	}
	return out
}

func tagsFromStrings(tags []string) []valueobject.ProfileTag {
	out := make([]valueobject.ProfileTag, len(tags))
	for i, t := range tags {
		out[i] = valueobject.NewProfileTag(t)
	}
	return out
}
