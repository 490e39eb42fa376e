package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/psavelis/safelynx/internal/domain/entity"
)

// settingsRowID is the fixed primary key of the single settings row —
// there is exactly one active configuration per instance.
const settingsRowID = 1

// SettingsRepo persists the single entity.Settings record as jsonb, since
// its nested shape has no natural relational decomposition.
type SettingsRepo struct {
	pool *Pool
}

// NewSettingsRepo wraps pool as a repository.SettingsRepository.
func NewSettingsRepo(pool *Pool) *SettingsRepo {
	return &SettingsRepo{pool: pool}
}

func (r *SettingsRepo) Get(ctx context.Context) (entity.Settings, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, `SELECT data FROM settings WHERE id = $1`, settingsRowID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.NewSettings(), nil
		}
		return entity.Settings{}, fmt.Errorf("get settings: %w", err)
	}

	var settings entity.Settings
	if err := json.Unmarshal(raw, &settings); err != nil {
		return entity.Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return settings, nil
}

func (r *SettingsRepo) Save(ctx context.Context, settings entity.Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO settings (id, data) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data`,
		settingsRowID, raw)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
