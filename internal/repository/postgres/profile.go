package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dtroode/qubras-auth/internal/model"
)

var _ model.ProfileRepository = (*ProfileRepository)(nil)

type ProfileRepository struct {
	db *Connection
}

func NewProfileRepository(db *Connection) *ProfileRepository {
	return &ProfileRepository{
		db: db,
	}
}

const profileColumns = `id, name, company, avatar_url, industry, website, bio, created_at, updated_at`

func (r *ProfileRepository) Get(ctx context.Context, id uuid.UUID) (model.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`

	profile, err := scanProfile(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Profile{}, model.ErrNotFound
		}
		return model.Profile{}, classify(err, "failed to get profile by id")
	}

	return profile, nil
}

// Insert creates the row. A concurrent insert for the same id yields
// model.ErrProfileExists.
func (r *ProfileRepository) Insert(ctx context.Context, profile model.Profile) (model.Profile, error) {
	query := `INSERT INTO profiles (id, name, company, avatar_url, industry, website, bio, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
			  RETURNING ` + profileColumns

	saved, err := scanProfile(r.db.QueryRow(ctx, query,
		profile.ID, profile.Name, profile.Company, profile.AvatarURL,
		profile.Industry, profile.Website, profile.Bio,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return model.Profile{}, model.ErrProfileExists
		}
		return model.Profile{}, classify(err, "failed to insert profile")
	}

	return saved, nil
}

// Update patches only the non-nil fields of patch.
func (r *ProfileRepository) Update(ctx context.Context, id uuid.UUID, patch model.ProfilePatch) (model.Profile, error) {
	query := `UPDATE profiles SET
				name       = COALESCE($2, name),
				company    = COALESCE($3, company),
				avatar_url = COALESCE($4, avatar_url),
				industry   = COALESCE($5, industry),
				website    = COALESCE($6, website),
				bio        = COALESCE($7, bio),
				updated_at = NOW()
			  WHERE id = $1
			  RETURNING ` + profileColumns

	saved, err := scanProfile(r.db.QueryRow(ctx, query,
		id, patch.Name, patch.Company, patch.AvatarURL,
		patch.Industry, patch.Website, patch.Bio,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Profile{}, model.ErrNotFound
		}
		return model.Profile{}, classify(err, fmt.Sprintf("failed to update profile %s", id))
	}

	return saved, nil
}

func scanProfile(row pgx.Row) (model.Profile, error) {
	var p model.Profile
	err := row.Scan(
		&p.ID, &p.Name, &p.Company, &p.AvatarURL, &p.Industry, &p.Website, &p.Bio,
		&p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}
