package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jobtracker/apiserver/types"
)

const profileColumns = `profile_id, profile_activation_token, profile_created_at, profile_email,
		profile_location, profile_password_hash, profile_resume_url, profile_username`

// ProfileRepository handles persistence for profiles.
type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) FindByEmail(ctx context.Context, email string) (types.Profile, error) {
	const query = `
		SELECT ` + profileColumns + `
		FROM profile
		WHERE profile_email = $1`
	return r.findOne(ctx, query, email)
}

func (r *ProfileRepository) FindByActivationToken(ctx context.Context, token string) (types.Profile, error) {
	const query = `
		SELECT ` + profileColumns + `
		FROM profile
		WHERE profile_activation_token = $1`
	return r.findOne(ctx, query, token)
}

// FindByID returns the public projection; the hash and activation token
// are not selected.
func (r *ProfileRepository) FindByID(ctx context.Context, id string) (types.PublicProfile, error) {
	const query = `
		SELECT profile_id, profile_created_at, profile_email, profile_location, profile_resume_url, profile_username
		FROM profile
		WHERE profile_id = $1`
	var profile types.PublicProfile
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&profile.ID,
		&profile.CreatedAt,
		&profile.Email,
		&profile.Location,
		&profile.ResumeURL,
		&profile.Username,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.PublicProfile{}, ErrNotFound
		}
		return types.PublicProfile{}, fmt.Errorf("db error: %w", err)
	}
	return profile, nil
}

func (r *ProfileRepository) Create(ctx context.Context, profile types.Profile) (types.Profile, error) {
	const query = `
		INSERT INTO profile (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(
		ctx,
		query,
		profile.ID,
		profile.ActivationToken,
		profile.CreatedAt,
		profile.Email,
		profile.Location,
		profile.PasswordHash,
		profile.ResumeURL,
		profile.Username,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return types.Profile{}, ErrDuplicateEmail
		}
		return types.Profile{}, fmt.Errorf("db error: %w", err)
	}
	return profile, nil
}

// Update writes every column of the record, including the activation token.
func (r *ProfileRepository) Update(ctx context.Context, profile types.Profile) (types.Profile, error) {
	const query = `
		UPDATE profile
		SET profile_activation_token = $1,
			profile_email = $2,
			profile_location = $3,
			profile_password_hash = $4,
			profile_resume_url = $5,
			profile_username = $6
		WHERE profile_id = $7`
	result, err := r.db.ExecContext(
		ctx,
		query,
		profile.ActivationToken,
		profile.Email,
		profile.Location,
		profile.PasswordHash,
		profile.ResumeURL,
		profile.Username,
		profile.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return types.Profile{}, ErrDuplicateEmail
		}
		return types.Profile{}, fmt.Errorf("db error: %w", err)
	}
	if err := expectAffected(result); err != nil {
		return types.Profile{}, err
	}
	return profile, nil
}

// UpdatePublic writes the user-editable public fields.
func (r *ProfileRepository) UpdatePublic(ctx context.Context, profile types.PublicProfile) (types.PublicProfile, error) {
	const query = `
		UPDATE profile
		SET profile_location = $1,
			profile_resume_url = $2,
			profile_username = $3
		WHERE profile_id = $4`
	result, err := r.db.ExecContext(
		ctx,
		query,
		profile.Location,
		profile.ResumeURL,
		profile.Username,
		profile.ID,
	)
	if err != nil {
		return types.PublicProfile{}, fmt.Errorf("db error: %w", err)
	}
	if err := expectAffected(result); err != nil {
		return types.PublicProfile{}, err
	}
	return profile, nil
}

func (r *ProfileRepository) findOne(ctx context.Context, query string, arg any) (types.Profile, error) {
	var profile types.Profile
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&profile.ID,
		&profile.ActivationToken,
		&profile.CreatedAt,
		&profile.Email,
		&profile.Location,
		&profile.PasswordHash,
		&profile.ResumeURL,
		&profile.Username,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Profile{}, ErrNotFound
		}
		return types.Profile{}, fmt.Errorf("db error: %w", err)
	}
	return profile, nil
}

func expectAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
