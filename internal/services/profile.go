package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jobtracker/apiserver/internal/auth"
	"github.com/jobtracker/apiserver/internal/logging"
	"github.com/jobtracker/apiserver/internal/store"
	"github.com/jobtracker/apiserver/types"
	"github.com/samber/oops"
)

// ActivationTokenLen is the length of the token mailed at sign-up.
const ActivationTokenLen = 32

const resumeContentType = "application/pdf"

// ProfileRepository defines persistence operations for profiles.
type ProfileRepository interface {
	FindByActivationToken(ctx context.Context, token string) (types.Profile, error)
	FindByID(ctx context.Context, id string) (types.PublicProfile, error)
	Create(ctx context.Context, profile types.Profile) (types.Profile, error)
	Update(ctx context.Context, profile types.Profile) (types.Profile, error)
	UpdatePublic(ctx context.Context, profile types.PublicProfile) (types.PublicProfile, error)
}

// EventPublisher announces profile lifecycle events.
type EventPublisher interface {
	ProfileSignedUp(ctx context.Context, event types.ProfileSignedUp) error
}

// ResumeStorage keeps uploaded resumes and maps keys to public URLs.
type ResumeStorage interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
	KeyFromURL(url string) (string, bool)
}

// TokenReissuer re-signs a session token after the profile changed.
type TokenReissuer interface {
	Reissue(current types.SessionData, updated types.PublicProfile) (auth.Grant, error)
}

type SignUpInput struct {
	Email    string
	Username string
	Password string
}

// ProfileUpdate carries the user-editable public fields. Nil pointers
// clear the column.
type ProfileUpdate struct {
	Username  string
	Location  *string
	ResumeURL *string
}

// ProfileService encapsulates profile use-cases.
type ProfileService struct {
	repo              ProfileRepository
	hasher            auth.PasswordHasher
	tokens            TokenReissuer
	events            EventPublisher
	resumes           ResumeStorage
	activationBaseURL string
	logger            *slog.Logger
	now               func() time.Time
}

type ProfileServiceDeps struct {
	Repo   ProfileRepository
	Hasher auth.PasswordHasher
	Tokens TokenReissuer
	Events EventPublisher
	// Resumes may be nil; uploads then fail with ErrResumeStorageDisabled.
	Resumes           ResumeStorage
	ActivationBaseURL string
	Logger            *slog.Logger
}

func NewProfileService(deps ProfileServiceDeps) *ProfileService {
	return &ProfileService{
		repo:              deps.Repo,
		hasher:            deps.Hasher,
		tokens:            deps.Tokens,
		events:            deps.Events,
		resumes:           deps.Resumes,
		activationBaseURL: strings.TrimRight(deps.ActivationBaseURL, "/"),
		logger:            deps.Logger,
		now:               time.Now,
	}
}

// ResumesEnabled reports whether a storage backend is wired.
func (s *ProfileService) ResumesEnabled() bool {
	return s.resumes != nil
}

// SignUp creates an unactivated profile and publishes the sign-up event.
// A duplicate email yields store.ErrDuplicateEmail.
func (s *ProfileService) SignUp(ctx context.Context, in SignUpInput) (types.PublicProfile, error) {
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return types.PublicProfile{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return types.PublicProfile{}, oops.Code("PROFILE_ID_FAILED").Wrap(err)
	}
	activationToken := newActivationToken()
	createdAt := s.now().UTC()

	profile, err := s.repo.Create(ctx, types.Profile{
		ID:              id.String(),
		ActivationToken: &activationToken,
		CreatedAt:       &createdAt,
		Email:           in.Email,
		PasswordHash:    hash,
		Username:        in.Username,
	})
	if err != nil {
		return types.PublicProfile{}, err
	}

	event := types.ProfileSignedUp{
		ProfileID:      profile.ID,
		Email:          profile.Email,
		Username:       profile.Username,
		ActivationLink: s.activationBaseURL + "/" + activationToken,
		OccurredAt:     createdAt,
	}
	// Best effort once the row exists.
	if err := s.events.ProfileSignedUp(ctx, event); err != nil {
		logging.LogError(s.logger, "sign-up event not published", err, "profile_id", profile.ID)
	}

	return profile.Public(), nil
}

// Activate clears the activation token so the profile may sign in.
func (s *ProfileService) Activate(ctx context.Context, token string) error {
	if len(token) != ActivationTokenLen {
		return ErrActivationFailed
	}

	profile, err := s.repo.FindByActivationToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrActivationFailed
		}
		return err
	}

	profile.ActivationToken = nil
	if _, err := s.repo.Update(ctx, profile); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrActivationFailed
		}
		return err
	}
	return nil
}

func (s *ProfileService) Get(ctx context.Context, id string) (types.PublicProfile, error) {
	if _, err := uuid.Parse(id); err != nil {
		return types.PublicProfile{}, ErrProfileNotFound
	}
	profile, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return types.PublicProfile{}, ErrProfileNotFound
	}
	return profile, err
}

// Update applies upd to the session's own profile and returns the grant
// carrying the reissued token. The token is reissued before anything is
// written, so an unverifiable session changes nothing.
func (s *ProfileService) Update(ctx context.Context, current types.SessionData, profileID string, upd ProfileUpdate) (auth.Grant, error) {
	profile, err := s.owned(ctx, current, profileID)
	if err != nil {
		return auth.Grant{}, err
	}

	profile.Username = upd.Username
	profile.Location = upd.Location
	profile.ResumeURL = upd.ResumeURL

	return s.persist(ctx, current, profile)
}

// UploadResume stores a PDF for the session's own profile, points the
// profile's resume URL at it and returns the reissued grant. A previous
// resume held by the same storage is removed afterwards.
func (s *ProfileService) UploadResume(ctx context.Context, current types.SessionData, profileID string, r io.Reader, size int64) (auth.Grant, error) {
	if s.resumes == nil {
		return auth.Grant{}, ErrResumeStorageDisabled
	}

	profile, err := s.owned(ctx, current, profileID)
	if err != nil {
		return auth.Grant{}, err
	}
	previous := profile.ResumeURL

	key := "profiles/" + profile.ID + "/" + uuid.NewString() + ".pdf"
	if err := s.resumes.Put(ctx, key, r, size, resumeContentType); err != nil {
		return auth.Grant{}, oops.Code("RESUME_UPLOAD_FAILED").
			With("profile_id", profile.ID).
			With("key", key).
			Wrap(err)
	}

	url := s.resumes.URL(key)
	profile.ResumeURL = &url

	grant, err := s.persist(ctx, current, profile)
	if err != nil {
		s.removeResume(ctx, key)
		return auth.Grant{}, err
	}

	if previous != nil {
		if oldKey, ok := s.resumes.KeyFromURL(*previous); ok && oldKey != key {
			s.removeResume(ctx, oldKey)
		}
	}
	return grant, nil
}

func (s *ProfileService) owned(ctx context.Context, current types.SessionData, profileID string) (types.PublicProfile, error) {
	if current.Profile == nil || current.Profile.ID != profileID {
		return types.PublicProfile{}, ErrForbidden
	}
	return s.Get(ctx, profileID)
}

func (s *ProfileService) persist(ctx context.Context, current types.SessionData, profile types.PublicProfile) (auth.Grant, error) {
	grant, err := s.tokens.Reissue(current, profile)
	if err != nil {
		return auth.Grant{}, err
	}

	if _, err := s.repo.UpdatePublic(ctx, profile); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return auth.Grant{}, ErrProfileNotFound
		}
		return auth.Grant{}, err
	}
	return grant, nil
}

func (s *ProfileService) removeResume(ctx context.Context, key string) {
	if err := s.resumes.Delete(ctx, key); err != nil {
		logging.LogError(s.logger, "resume cleanup failed", err, "key", key)
	}
}

// newActivationToken returns 32 lowercase hex characters.
func newActivationToken() string {
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "")
}
