package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/jobtracker/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVerifier(t *testing.T, profiles ...types.Profile) *Verifier {
	t.Helper()
	byEmail := make(map[string]types.Profile, len(profiles))
	for _, p := range profiles {
		byEmail[p.Email] = p
	}
	return NewVerifier(&fakeProfiles{byEmail: byEmail}, NewArgon2idHasher())
}

func TestVerifier_Success(t *testing.T) {
	profile := activeProfile(t)
	v := newVerifier(t, profile)

	got, err := v.Verify(context.Background(), "a@x.com", testPassword)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, got.ID)
}

func TestVerifier_UnknownEmailAndWrongPasswordAreIndistinguishable(t *testing.T) {
	v := newVerifier(t, activeProfile(t))
	ctx := context.Background()

	_, unknownErr := v.Verify(ctx, "nobody@x.com", testPassword)
	_, wrongErr := v.Verify(ctx, "a@x.com", "wrongpassword")

	require.ErrorIs(t, unknownErr, ErrInvalidCredentials)
	require.ErrorIs(t, wrongErr, ErrInvalidCredentials)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
}

func TestVerifier_NotActivated(t *testing.T) {
	profile := activeProfile(t)
	token := "0123456789abcdef0123456789abcdef"
	profile.ActivationToken = &token
	v := newVerifier(t, profile)

	t.Run("correct password reports not activated", func(t *testing.T) {
		_, err := v.Verify(context.Background(), "a@x.com", testPassword)
		assert.ErrorIs(t, err, ErrNotActivated)
	})

	t.Run("wrong password stays generic", func(t *testing.T) {
		_, err := v.Verify(context.Background(), "a@x.com", "wrongpassword")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestVerifier_StoreFailureIsNotAuthFailure(t *testing.T) {
	v := NewVerifier(&fakeProfiles{err: errors.New("db down")}, NewArgon2idHasher())

	_, err := v.Verify(context.Background(), "a@x.com", testPassword)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
	assert.Contains(t, err.Error(), "db down")
}

func TestVerifier_CorruptStoredHash(t *testing.T) {
	profile := activeProfile(t)
	profile.PasswordHash = "garbage"
	v := newVerifier(t, profile)

	_, err := v.Verify(context.Background(), "a@x.com", testPassword)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}
