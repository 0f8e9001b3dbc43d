package auth

import (
	"context"
	"sync"
	"testing"

	"github.com/jobtracker/apiserver/internal/store"
	"github.com/jobtracker/apiserver/types"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const testPassword = "longenough1"

var (
	testHashOnce sync.Once
	testHash     string
)

// hashedTestPassword hashes testPassword once per test binary.
func hashedTestPassword(t *testing.T) string {
	t.Helper()
	testHashOnce.Do(func() {
		h, err := NewArgon2idHasher().Hash(testPassword)
		if err != nil {
			panic(err)
		}
		testHash = h
	})
	return testHash
}

type fakeProfiles struct {
	byEmail map[string]types.Profile
	err     error
}

func (f *fakeProfiles) FindByEmail(_ context.Context, email string) (types.Profile, error) {
	if f.err != nil {
		return types.Profile{}, f.err
	}
	p, ok := f.byEmail[email]
	if !ok {
		return types.Profile{}, store.ErrNotFound
	}
	return p, nil
}

func activeProfile(t *testing.T) types.Profile {
	t.Helper()
	return types.Profile{
		ID:           "0190c0de-0000-7000-8000-000000000001",
		Email:        "a@x.com",
		Username:     "alice",
		PasswordHash: hashedTestPassword(t),
	}
}
