package server

import (
	"context"
	"io"
	"sync"

	"github.com/jobtracker/apiserver/internal/store"
	"github.com/jobtracker/apiserver/types"
)

// memoryProfiles mirrors the profile table's constraints in memory.
type memoryProfiles struct {
	mu   sync.Mutex
	byID map[string]types.Profile
}

func newMemoryProfiles() *memoryProfiles {
	return &memoryProfiles{byID: map[string]types.Profile{}}
}

func (m *memoryProfiles) FindByEmail(_ context.Context, email string) (types.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.byID {
		if p.Email == email {
			return p, nil
		}
	}
	return types.Profile{}, store.ErrNotFound
}

func (m *memoryProfiles) FindByActivationToken(_ context.Context, token string) (types.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.byID {
		if p.ActivationToken != nil && *p.ActivationToken == token {
			return p, nil
		}
	}
	return types.Profile{}, store.ErrNotFound
}

func (m *memoryProfiles) FindByID(_ context.Context, id string) (types.PublicProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return types.PublicProfile{}, store.ErrNotFound
	}
	return p.Public(), nil
}

func (m *memoryProfiles) Create(_ context.Context, profile types.Profile) (types.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.byID {
		if p.Email == profile.Email {
			return types.Profile{}, store.ErrDuplicateEmail
		}
	}
	m.byID[profile.ID] = profile
	return profile, nil
}

func (m *memoryProfiles) Update(_ context.Context, profile types.Profile) (types.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[profile.ID]; !ok {
		return types.Profile{}, store.ErrNotFound
	}
	m.byID[profile.ID] = profile
	return profile, nil
}

func (m *memoryProfiles) UpdatePublic(_ context.Context, profile types.PublicProfile) (types.PublicProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.byID[profile.ID]
	if !ok {
		return types.PublicProfile{}, store.ErrNotFound
	}
	current.Location = profile.Location
	current.ResumeURL = profile.ResumeURL
	current.Username = profile.Username
	m.byID[profile.ID] = current
	return profile, nil
}

func (m *memoryProfiles) byEmail(email string) types.Profile {
	p, _ := m.FindByEmail(context.Background(), email)
	return p
}

type memoryObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemoryObjects() *memoryObjects {
	return &memoryObjects{objects: map[string][]byte{}}
}

func (m *memoryObjects) EnsureBucket(context.Context) error { return nil }

func (m *memoryObjects) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memoryObjects) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memoryObjects) ObjectURL(key string) string { return "http://objects.test/resumes/" + key }
func (m *memoryObjects) Bucket() string              { return "resumes" }

type recordingBackend struct {
	mu       sync.Mutex
	channels []string
}

func (r *recordingBackend) Publish(_ context.Context, channel string, _ []byte, _ map[string]string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels = append(r.channels, channel)
	return "id", nil
}

func (r *recordingBackend) Close() error { return nil }
