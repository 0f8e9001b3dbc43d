package storage

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/jobtracker/apiserver/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryBackend struct {
	objects map[string][]byte
	types   map[string]string
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memoryBackend) EnsureBucket(context.Context) error { return nil }

func (m *memoryBackend) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *memoryBackend) Delete(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func (m *memoryBackend) ObjectURL(key string) string { return "mem://resumes/" + key }
func (m *memoryBackend) Bucket() string              { return "resumes" }

func TestStorage_PutAndDelete(t *testing.T) {
	backend := newMemoryBackend()
	s := NewStorage(backend, "")
	ctx := context.Background()

	require.NoError(t, s.EnsureBucket(ctx))
	require.NoError(t, s.Put(ctx, "profiles/p/resume.pdf", bytes.NewReader([]byte("%PDF-1.4")), 8, "application/pdf"))
	assert.Equal(t, []byte("%PDF-1.4"), backend.objects["profiles/p/resume.pdf"])
	assert.Equal(t, "application/pdf", backend.types["profiles/p/resume.pdf"])
	assert.Equal(t, "resumes", s.Bucket())

	require.NoError(t, s.Delete(ctx, "profiles/p/resume.pdf"))
	assert.Empty(t, backend.objects)
}

func TestStorage_URL(t *testing.T) {
	t.Run("backend address", func(t *testing.T) {
		s := NewStorage(newMemoryBackend(), "")
		assert.Equal(t, "mem://resumes/a.pdf", s.URL("a.pdf"))
	})

	t.Run("public base overrides", func(t *testing.T) {
		s := NewStorage(newMemoryBackend(), "https://cdn.example.com/resumes/")
		assert.Equal(t, "https://cdn.example.com/resumes/a.pdf", s.URL("a.pdf"))
	})
}

func TestStorage_KeyFromURL(t *testing.T) {
	s := NewStorage(newMemoryBackend(), "https://cdn.example.com")

	key, ok := s.KeyFromURL("https://cdn.example.com/profiles/p/r.pdf")
	assert.True(t, ok)
	assert.Equal(t, "profiles/p/r.pdf", key)

	_, ok = s.KeyFromURL("https://elsewhere.example.com/r.pdf")
	assert.False(t, ok)

	_, ok = s.KeyFromURL("")
	assert.False(t, ok)

	_, ok = s.KeyFromURL("https://cdn.example.com/")
	assert.False(t, ok)
}

func TestNewBackend(t *testing.T) {
	ctx := context.Background()

	backend, err := NewBackend(ctx, config.Config{StorageBackend: "none"})
	require.NoError(t, err)
	assert.Nil(t, backend)

	_, err = NewBackend(ctx, config.Config{StorageBackend: "ftp"})
	assert.Error(t, err)

	_, err = NewBackend(ctx, config.Config{StorageBackend: "minio"})
	assert.Error(t, err)

	_, err = NewBackend(ctx, config.Config{StorageBackend: "gcs"})
	assert.Error(t, err)

	_, err = NewBackend(ctx, config.Config{StorageBackend: "s3"})
	assert.Error(t, err)
}

func TestMinioClient_ObjectURL(t *testing.T) {
	client, err := NewMinioClient(config.MinioConfig{
		Endpoint:  "localhost:9000",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Bucket:    "resumes",
	})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/resumes/a.pdf", client.ObjectURL("a.pdf"))
	assert.Equal(t, "resumes", client.Bucket())
}

func TestS3Client_ObjectURL(t *testing.T) {
	ctx := context.Background()

	t.Run("aws", func(t *testing.T) {
		client, err := NewS3Client(ctx, config.S3Config{
			Region:    "eu-west-1",
			Bucket:    "resumes",
			AccessKey: "key",
			SecretKey: "secret",
		})
		require.NoError(t, err)
		assert.Equal(t, "https://resumes.s3.eu-west-1.amazonaws.com/a.pdf", client.ObjectURL("a.pdf"))
	})

	t.Run("compatible endpoint", func(t *testing.T) {
		client, err := NewS3Client(ctx, config.S3Config{
			Region:       "us-east-1",
			Bucket:       "resumes",
			AccessKey:    "key",
			SecretKey:    "secret",
			BaseEndpoint: "http://localhost:9000/",
		})
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:9000/resumes/a.pdf", client.ObjectURL("a.pdf"))
	})
}
