package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestSchema_Decode(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		fields  []string
		message string
	}{
		{
			name: "valid",
			body: `{"profileEmail":"a@x.com","profilePassword":"longenough1"}`,
		},
		{
			name:    "malformed json",
			body:    `{"profileEmail":`,
			message: MessageInvalidBody,
		},
		{
			name:    "bad email",
			body:    `{"profileEmail":"nope","profilePassword":"longenough1"}`,
			fields:  []string{"profileEmail"},
			message: "Please provide a valid email address.",
		},
		{
			name:    "password too long",
			body:    `{"profileEmail":"a@x.com","profilePassword":"` + strings.Repeat("p", 33) + `"}`,
			fields:  []string{"profilePassword"},
			message: "Password must be between 8 and 32 characters.",
		},
		{
			name:   "missing fields",
			body:   `{}`,
			fields: []string{"profileEmail", "profilePassword"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var req SignInRequest
			verr := signInSchema.decodeBytes([]byte(tc.body), &req)
			if tc.message == "" && tc.fields == nil {
				require.Nil(t, verr)
				assert.Equal(t, "a@x.com", req.Email)
				return
			}
			require.NotNil(t, verr)
			if tc.message != "" {
				assert.Equal(t, tc.message, verr.Message)
			}
			for _, field := range tc.fields {
				assert.Contains(t, verr.Fields, field)
			}
		})
	}
}

func TestRequestSchema_NullableProfileFields(t *testing.T) {
	var req ProfileUpdateRequest
	verr := profileUpdateSchema.decodeBytes([]byte(`{"profileUsername":"alice","profileLocation":null}`), &req)
	require.Nil(t, verr)
	assert.Equal(t, "alice", req.Username)
	assert.Nil(t, req.Location)
	assert.Nil(t, req.ResumeURL)
}

func TestRequestSchema_UnknownPropertyMessage(t *testing.T) {
	assert.Equal(t, "Invalid value for other.", signInSchema.message("other"))
}

func TestWriteValidationError(t *testing.T) {
	rec := httptest.NewRecorder()
	writeValidationError(rec, &ValidationError{
		Message: "bad",
		Fields:  map[string]string{"profileEmail": "bad"},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body struct {
		Status  int               `json:"status"`
		Message string            `json:"message"`
		Data    map[string]string `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, http.StatusBadRequest, body.Status)
	assert.Equal(t, "bad", body.Message)
	assert.Equal(t, "bad", body.Data["profileEmail"])
}

func TestPresentedToken(t *testing.T) {
	cases := map[string]string{
		"":               "",
		"abc.def.ghi":    "abc.def.ghi",
		"Bearer abc":     "abc",
		"bearer  abc ":   "abc",
		"Bearer":         "Bearer",
		"  abc.def.ghi ": "abc.def.ghi",
	}
	for header, want := range cases {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		assert.Equal(t, want, presentedToken(r), "header %q", header)
	}
}

func TestClientRateLimiter(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		l := NewClientRateLimiter(0, 5, nil)
		assert.Nil(t, l)

		next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
		rec := httptest.NewRecorder()
		l.Middleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("per client buckets", func(t *testing.T) {
		now := time.Unix(1_700_000_000, 0)
		l := NewClientRateLimiter(60, 2, nil)
		l.now = func() time.Time { return now }

		assert.True(t, l.Allow("10.0.0.1"))
		assert.True(t, l.Allow("10.0.0.1"))
		assert.False(t, l.Allow("10.0.0.1"))
		assert.True(t, l.Allow("10.0.0.2"))

		now = now.Add(time.Second)
		assert.True(t, l.Allow("10.0.0.1"))
	})

	t.Run("idle clients swept", func(t *testing.T) {
		now := time.Unix(1_700_000_000, 0)
		l := NewClientRateLimiter(1, 1, nil)
		l.now = func() time.Time { return now }

		l.Allow("10.0.0.1")
		now = now.Add(2 * limiterIdleTTL)
		l.Allow("10.0.0.2")

		assert.NotContains(t, l.clients, "10.0.0.1")
		assert.Contains(t, l.clients, "10.0.0.2")
	})

	t.Run("middleware rejects with 429", func(t *testing.T) {
		l := NewClientRateLimiter(1, 1, nil)
		h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }))

		codes := make([]int, 0, 2)
		for range 2 {
			rec := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/sign-in", nil)
			r.RemoteAddr = "192.0.2.1:5555"
			h.ServeHTTP(rec, r)
			codes = append(codes, rec.Code)
		}
		assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
	})
}

func TestHealthz(t *testing.T) {
	cases := []struct {
		name  string
		check func(context.Context) error
		want  int
	}{
		{"no check", nil, http.StatusOK},
		{"healthy", func(context.Context) error { return nil }, http.StatusOK},
		{"unhealthy", func(context.Context) error { return errors.New("db down") }, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Healthz(tc.check)(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}
