package handlers

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jobtracker/apiserver/internal/auth"
	"github.com/jobtracker/apiserver/internal/metrics"
	"github.com/jobtracker/apiserver/internal/services"
	"github.com/jobtracker/apiserver/internal/session"
)

const (
	formFieldResume    = "resume"
	maxMultipartMemory = 1 << 20
	multipartOverhead  = 64 << 10
)

var pdfMagic = []byte("%PDF-")

// ProfileUpdateRequest is the profile update body.
type ProfileUpdateRequest struct {
	Username  string  `json:"profileUsername" jsonschema:"minLength=1,maxLength=100"`
	Location  *string `json:"profileLocation,omitempty" jsonschema:"nullable,maxLength=128"`
	ResumeURL *string `json:"profileResumeUrl,omitempty" jsonschema:"nullable,maxLength=255"`
}

var profileUpdateSchema = mustRequestSchema("https://jobtracker.local/schemas/profile-update.json", &ProfileUpdateRequest{}, map[string]string{
	"profileUsername":  "Username must be between 1 and 100 characters.",
	"profileLocation":  "Location must be at most 128 characters.",
	"profileResumeUrl": "Resume URL must be at most 255 characters.",
})

// ProfileHandler serves the gated profile routes.
type ProfileHandler struct {
	profiles       *services.ProfileService
	sessions       *session.Manager
	metrics        *metrics.Metrics
	logger         *slog.Logger
	maxResumeBytes int64
}

func NewProfileHandler(
	profiles *services.ProfileService,
	sessions *session.Manager,
	m *metrics.Metrics,
	logger *slog.Logger,
	maxResumeBytes int64,
) *ProfileHandler {
	return &ProfileHandler{
		profiles:       profiles,
		sessions:       sessions,
		metrics:        m,
		logger:         logger,
		maxResumeBytes: maxResumeBytes,
	}
}

// ProfileRouter registers profile routes behind requireAuth. The resume
// route exists only when resume storage is configured.
func ProfileRouter(r chi.Router, h *ProfileHandler, requireAuth func(http.Handler) http.Handler) {
	r.Route("/{profileId}", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", h.GetProfile)
		r.Put("/", h.UpdateProfile)
		if h.profiles.ResumesEnabled() {
			r.Put("/resume", h.UploadResume)
		}
	})
}

func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profiles.Get(r.Context(), chi.URLParam(r, "profileId"))
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			writeStatus(w, http.StatusBadRequest, MessageProfileNotFound)
			return
		}
		h.internalError(w, r, "get profile failed", err)
		return
	}
	writeData(w, profile)
}

func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req ProfileUpdateRequest
	if err := profileUpdateSchema.decode(w, r, &req); err != nil {
		writeValidationError(w, err)
		return
	}
	username, ok := trimmed(req.Username)
	if !ok {
		msg := profileUpdateSchema.message("profileUsername")
		writeValidationError(w, &ValidationError{Message: msg, Fields: map[string]string{"profileUsername": msg}})
		return
	}

	sess := session.FromContext(r.Context())
	grant, err := h.profiles.Update(r.Context(), sess.Data, chi.URLParam(r, "profileId"), services.ProfileUpdate{
		Username:  username,
		Location:  req.Location,
		ResumeURL: trimmedPtr(req.ResumeURL),
	})
	if err != nil {
		h.writeUpdateError(w, r, err)
		return
	}

	h.commit(w, r, sess, grant, MessageProfileUpdated)
}

// UploadResume accepts a multipart PDF in the "resume" field.
func (h *ProfileHandler) UploadResume(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxResumeBytes+multipartOverhead)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeStatus(w, http.StatusBadRequest, MessageInvalidResume)
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile(formFieldResume)
	if err != nil {
		writeStatus(w, http.StatusBadRequest, MessageInvalidResume)
		return
	}
	defer file.Close()

	if header.Size <= 0 || header.Size > h.maxResumeBytes {
		writeStatus(w, http.StatusBadRequest, MessageInvalidResume)
		return
	}
	head := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(file, head); err != nil || !bytes.Equal(head, pdfMagic) {
		writeStatus(w, http.StatusBadRequest, MessageInvalidResume)
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		h.internalError(w, r, "resume rewind failed", err)
		return
	}

	sess := session.FromContext(r.Context())
	grant, err := h.profiles.UploadResume(r.Context(), sess.Data, chi.URLParam(r, "profileId"), file, header.Size)
	if err != nil {
		h.writeUpdateError(w, r, err)
		return
	}

	h.commit(w, r, sess, grant, MessageResumeUploaded)
}

// commit stores the reissued grant in the session and hands the new token
// to the client.
func (h *ProfileHandler) commit(w http.ResponseWriter, r *http.Request, sess *session.Session, grant auth.Grant, message string) {
	sess.Data = grant.SessionData()
	if err := h.sessions.Save(r.Context(), w, sess); err != nil {
		h.metrics.RecordReissue(metrics.OutcomeError)
		h.internalError(w, r, "session save failed", err)
		return
	}
	h.metrics.RecordReissue(metrics.OutcomeSuccess)
	w.Header().Set("Authorization", grant.Token)
	writeStatus(w, http.StatusOK, message)
}

func (h *ProfileHandler) writeUpdateError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrForbidden):
		writeStatus(w, http.StatusBadRequest, MessageForbidden)
	case errors.Is(err, services.ErrProfileNotFound):
		writeStatus(w, http.StatusBadRequest, MessageProfileNotFound)
	case errors.Is(err, auth.ErrInvalidToken):
		h.metrics.RecordReissue(metrics.OutcomeRejected)
		writeStatus(w, http.StatusBadRequest, auth.MessageInvalidToken)
	case errors.Is(err, services.ErrResumeStorageDisabled):
		writeStatus(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
	default:
		h.internalError(w, r, "profile update failed", err)
	}
}

func (h *ProfileHandler) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	logInternal(h.logger, r, msg, err)
	writeStatus(w, http.StatusInternalServerError, MessageInternalError)
}

func trimmedPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
