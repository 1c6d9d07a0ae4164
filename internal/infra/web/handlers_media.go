package web

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"image-edit-saas/internal/domain"
	"image-edit-saas/internal/domain/model"
	"image-edit-saas/internal/infra/logging"
	"image-edit-saas/internal/usecase"
)

const maxUploadBytes = 32 << 20

type mediaJobView struct {
	ID              string    `json:"id"`
	TrackID         string    `json:"track_id"`
	Status          string    `json:"status"`
	OriginalURL     string    `json:"original_url"`
	MaskURL         string    `json:"mask_url"`
	EditedURL       string    `json:"edited_url,omitempty"`
	ProcessingError string    `json:"processing_error,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toMediaJobView(j *model.MediaJob) mediaJobView {
	return mediaJobView{
		ID:              j.ID,
		TrackID:         j.TrackID,
		Status:          string(j.Status),
		OriginalURL:     j.OriginalURL,
		MaskURL:         j.MaskURL,
		EditedURL:       j.EditedURL,
		ProcessingError: j.ProcessingError,
		CreatedAt:       j.CreatedAt,
		UpdatedAt:       j.UpdatedAt,
	}
}

// formUpload pulls one file field out of the parsed multipart form.
func formUpload(r *http.Request, field string) (usecase.Upload, multipart.File, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return usecase.Upload{}, nil, domain.ErrInvalidArgument
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return usecase.Upload{
		Filename:    header.Filename,
		ContentType: contentType,
		Data:        file,
	}, file, nil
}

func (s *Server) mediaUploads(w http.ResponseWriter, r *http.Request) (image, mask usecase.Upload, cleanup func(), ok bool) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, r, domain.ErrInvalidArgument)
		return image, mask, nil, false
	}
	image, imgFile, err := formUpload(r, "image")
	if err != nil {
		s.writeError(w, r, err)
		return image, mask, nil, false
	}
	mask, maskFile, err := formUpload(r, "mask")
	if err != nil {
		imgFile.Close()
		s.writeError(w, r, err)
		return image, mask, nil, false
	}
	cleanup = func() {
		imgFile.Close()
		maskFile.Close()
	}
	return image, mask, cleanup, true
}

func (s *Server) handleMediaEdit(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		s.writeError(w, r, domain.ErrUnauthorized)
		return
	}
	image, mask, cleanup, ok := s.mediaUploads(w, r)
	if !ok {
		return
	}
	defer cleanup()

	job, err := s.mediaUC.RemoveObject(r.Context(), user.ID, image, mask)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, toMediaJobView(job))
}

func (s *Server) handleMediaInpaint(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		s.writeError(w, r, domain.ErrUnauthorized)
		return
	}
	image, mask, cleanup, ok := s.mediaUploads(w, r)
	if !ok {
		return
	}
	defer cleanup()

	presetID := r.FormValue("preset_id")
	if presetID == "" {
		s.writeError(w, r, domain.ErrInvalidArgument)
		return
	}

	job, err := s.mediaUC.Inpaint(r.Context(), user.ID, presetID, image, mask)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, toMediaJobView(job))
}

func (s *Server) handleMediaStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		s.writeError(w, r, domain.ErrUnauthorized)
		return
	}
	job, err := s.mediaUC.Status(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toMediaJobView(job))
}

func (s *Server) handleMediaHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		s.writeError(w, r, domain.ErrUnauthorized)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	jobs, err := s.mediaUC.History(r.Context(), user.ID, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	views := make([]mediaJobView, 0, len(jobs))
	for _, j := range jobs {
		views = append(views, toMediaJobView(j))
	}
	s.writeJSON(w, http.StatusOK, views)
}

// mediaWebhookPayload is the completion callback. The result URL arrives in
// output_url and a failure in error; the editing API's raw shapes (a status
// word plus a single output URL or an array of them) are accepted as well.
type mediaWebhookPayload struct {
	TrackID   string          `json:"track_id"`
	OutputURL string          `json:"output_url"`
	Error     string          `json:"error"`
	Status    string          `json:"status"`
	Output    json.RawMessage `json:"output"`
	Message   string          `json:"message"`
}

func (p *mediaWebhookPayload) outputURL() string {
	if p.OutputURL != "" {
		return p.OutputURL
	}
	if len(p.Output) == 0 {
		return ""
	}
	var single string
	if err := json.Unmarshal(p.Output, &single); err == nil {
		return single
	}
	var many []string
	if err := json.Unmarshal(p.Output, &many); err == nil && len(many) > 0 {
		return many[0]
	}
	return ""
}

// errText reports why the job failed, or "" on success. A non-empty error
// always wins over any delivered output.
func (p *mediaWebhookPayload) errText() string {
	if p.Error != "" {
		return p.Error
	}
	if p.Status == "error" || p.Status == "failed" {
		if p.Message != "" {
			return p.Message
		}
		return "processing failed"
	}
	return ""
}

func (s *Server) handleMediaWebhook(w http.ResponseWriter, r *http.Request) {
	var payload mediaWebhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.TrackID == "" {
		s.writeError(w, r, domain.ErrInvalidArgument)
		return
	}

	outputURL := payload.outputURL()
	errText := payload.errText()
	if errText != "" {
		outputURL = ""
	} else if outputURL == "" {
		errText = "processing failed"
	}

	ctx := logging.WithTrackID(r.Context(), payload.TrackID)
	job, err := s.mediaUC.HandleWebhook(ctx, payload.TrackID, outputURL, errText)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": string(job.Status)})
}
