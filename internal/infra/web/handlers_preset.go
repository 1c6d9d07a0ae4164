package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"image-edit-saas/internal/domain/model"
	"image-edit-saas/internal/usecase"
)

type presetView struct {
	ID          string `json:"id"`
	ModelID     string `json:"model_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Thumbnail   string `json:"thumbnail"`

	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	Samples        int     `json:"samples"`
	Steps          int     `json:"steps"`
	GuidanceScale  float64 `json:"guidance_scale"`
	Strength       float64 `json:"strength"`
	Scheduler      string  `json:"scheduler"`
	ClipSkip       int     `json:"clip_skip"`
	Seed           *int64  `json:"seed,omitempty"`
	SafetyChecker  bool    `json:"safety_checker"`
	EnhancePrompt  bool    `json:"enhance_prompt"`
	IsActive       bool    `json:"is_active"`
}

func toPresetView(p *model.ModelPreset) presetView {
	return presetView{
		ID:             p.ID,
		ModelID:        p.ModelID,
		Title:          p.Title,
		Description:    p.Description,
		Thumbnail:      p.Thumbnail,
		Prompt:         p.Prompt,
		NegativePrompt: p.NegativePrompt,
		Width:          p.Width,
		Height:         p.Height,
		Samples:        p.Samples,
		Steps:          p.Steps,
		GuidanceScale:  p.GuidanceScale,
		Strength:       p.Strength,
		Scheduler:      p.Scheduler,
		ClipSkip:       p.ClipSkip,
		Seed:           p.Seed,
		SafetyChecker:  p.SafetyChecker,
		EnhancePrompt:  p.EnhancePrompt,
		IsActive:       p.IsActive,
	}
}

type presetRequest struct {
	ModelID     string `json:"model_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Thumbnail   string `json:"thumbnail"`
	Prompt      string `json:"prompt"`

	NegativePrompt *string  `json:"negative_prompt"`
	Width          *int     `json:"width"`
	Height         *int     `json:"height"`
	Samples        *int     `json:"samples"`
	Steps          *int     `json:"steps"`
	GuidanceScale  *float64 `json:"guidance_scale"`
	Strength       *float64 `json:"strength"`
	Scheduler      *string  `json:"scheduler"`
	ClipSkip       *int     `json:"clip_skip"`
	Seed           *int64   `json:"seed"`
	SafetyChecker  *bool    `json:"safety_checker"`
	EnhancePrompt  *bool    `json:"enhance_prompt"`
	IsActive       *bool    `json:"is_active"`
}

func (r presetRequest) toInput() usecase.PresetInput {
	return usecase.PresetInput{
		ModelID:        r.ModelID,
		Title:          r.Title,
		Description:    r.Description,
		Thumbnail:      r.Thumbnail,
		Prompt:         r.Prompt,
		NegativePrompt: r.NegativePrompt,
		Width:          r.Width,
		Height:         r.Height,
		Samples:        r.Samples,
		Steps:          r.Steps,
		GuidanceScale:  r.GuidanceScale,
		Strength:       r.Strength,
		Scheduler:      r.Scheduler,
		ClipSkip:       r.ClipSkip,
		Seed:           r.Seed,
		SafetyChecker:  r.SafetyChecker,
		EnhancePrompt:  r.EnhancePrompt,
		IsActive:       r.IsActive,
	}
}

func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	presets, err := s.presetUC.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	views := make([]presetView, 0, len(presets))
	for _, p := range presets {
		if p.IsActive {
			views = append(views, toPresetView(p))
		}
	}
	s.writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreatePreset(w http.ResponseWriter, r *http.Request) {
	var req presetRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	preset, err := s.presetUC.Create(r.Context(), req.toInput())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toPresetView(preset))
}

func (s *Server) handleUpdatePreset(w http.ResponseWriter, r *http.Request) {
	var req presetRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	preset, err := s.presetUC.Update(r.Context(), chi.URLParam(r, "id"), req.toInput())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toPresetView(preset))
}

func (s *Server) handleDeletePreset(w http.ResponseWriter, r *http.Request) {
	if err := s.presetUC.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "preset deleted"})
}
