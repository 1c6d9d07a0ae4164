package model

import (
	"time"

	"image-edit-saas/internal/domain"
)

// ModelPreset is an admin-curated parameter set for the generative inpaint
// endpoint. Defaults mirror the upstream API's documented defaults.
type ModelPreset struct {
	ID          string
	ModelID     string // upstream model identifier, unique
	Title       string
	Description string
	Thumbnail   string

	Prompt         string
	NegativePrompt string
	Width          int
	Height         int
	Samples        int
	Steps          int
	GuidanceScale  float64
	Strength       float64
	Scheduler      string
	ClipSkip       int
	Seed           *int64
	SafetyChecker  bool
	EnhancePrompt  bool

	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p *ModelPreset) IsZero() bool { return p == nil || p.ID == "" }

// NewModelPreset validates required fields and fills upstream defaults.
func NewModelPreset(id, modelID, title, description, thumbnail, prompt string) (*ModelPreset, error) {
	if id == "" || modelID == "" || title == "" || description == "" || thumbnail == "" || prompt == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &ModelPreset{
		ID:             id,
		ModelID:        modelID,
		Title:          title,
		Description:    description,
		Thumbnail:      thumbnail,
		Prompt:         prompt,
		NegativePrompt: "low quality, artifacts",
		Width:          1024,
		Height:         1024,
		Samples:        1,
		Steps:          20,
		GuidanceScale:  7,
		Strength:       0.8,
		Scheduler:      "PNDMScheduler",
		ClipSkip:       1,
		SafetyChecker:  true,
		EnhancePrompt:  true,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}
