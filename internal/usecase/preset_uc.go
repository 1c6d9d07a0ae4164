package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"image-edit-saas/internal/domain/model"
	"image-edit-saas/internal/domain/ports/repository"
)

type PresetUseCase struct {
	presets repository.ModelPresetRepository
	log     zerolog.Logger
}

func NewPresetUseCase(presets repository.ModelPresetRepository, log zerolog.Logger) *PresetUseCase {
	return &PresetUseCase{presets: presets, log: log.With().Str("component", "preset_uc").Logger()}
}

// PresetInput carries the editable preset fields; nil pointer fields keep the
// defaults (on create) or the current value (on update).
type PresetInput struct {
	ModelID     string
	Title       string
	Description string
	Thumbnail   string
	Prompt      string

	NegativePrompt *string
	Width          *int
	Height         *int
	Samples        *int
	Steps          *int
	GuidanceScale  *float64
	Strength       *float64
	Scheduler      *string
	ClipSkip       *int
	Seed           *int64
	SafetyChecker  *bool
	EnhancePrompt  *bool
	IsActive       *bool
}

func (uc *PresetUseCase) Create(ctx context.Context, in PresetInput) (*model.ModelPreset, error) {
	preset, err := model.NewModelPreset(uuid.NewString(), in.ModelID, in.Title, in.Description, in.Thumbnail, in.Prompt)
	if err != nil {
		return nil, err
	}
	applyPresetInput(preset, in)
	if err := uc.presets.Save(ctx, nil, preset); err != nil {
		return nil, fmt.Errorf("save preset: %w", err)
	}
	uc.log.Info().Str("preset_id", preset.ID).Str("model_id", preset.ModelID).Msg("preset created")
	return preset, nil
}

func (uc *PresetUseCase) Get(ctx context.Context, id string) (*model.ModelPreset, error) {
	return uc.presets.FindByID(ctx, nil, id)
}

func (uc *PresetUseCase) List(ctx context.Context) ([]*model.ModelPreset, error) {
	return uc.presets.ListAll(ctx, nil)
}

func (uc *PresetUseCase) Update(ctx context.Context, id string, in PresetInput) (*model.ModelPreset, error) {
	preset, err := uc.presets.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if in.ModelID != "" {
		preset.ModelID = in.ModelID
	}
	if in.Title != "" {
		preset.Title = in.Title
	}
	if in.Description != "" {
		preset.Description = in.Description
	}
	if in.Thumbnail != "" {
		preset.Thumbnail = in.Thumbnail
	}
	if in.Prompt != "" {
		preset.Prompt = in.Prompt
	}
	applyPresetInput(preset, in)
	preset.UpdatedAt = time.Now()
	if err := uc.presets.Save(ctx, nil, preset); err != nil {
		return nil, fmt.Errorf("save preset: %w", err)
	}
	uc.log.Info().Str("preset_id", preset.ID).Msg("preset updated")
	return preset, nil
}

func (uc *PresetUseCase) Delete(ctx context.Context, id string) error {
	if err := uc.presets.Delete(ctx, nil, id); err != nil {
		return err
	}
	uc.log.Info().Str("preset_id", id).Msg("preset deleted")
	return nil
}

func applyPresetInput(p *model.ModelPreset, in PresetInput) {
	if in.NegativePrompt != nil {
		p.NegativePrompt = *in.NegativePrompt
	}
	if in.Width != nil {
		p.Width = *in.Width
	}
	if in.Height != nil {
		p.Height = *in.Height
	}
	if in.Samples != nil {
		p.Samples = *in.Samples
	}
	if in.Steps != nil {
		p.Steps = *in.Steps
	}
	if in.GuidanceScale != nil {
		p.GuidanceScale = *in.GuidanceScale
	}
	if in.Strength != nil {
		p.Strength = *in.Strength
	}
	if in.Scheduler != nil {
		p.Scheduler = *in.Scheduler
	}
	if in.ClipSkip != nil {
		p.ClipSkip = *in.ClipSkip
	}
	if in.Seed != nil {
		p.Seed = in.Seed
	}
	if in.SafetyChecker != nil {
		p.SafetyChecker = *in.SafetyChecker
	}
	if in.EnhancePrompt != nil {
		p.EnhancePrompt = *in.EnhancePrompt
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
}
