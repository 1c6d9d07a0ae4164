package usecase

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"image-edit-saas/internal/domain"
	"image-edit-saas/internal/domain/model"
	"image-edit-saas/internal/domain/ports/adapter"
	"image-edit-saas/internal/domain/ports/repository"
	"image-edit-saas/internal/infra/metrics"
)

// Upload is one incoming multipart file.
type Upload struct {
	Filename    string
	ContentType string
	Data        io.Reader
}

type MediaUseCase struct {
	media   repository.MediaRepository
	presets repository.ModelPresetRepository
	storage adapter.ObjectStorage
	editor  adapter.ImageEditor

	webhookURL string
	log        zerolog.Logger
}

func NewMediaUseCase(
	media repository.MediaRepository,
	presets repository.ModelPresetRepository,
	storage adapter.ObjectStorage,
	editor adapter.ImageEditor,
	baseURL string,
	log zerolog.Logger,
) *MediaUseCase {
	return &MediaUseCase{
		media:      media,
		presets:    presets,
		storage:    storage,
		editor:     editor,
		webhookURL: baseURL + "/webhook/image-processing",
		log:        log.With().Str("component", "media_uc").Logger(),
	}
}

// RemoveObject uploads the image pair, records the pending job and delegates
// to the editing API. The job row exists before the outbound call so the
// completion webhook always has something to find.
func (uc *MediaUseCase) RemoveObject(ctx context.Context, userID string, image, mask Upload) (*model.MediaJob, error) {
	job, err := uc.prepareJob(ctx, userID, image, mask)
	if err != nil {
		return nil, err
	}

	metrics.IncMediaJob("remove_object")
	if err := uc.editor.RemoveObject(ctx, job.OriginalURL, job.MaskURL, job.TrackID, uc.webhookURL); err != nil {
		uc.failJob(ctx, job, err)
		return nil, fmt.Errorf("submit removal job: %w", err)
	}

	uc.log.Info().Str("track_id", job.TrackID).Str("user_id", userID).Msg("removal job submitted")
	return job, nil
}

// Inpaint is RemoveObject with a preset's generation parameters.
func (uc *MediaUseCase) Inpaint(ctx context.Context, userID, presetID string, image, mask Upload) (*model.MediaJob, error) {
	preset, err := uc.presets.FindByID(ctx, nil, presetID)
	if err != nil {
		return nil, err
	}
	if !preset.IsActive {
		return nil, domain.ErrNotFound
	}

	job, err := uc.prepareJob(ctx, userID, image, mask)
	if err != nil {
		return nil, err
	}

	metrics.IncMediaJob("inpaint")
	err = uc.editor.Inpaint(ctx, adapter.InpaintRequest{
		Preset:     preset,
		InitImage:  job.OriginalURL,
		MaskImage:  job.MaskURL,
		TrackID:    job.TrackID,
		WebhookURL: uc.webhookURL,
	})
	if err != nil {
		uc.failJob(ctx, job, err)
		return nil, fmt.Errorf("submit inpaint job: %w", err)
	}

	uc.log.Info().Str("track_id", job.TrackID).Str("preset_id", presetID).Msg("inpaint job submitted")
	return job, nil
}

func (uc *MediaUseCase) prepareJob(ctx context.Context, userID string, image, mask Upload) (*model.MediaJob, error) {
	trackID := uuid.NewString()

	origKey := objectKey(userID, trackID, "original", image.Filename)
	origURL, err := uc.storage.Upload(ctx, origKey, image.ContentType, image.Data)
	if err != nil {
		return nil, fmt.Errorf("upload original: %w", err)
	}
	maskKey := objectKey(userID, trackID, "mask", mask.Filename)
	maskURL, err := uc.storage.Upload(ctx, maskKey, mask.ContentType, mask.Data)
	if err != nil {
		return nil, fmt.Errorf("upload mask: %w", err)
	}

	now := time.Now()
	job := &model.MediaJob{
		ID:          uuid.NewString(),
		UserID:      userID,
		TrackID:     trackID,
		OriginalURL: origURL,
		OriginalKey: origKey,
		MaskURL:     maskURL,
		MaskKey:     maskKey,
		Status:      model.MediaStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.media.Save(ctx, nil, job); err != nil {
		return nil, fmt.Errorf("save media job: %w", err)
	}
	return job, nil
}

func (uc *MediaUseCase) failJob(ctx context.Context, job *model.MediaJob, cause error) {
	job.Complete("", cause.Error())
	if err := uc.media.Save(ctx, nil, job); err != nil {
		uc.log.Error().Err(err).Str("track_id", job.TrackID).Msg("failed job not persisted")
	}
}

// Status returns a job visible to its owner only.
func (uc *MediaUseCase) Status(ctx context.Context, userID, jobID string) (*model.MediaJob, error) {
	job, err := uc.media.FindByID(ctx, nil, jobID)
	if err != nil {
		return nil, err
	}
	if job.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return job, nil
}

// History lists the owner's most recent jobs.
func (uc *MediaUseCase) History(ctx context.Context, userID string, limit int) ([]*model.MediaJob, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return uc.media.ListByUser(ctx, nil, userID, limit)
}

// HandleWebhook applies a completion callback. Unknown track ids are refused;
// a second delivery for a finished job is a no-op.
func (uc *MediaUseCase) HandleWebhook(ctx context.Context, trackID, outputURL, errText string) (*model.MediaJob, error) {
	job, err := uc.media.FindByTrackID(ctx, nil, trackID)
	if err != nil {
		if strings.TrimSpace(trackID) == "" {
			return nil, domain.ErrInvalidArgument
		}
		metrics.IncMediaWebhook("unknown_track")
		return nil, err
	}
	if job.Status != model.MediaStatusPending {
		return job, nil
	}

	job.Complete(outputURL, errText)
	if err := uc.media.Save(ctx, nil, job); err != nil {
		return nil, fmt.Errorf("save media job: %w", err)
	}

	metrics.IncMediaWebhook(string(job.Status))
	uc.log.Info().Str("track_id", trackID).Str("status", string(job.Status)).Msg("media webhook applied")
	return job, nil
}

func objectKey(userID, trackID, kind, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		ext = ".png"
	}
	return fmt.Sprintf("media/%s/%s/%s%s", userID, trackID, kind, ext)
}
