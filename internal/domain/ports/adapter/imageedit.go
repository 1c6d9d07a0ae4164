package adapter

import (
	"context"

	"image-edit-saas/internal/domain/model"
)

// InpaintRequest carries a preset's parameters plus the per-job inputs.
type InpaintRequest struct {
	Preset     *model.ModelPreset
	InitImage  string
	MaskImage  string
	TrackID    string
	WebhookURL string
}

// ImageEditor delegates editing jobs to the external generative-image API.
// Both calls are fire-and-forget: results arrive later on the webhook keyed
// by track id.
type ImageEditor interface {
	RemoveObject(ctx context.Context, initImage, maskImage, trackID, webhookURL string) error
	Inpaint(ctx context.Context, req InpaintRequest) error
}
