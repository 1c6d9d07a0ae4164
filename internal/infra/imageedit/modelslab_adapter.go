package imageedit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"image-edit-saas/internal/config"
	"image-edit-saas/internal/domain/ports/adapter"
)

var _ adapter.ImageEditor = (*ModelsLabAdapter)(nil)

// ModelsLabAdapter submits editing jobs to the ModelsLab API. The API answers
// immediately with "processing"; the finished image arrives on our webhook
// carrying the track id we passed in.
type ModelsLabAdapter struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     zerolog.Logger
}

func NewModelsLabAdapter(cfg *config.ImageEditConfig, log zerolog.Logger) *ModelsLabAdapter {
	return &ModelsLabAdapter{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: 30 * time.Second},
		log:     log.With().Str("component", "modelslab").Logger(),
	}
}

type submitResponse struct {
	Status  string      `json:"status"`
	Message interface{} `json:"message"`
	ID      json.Number `json:"id"`
	ETA     json.Number `json:"eta"`
}

func (m *ModelsLabAdapter) RemoveObject(ctx context.Context, initImage, maskImage, trackID, webhookURL string) error {
	payload := map[string]interface{}{
		"key":        m.apiKey,
		"init_image": initImage,
		"mask_image": maskImage,
		"track_id":   trackID,
		"webhook":    webhookURL,
	}
	return m.submit(ctx, "/image_editing/object_removal", trackID, payload)
}

func (m *ModelsLabAdapter) Inpaint(ctx context.Context, req adapter.InpaintRequest) error {
	p := req.Preset
	payload := map[string]interface{}{
		"key":                 m.apiKey,
		"model_id":            p.ModelID,
		"prompt":              p.Prompt,
		"negative_prompt":     p.NegativePrompt,
		"init_image":          req.InitImage,
		"mask_image":          req.MaskImage,
		"width":               p.Width,
		"height":              p.Height,
		"samples":             p.Samples,
		"num_inference_steps": p.Steps,
		"guidance_scale":      p.GuidanceScale,
		"strength":            p.Strength,
		"scheduler":           p.Scheduler,
		"clip_skip":           p.ClipSkip,
		"safety_checker":      p.SafetyChecker,
		"enhance_prompt":      boolWord(p.EnhancePrompt),
		"base64":              "no",
		"track_id":            req.TrackID,
		"webhook":             req.WebhookURL,
	}
	if p.Seed != nil {
		payload["seed"] = *p.Seed
	}
	return m.submit(ctx, "/images/inpaint", req.TrackID, payload)
}

func (m *ModelsLabAdapter) submit(ctx context.Context, path, trackID string, payload map[string]interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode job payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build job request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("call modelslab: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read modelslab response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("modelslab %s: status %d", path, resp.StatusCode)
	}

	var parsed submitResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return fmt.Errorf("decode modelslab response: %w", err)
	}
	if parsed.Status == "error" || parsed.Status == "failed" {
		return fmt.Errorf("modelslab %s: %v", path, parsed.Message)
	}

	m.log.Info().Str("track_id", trackID).Str("path", path).Str("status", parsed.Status).
		Str("request_id", parsed.ID.String()).Msg("job submitted")
	return nil
}

// The upstream API expects "yes"/"no" rather than JSON booleans for this flag.
func boolWord(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
