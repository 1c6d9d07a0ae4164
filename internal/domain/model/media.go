package model

import "time"

type MediaStatus string

const (
	MediaStatusPending   MediaStatus = "pending"
	MediaStatusCompleted MediaStatus = "completed"
	MediaStatusFailed    MediaStatus = "failed"
)

// MediaJob tracks one delegated image-editing job. The record is created,
// keyed by TrackID, before the outbound call to the editing API so that an
// early webhook can always find it. Only the webhook moves it to a terminal
// status.
type MediaJob struct {
	ID      string
	UserID  string
	TrackID string

	OriginalURL string
	OriginalKey string // object-storage key
	MaskURL     string
	MaskKey     string

	Status          MediaStatus
	EditedURL       string
	ProcessingError string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (m *MediaJob) IsZero() bool { return m == nil || m.ID == "" }

// Complete applies the webhook outcome: a result URL wins over an error text.
func (m *MediaJob) Complete(outputURL, errText string) {
	if outputURL != "" {
		m.Status = MediaStatusCompleted
		m.EditedURL = outputURL
	} else {
		m.Status = MediaStatusFailed
		m.ProcessingError = errText
	}
	m.UpdatedAt = time.Now()
}
