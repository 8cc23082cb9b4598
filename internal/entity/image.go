package entity

import "time"

const ImageReplacedEvent = "image.replaced"

// ImageReplaced is published when a hosted image stops being referenced,
// either replaced by a new crop or removed.
type ImageReplaced struct {
	Type      string    `json:"type"`
	Target    string    `json:"target"`
	TargetID  string    `json:"target_id"`
	OldURL    string    `json:"old_url,omitempty"`
	NewURL    string    `json:"new_url,omitempty"`
	PublicID  string    `json:"public_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type ImageRefResponse struct {
	Target      string `json:"target"`
	TargetID    string `json:"target_id"`
	URL         string `json:"url"`
	PreviousURL string `json:"previous_url,omitempty"`
}

// Asset is an image stored by the local uploader.
type Asset struct {
	PublicID  string    `json:"public_id"`
	URL       string    `json:"url"`
	Path      string    `json:"path"`
	Folder    string    `json:"folder"`
	Format    string    `json:"format"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Bytes     int       `json:"bytes"`
	CreatedAt time.Time `json:"created_at"`
}
