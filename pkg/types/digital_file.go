package types

// DigitalFile describes the downloadable asset attached to a digital
// product, stored as jsonb.
type DigitalFile struct {
	URL           string `json:"url"`
	Name          string `json:"name"`
	SizeBytes     int64  `json:"size_bytes,omitempty"`
	DownloadLimit int    `json:"download_limit,omitempty"`
	ExpiryDays    int    `json:"expiry_days,omitempty"`
}
