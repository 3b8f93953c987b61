package model

// HealthStatus represents the health check status
type HealthStatus struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// ThumbnailInfo is a thumbnail awaiting curation
type ThumbnailInfo struct {
	Name     string `json:"name"`
	RecordID string `json:"record_id"`
	Size     int64  `json:"size"`
}
