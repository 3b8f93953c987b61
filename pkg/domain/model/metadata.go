package model

// AssetMetadata describes a downloaded full-resolution file for downstream use
type AssetMetadata struct {
	Filename       string
	ID             string
	AssetURL       string
	Authors        string
	CaptureDate    string // YYYY-MM-DD
	Platform       string
	IsLongCampaign bool
}
