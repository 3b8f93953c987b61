package model

// CatalogPage is one page of the upstream catalog
type CatalogPage struct {
	Page    int
	Limit   int // Page size reported by the catalog
	Found   int // Total number of records matching the query
	Records []RawRecord
}

// HasMore reports whether pages after this one exist
func (p *CatalogPage) HasMore() bool {
	if len(p.Records) == 0 || p.Limit <= 0 {
		return false
	}
	return p.Page*p.Limit < p.Found
}

// TotalPages derived from Found and Limit
func (p *CatalogPage) TotalPages() int {
	if p.Limit <= 0 {
		return 0
	}
	return (p.Found + p.Limit - 1) / p.Limit
}

// RawRecord is a catalog entry as returned by the API, before normalization
type RawRecord struct {
	ID               string         `json:"_id"`
	UUID             string         `json:"uuid"`
	Title            string         `json:"title"`
	Footprint        string         `json:"footprint"`
	GSD              *float64       `json:"gsd"`
	UploadedAt       string         `json:"uploaded_at"`
	AcquisitionStart string         `json:"acquisition_start"`
	AcquisitionEnd   string         `json:"acquisition_end"`
	Platform         string         `json:"platform"`
	Provider         string         `json:"provider"`
	Contact          string         `json:"contact"`
	BBox             []float64      `json:"bbox"`
	Properties       map[string]any `json:"properties"`
}
