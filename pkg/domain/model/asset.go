package model

import (
	"strings"
	"time"
)

// Platform is the capture platform category reported by the catalog
type Platform string

const (
	PlatformUAV       Platform = "uav"
	PlatformAircraft  Platform = "aircraft"
	PlatformSatellite Platform = "satellite"
)

// ParsePlatform normalizes a catalog platform value. Unknown values are kept
// lowercased so they can still be matched by predicates.
func ParsePlatform(s string) Platform {
	return Platform(strings.ToLower(strings.TrimSpace(s)))
}

// AssetRecord represents one catalog entry describing a remote image
type AssetRecord struct {
	ID               string     // Stable catalog identifier
	Title            string     // Human readable title
	ThumbnailURL     string     // Remote preview image
	AssetURL         string     // Remote full-resolution GeoTIFF
	GSD              *float64   // Ground sample distance in metres
	UploadedAt       *time.Time // Upload time to the catalog
	AcquisitionStart *time.Time
	AcquisitionEnd   *time.Time
	Platform         Platform
	Provider         string
	Contact          string
	Footprint        string   // WKT polygon
	BBox             *BBox    // Bounding box of the footprint
	Coverage         *float64 // Land-cover percentage, set by the coverage stage
	Extra            map[string]string
}

// HasFootprint reports whether the record carries a usable geometry
func (r *AssetRecord) HasFootprint() bool {
	return strings.TrimSpace(r.Footprint) != "" || r.BBox != nil
}

// Clone returns a deep copy so that stages never mutate their input snapshot
func (r *AssetRecord) Clone() *AssetRecord {
	c := *r
	c.GSD = cloneFloat(r.GSD)
	c.Coverage = cloneFloat(r.Coverage)
	c.UploadedAt = cloneTime(r.UploadedAt)
	c.AcquisitionStart = cloneTime(r.AcquisitionStart)
	c.AcquisitionEnd = cloneTime(r.AcquisitionEnd)
	if r.BBox != nil {
		b := *r.BBox
		c.BBox = &b
	}
	if r.Extra != nil {
		c.Extra = make(map[string]string, len(r.Extra))
		for k, v := range r.Extra {
			c.Extra[k] = v
		}
	}
	return &c
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Snapshot is an ordered collection of asset records persisted between stages
type Snapshot struct {
	Records      []*AssetRecord
	ExtraColumns []string // Column order of AssetRecord.Extra keys
}

// Len returns the number of records
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Records)
}

// Derive returns a new snapshot sharing the column layout but holding records
func (s *Snapshot) Derive(records []*AssetRecord) *Snapshot {
	cols := make([]string, len(s.ExtraColumns))
	copy(cols, s.ExtraColumns)
	return &Snapshot{Records: records, ExtraColumns: cols}
}

// Lookup indexes records by ID. The first record wins on duplicated IDs.
func (s *Snapshot) Lookup() map[string]*AssetRecord {
	idx := make(map[string]*AssetRecord, len(s.Records))
	for _, r := range s.Records {
		if _, ok := idx[r.ID]; !ok {
			idx[r.ID] = r
		}
	}
	return idx
}
