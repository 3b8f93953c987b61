package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// BBox is a WGS84 bounding box
type BBox struct {
	MinLon float64
	MinLat float64
	MaxLon float64
	MaxLat float64
}

// ParseBBox accepts "[a, b, c, d]" and "[a b c d]"
func ParseBBox(s string) (*BBox, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimPrefix(cleaned, "[")
	cleaned = strings.TrimSuffix(cleaned, "]")

	var parts []string
	if strings.Contains(cleaned, ",") {
		parts = strings.Split(cleaned, ",")
	} else {
		parts = strings.Fields(cleaned)
	}
	if len(parts) != 4 {
		return nil, goerr.New("bbox must have 4 coordinates", goerr.V("bbox", s))
	}

	var coords [4]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid bbox coordinate", goerr.V("bbox", s))
		}
		coords[i] = v
	}

	return NewBBox(coords[:])
}

// NewBBox builds a bbox from [minLon, minLat, maxLon, maxLat]
func NewBBox(coords []float64) (*BBox, error) {
	if len(coords) != 4 {
		return nil, goerr.New("bbox must have 4 coordinates", goerr.V("count", len(coords)))
	}
	b := &BBox{MinLon: coords[0], MinLat: coords[1], MaxLon: coords[2], MaxLat: coords[3]}
	if b.MinLon > b.MaxLon || b.MinLat > b.MaxLat {
		return nil, goerr.New("bbox min exceeds max", goerr.V("bbox", b.String()))
	}
	return b, nil
}

// BBoxFromWKT derives the bounding box of a WKT POLYGON/MULTIPOLYGON by
// scanning its coordinate pairs.
func BBoxFromWKT(wkt string) (*BBox, error) {
	open := strings.Index(wkt, "(")
	if open < 0 {
		return nil, goerr.New("footprint has no coordinates", goerr.V("footprint", wkt))
	}

	body := strings.NewReplacer("(", " ", ")", " ").Replace(wkt[open:])
	var b *BBox
	for _, pair := range strings.Split(body, ",") {
		fields := strings.Fields(pair)
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 2 {
			return nil, goerr.New("invalid footprint coordinate", goerr.V("pair", pair))
		}
		lon, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid footprint longitude", goerr.V("pair", pair))
		}
		lat, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid footprint latitude", goerr.V("pair", pair))
		}

		if b == nil {
			b = &BBox{MinLon: lon, MinLat: lat, MaxLon: lon, MaxLat: lat}
			continue
		}
		b.MinLon = min(b.MinLon, lon)
		b.MinLat = min(b.MinLat, lat)
		b.MaxLon = max(b.MaxLon, lon)
		b.MaxLat = max(b.MaxLat, lat)
	}

	if b == nil {
		return nil, goerr.New("footprint has no coordinates", goerr.V("footprint", wkt))
	}
	return b, nil
}

// String formats the box the way the catalog prints it
func (b BBox) String() string {
	return fmt.Sprintf("[%s, %s, %s, %s]",
		formatFloat(b.MinLon), formatFloat(b.MinLat), formatFloat(b.MaxLon), formatFloat(b.MaxLat))
}

// Key is the canonical cache key of the box
func (b BBox) Key() string {
	return strings.Join([]string{
		formatFloat(b.MinLon), formatFloat(b.MinLat), formatFloat(b.MaxLon), formatFloat(b.MaxLat),
	}, "_")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
