// Package earthengine computes land-cover percentages with the Earth Engine
// REST API.
package earthengine

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/oamfetch/pkg/domain/model"
	"github.com/m-mizutani/oamfetch/pkg/domain/types"
	"github.com/m-mizutani/oamfetch/pkg/infra/web"
	ee "google.golang.org/api/earthengine/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Defaults sample ESA WorldCover 2021 tree cover and mangroves
const (
	DefaultDataset   = "ESA/WorldCover/v200/2021"
	DefaultBand      = "Map"
	DefaultScale     = 10
	DefaultMaxPixels = 1e9
)

// DefaultClasses are the WorldCover class values counted as coverage
var DefaultClasses = []int{10, 95}

// Sampler implements interfaces.CoverageSampler
type Sampler struct {
	svc       *ee.Service
	project   string
	dataset   string
	band      string
	classes   []int
	scale     float64
	maxPixels float64
}

// Option configures Sampler
type Option func(*Sampler)

// WithDataset overrides the image asset and band
func WithDataset(dataset, band string) Option {
	return func(s *Sampler) {
		s.dataset = dataset
		s.band = band
	}
}

// WithClasses overrides the class values counted as coverage
func WithClasses(classes ...int) Option {
	return func(s *Sampler) {
		s.classes = classes
	}
}

// WithScale sets the reduction scale in metres
func WithScale(scale float64) Option {
	return func(s *Sampler) {
		s.scale = scale
	}
}

// New creates a sampler bound to a Cloud project. clientOpts are passed to the
// Earth Engine service, e.g. option.WithCredentialsFile.
func New(ctx context.Context, project string, opts []Option, clientOpts ...option.ClientOption) (*Sampler, error) {
	if project == "" {
		return nil, goerr.New("earth engine project is required", goerr.T(types.ErrTagConfig))
	}

	svc, err := ee.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create earth engine service", goerr.T(types.ErrTagConfig))
	}

	s := &Sampler{
		svc:       svc,
		project:   project,
		dataset:   DefaultDataset,
		band:      DefaultBand,
		classes:   DefaultClasses,
		scale:     DefaultScale,
		maxPixels: DefaultMaxPixels,
	}
	for _, opt := range opts {
		opt(s)
	}
	if len(s.classes) == 0 {
		return nil, goerr.New("at least one land-cover class is required", goerr.T(types.ErrTagConfig))
	}
	return s, nil
}

// Coverage returns the percentage (0-100) of pixels in bbox whose class is
// one of the configured classes. An empty reduction counts as zero.
func (s *Sampler) Coverage(ctx context.Context, bbox model.BBox) (float64, error) {
	req := &ee.ComputeValueRequest{
		Expression: &ee.Expression{
			Result: "0",
			Values: map[string]ee.ValueNode{"0": s.expression(bbox)},
		},
	}

	resp, err := s.svc.Projects.Value.Compute("projects/"+s.project, req).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			return 0, goerr.Wrap(err, "earth engine rejected computation",
				goerr.V("bbox", bbox.String()),
				goerr.V("status", apiErr.Code),
				web.ClassifyStatus(apiErr.Code))
		}
		return 0, goerr.Wrap(err, "failed to call earth engine", goerr.V("bbox", bbox.String()), web.ClassifyError(err))
	}

	dict, ok := resp.Result.(map[string]any)
	if !ok {
		if resp.Result == nil {
			return 0, nil
		}
		return 0, goerr.New("unexpected earth engine result",
			goerr.V("bbox", bbox.String()),
			goerr.V("result", resp.Result),
			goerr.T(types.ErrTagPermanent))
	}

	switch v := dict[s.band].(type) {
	case nil:
		return 0, nil
	case float64:
		return v * 100, nil
	default:
		return 0, goerr.New("unexpected band value",
			goerr.V("bbox", bbox.String()),
			goerr.V("value", v),
			goerr.T(types.ErrTagPermanent))
	}
}

// expression builds image.select(band).eq(c1).or(eq(c2))... reduced by mean
// over the rectangle.
func (s *Sampler) expression(bbox model.BBox) ee.ValueNode {
	image := invoke("Image.select", map[string]ee.ValueNode{
		"input":         invoke("Image.load", map[string]ee.ValueNode{"id": constant(s.dataset)}),
		"bandSelectors": constant([]string{s.band}),
	})

	var mask ee.ValueNode
	for i, class := range s.classes {
		eq := invoke("Image.eq", map[string]ee.ValueNode{
			"image1": image,
			"image2": invoke("Image.constant", map[string]ee.ValueNode{"value": constant(class)}),
		})
		if i == 0 {
			mask = eq
			continue
		}
		mask = invoke("Image.or", map[string]ee.ValueNode{"image1": mask, "image2": eq})
	}

	region := invoke("GeometryConstructors.Rectangle", map[string]ee.ValueNode{
		"coordinates": constant([]float64{bbox.MinLon, bbox.MinLat, bbox.MaxLon, bbox.MaxLat}),
		"geodesic":    constant(false),
	})

	return invoke("Image.reduceRegion", map[string]ee.ValueNode{
		"image":     mask,
		"reducer":   invoke("Reducer.mean", map[string]ee.ValueNode{}),
		"geometry":  region,
		"scale":     constant(s.scale),
		"maxPixels": constant(s.maxPixels),
	})
}

func invoke(name string, args map[string]ee.ValueNode) ee.ValueNode {
	return ee.ValueNode{
		FunctionInvocationValue: &ee.FunctionInvocation{
			FunctionName: name,
			Arguments:    args,
		},
	}
}

func constant(v any) ee.ValueNode {
	return ee.ValueNode{ConstantValue: v}
}
