package config

import (
	"os"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/oamfetch/pkg/domain/model"
	"github.com/m-mizutani/oamfetch/pkg/domain/types"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// Filter holds attribute predicates and the coverage policy source
type Filter struct {
	PolicyFile    string
	MaxGSD        float64
	UploadedAfter string
	Platforms     []string
}

// Flags returns CLI flags for filter configuration
func (c *Filter) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "policy",
			Usage:       "TOML file with [predicates] and [[coverage]] rules",
			Destination: &c.PolicyFile,
			Sources:     cli.EnvVars("OAMFETCH_POLICY"),
		},
		&cli.FloatFlag{
			Name:        "max-gsd",
			Usage:       "Keep records with GSD strictly below this value in metres (0 disables)",
			Value:       0.1,
			Destination: &c.MaxGSD,
			Sources:     cli.EnvVars("OAMFETCH_MAX_GSD"),
		},
		&cli.StringFlag{
			Name:        "uploaded-after",
			Usage:       "Keep records uploaded strictly after this date (YYYY-MM-DD)",
			Value:       "2024-04-01",
			Destination: &c.UploadedAfter,
			Sources:     cli.EnvVars("OAMFETCH_UPLOADED_AFTER"),
		},
		&cli.StringSliceFlag{
			Name:        "platform",
			Usage:       "Allowed platform, repeatable (uav, aircraft, satellite)",
			Value:       []string{"uav", "aircraft"},
			Destination: &c.Platforms,
			Sources:     cli.EnvVars("OAMFETCH_PLATFORMS"),
		},
	}
}

// PolicyFile is the TOML layout of a filter policy
type PolicyFile struct {
	Predicates *model.AttributePredicates `toml:"predicates"`
	Coverage   []model.CoverageRule       `toml:"coverage"`
}

// Load builds predicates and policy. Values in the policy file take
// precedence over flags; without [[coverage]] rules the default policy applies.
func (c *Filter) Load() (model.AttributePredicates, model.CoveragePolicy, error) {
	pred, err := c.flagPredicates()
	if err != nil {
		return model.AttributePredicates{}, model.CoveragePolicy{}, err
	}
	policy := model.DefaultCoveragePolicy()

	if c.PolicyFile == "" {
		return pred, policy, nil
	}

	raw, err := os.ReadFile(c.PolicyFile)
	if err != nil {
		return pred, policy, goerr.Wrap(err, "failed to read policy file", goerr.V("path", c.PolicyFile), goerr.T(types.ErrTagConfig))
	}
	file, err := ParsePolicy(raw)
	if err != nil {
		return pred, policy, goerr.Wrap(err, "invalid policy file", goerr.V("path", c.PolicyFile))
	}

	if file.Predicates != nil {
		pred = *file.Predicates
	}
	if len(file.Coverage) > 0 {
		policy = model.CoveragePolicy{Rules: file.Coverage}
	}
	if err := policy.Validate(); err != nil {
		return pred, policy, goerr.Wrap(err, "invalid coverage policy", goerr.V("path", c.PolicyFile), goerr.T(types.ErrTagConfig))
	}
	return pred, policy, nil
}

// ParsePolicy decodes a TOML policy document
func ParsePolicy(raw []byte) (*PolicyFile, error) {
	var file PolicyFile
	if err := toml.Unmarshal(raw, &file); err != nil {
		return nil, goerr.Wrap(err, "failed to decode policy", goerr.T(types.ErrTagConfig))
	}
	return &file, nil
}

func (c *Filter) flagPredicates() (model.AttributePredicates, error) {
	var pred model.AttributePredicates
	if c.MaxGSD > 0 {
		v := c.MaxGSD
		pred.MaxGSD = &v
	}
	if s := strings.TrimSpace(c.UploadedAfter); s != "" {
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return pred, goerr.Wrap(err, "invalid uploaded-after date", goerr.V("value", s), goerr.T(types.ErrTagConfig))
		}
		pred.UploadedAfter = &t
	}
	for _, p := range c.Platforms {
		if p = strings.TrimSpace(p); p != "" {
			pred.Platforms = append(pred.Platforms, p)
		}
	}
	return pred, nil
}
