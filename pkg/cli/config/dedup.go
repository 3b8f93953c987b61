package config

import "github.com/urfave/cli/v3"

// Dedup holds duplicate detection configuration
type Dedup struct {
	Dir    string
	Ext    string
	Remove bool
	Report string
}

// Flags returns CLI flags for dedup configuration
func (c *Dedup) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "dir",
			Usage:       "Directory to scan",
			Value:       "thumbnails",
			Destination: &c.Dir,
			Sources:     cli.EnvVars("OAMFETCH_DEDUP_DIR"),
		},
		&cli.StringFlag{
			Name:        "ext",
			Usage:       "Only consider files with this extension (empty for all)",
			Value:       ".png",
			Destination: &c.Ext,
			Sources:     cli.EnvVars("OAMFETCH_DEDUP_EXT"),
		},
		&cli.BoolFlag{
			Name:        "remove",
			Usage:       "Delete duplicates, keeping the lexicographically first file of each group",
			Destination: &c.Remove,
			Sources:     cli.EnvVars("OAMFETCH_DEDUP_REMOVE"),
		},
		&cli.StringFlag{
			Name:        "report",
			Usage:       "Write the duplicate list to this file",
			Destination: &c.Report,
			Sources:     cli.EnvVars("OAMFETCH_DEDUP_REPORT"),
		},
	}
}
