package config

import "github.com/urfave/cli/v3"

// Server holds curation server configuration
type Server struct {
	Addr          string
	ThumbnailsDir string
}

// Flags returns CLI flags for server configuration
func (c *Server) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Server address",
			Value:       "localhost:8080",
			Destination: &c.Addr,
			Sources:     cli.EnvVars("OAMFETCH_ADDR"),
		},
		&cli.StringFlag{
			Name:        "dir",
			Usage:       "Thumbnail directory to curate",
			Value:       "thumbnails",
			Destination: &c.ThumbnailsDir,
			Sources:     cli.EnvVars("OAMFETCH_THUMBNAIL_DIR"),
		},
	}
}
