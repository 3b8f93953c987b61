package config

import (
	"github.com/m-mizutani/oamfetch/pkg/domain/interfaces"
	"github.com/m-mizutani/oamfetch/pkg/infra/slack"
	"github.com/urfave/cli/v3"
)

// Notify holds stage notification configuration
type Notify struct {
	SlackWebhookURL string `masq:"secret"`
	SlackChannel    string
}

// Flags returns CLI flags for notification configuration
func (c *Notify) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-webhook-url",
			Usage:       "Post stage summaries to this Slack incoming webhook",
			Destination: &c.SlackWebhookURL,
			Sources:     cli.EnvVars("OAMFETCH_SLACK_WEBHOOK_URL"),
		},
		&cli.StringFlag{
			Name:        "slack-channel",
			Usage:       "Override the webhook's default channel",
			Destination: &c.SlackChannel,
			Sources:     cli.EnvVars("OAMFETCH_SLACK_CHANNEL"),
		},
	}
}

// NewNotifier returns nil when no webhook is configured
func (c *Notify) NewNotifier() interfaces.Notifier {
	if c.SlackWebhookURL == "" {
		return nil
	}
	return slack.New(c.SlackWebhookURL, c.SlackChannel)
}
