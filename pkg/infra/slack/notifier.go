// Package slack posts stage summaries to an incoming webhook.
package slack

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"
)

// Notifier implements interfaces.Notifier
type Notifier struct {
	webhookURL string
	channel    string
}

// New creates a notifier. channel may be empty to use the webhook default.
func New(webhookURL, channel string) *Notifier {
	return &Notifier{webhookURL: webhookURL, channel: channel}
}

// Notify posts text as a plain message
func (n *Notifier) Notify(ctx context.Context, text string) error {
	msg := &slack.WebhookMessage{
		Text:    text,
		Channel: n.channel,
	}
	if err := slack.PostWebhookContext(ctx, n.webhookURL, msg); err != nil {
		return goerr.Wrap(err, "failed to post slack webhook")
	}
	return nil
}
