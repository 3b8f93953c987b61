package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/oamfetch/pkg/domain/interfaces"
)

type notifierKey struct{}

func withNotifier(ctx context.Context, n interfaces.Notifier) context.Context {
	if n == nil {
		return ctx
	}
	return context.WithValue(ctx, notifierKey{}, n)
}

// summary is the end-of-stage report printed to the terminal and optionally
// posted to Slack
type summary struct {
	title string
	rows  [][2]string
	ok    bool
}

func newSummary(title string) *summary {
	return &summary{title: title, ok: true}
}

func (s *summary) add(key string, value any) *summary {
	s.rows = append(s.rows, [2]string{key, fmt.Sprint(value)})
	return s
}

func (s *summary) fail() *summary {
	s.ok = false
	return s
}

func (s *summary) print(w io.Writer) {
	title := color.New(color.FgGreen, color.Bold)
	if !s.ok {
		title = color.New(color.FgRed, color.Bold)
	}
	key := color.New(color.FgCyan)

	title.Fprintf(w, "\n%s\n", s.title)
	for _, row := range s.rows {
		key.Fprintf(w, "  %-22s", row[0])
		fmt.Fprintf(w, " %s\n", row[1])
	}
}

func (s *summary) text() string {
	var b strings.Builder
	status := "done"
	if !s.ok {
		status = "incomplete"
	}
	fmt.Fprintf(&b, "*%s* (%s)\n", s.title, status)
	for _, row := range s.rows {
		fmt.Fprintf(&b, "• %s: %s\n", row[0], row[1])
	}
	return b.String()
}

// report prints the summary and posts it when a notifier is configured.
// Notification failures are logged only.
func (s *summary) report(ctx context.Context) {
	s.print(os.Stdout)

	n, ok := ctx.Value(notifierKey{}).(interfaces.Notifier)
	if !ok {
		return
	}
	if err := n.Notify(context.WithoutCancel(ctx), s.text()); err != nil {
		ctxlog.From(ctx).Warn("failed to send notification", "error", err)
	}
}
