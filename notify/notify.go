// Package notify turns push payloads into user-visible notifications and
// handles the user's response to them. Payload decoding is deliberately
// forgiving: a push that cannot be parsed still produces a generic
// notification rather than nothing.
package notify

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/sususave/go-offline/logger"
)

// Defaults applied when a push payload omits fields or cannot be decoded.
const (
	DefaultTitle = "SusuSave"
	DefaultBody  = "You have a new notification"
	DefaultIcon  = "/assets/logo-icon.svg"
	DefaultBadge = "/assets/favicon.svg"
	DefaultURL   = "/app/dashboard"
)

// ActionDismiss is the notification action that closes without navigating.
const ActionDismiss = "dismiss"

// Payload is the decoded body of a push message.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Icon  string `json:"icon"`
	Badge string `json:"badge"`
	URL   string `json:"url"`
}

// DecodePayload parses a push payload, filling every missing field with
// its default. It never fails: garbage input yields the default payload.
func DecodePayload(data []byte) Payload {
	var p Payload
	if len(data) > 0 {
		// Best effort; a partial decode keeps whatever fields parsed.
		_ = json.Unmarshal(data, &p)
	}
	if p.Title == "" {
		p.Title = DefaultTitle
	}
	if p.Body == "" {
		p.Body = DefaultBody
	}
	if p.Icon == "" {
		p.Icon = DefaultIcon
	}
	if p.Badge == "" {
		p.Badge = DefaultBadge
	}
	if p.URL == "" {
		p.URL = DefaultURL
	}
	return p
}

// Intent is a notification ready to be shown, carrying the navigation
// target for a later click.
type Intent struct {
	ID        string
	Title     string
	Body      string
	Icon      string
	Badge     string
	TargetURL string
}

// Click describes the user's interaction with a shown notification.
type Click struct {
	// Action is the notification action button pressed, empty for a tap
	// on the notification body.
	Action string
	// TargetURL is the navigation target carried by the intent.
	TargetURL string
}

// Client is an open application window the dispatcher can direct the
// user to.
type Client interface {
	// URL returns the client's current location.
	URL() string
	// Focus brings the client to the foreground.
	Focus(ctx context.Context) error
}

// Host provides the platform capabilities notifications need. The daemon
// supplies a real implementation; tests use fakes.
type Host interface {
	// ShowNotification displays the intent to the user.
	ShowNotification(ctx context.Context, intent *Intent) error
	// Clients lists the currently open application windows.
	Clients(ctx context.Context) ([]Client, error)
	// OpenWindow opens a new application window at url.
	OpenWindow(ctx context.Context, url string) error
}

// Dispatcher receives push messages and notification clicks.
type Dispatcher struct {
	host   Host
	logger logger.Logger
}

// NewDispatcher returns a Dispatcher using the given host.
func NewDispatcher(host Host, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		host:   host,
		logger: log.WithPrefix("[notify]"),
	}
}

// Push decodes a push payload and shows the resulting notification.
func (d *Dispatcher) Push(ctx context.Context, data []byte) error {
	p := DecodePayload(data)
	intent := &Intent{
		ID:        uuid.New().String(),
		Title:     p.Title,
		Body:      p.Body,
		Icon:      p.Icon,
		Badge:     p.Badge,
		TargetURL: p.URL,
	}
	d.logger.Debug("showing notification %s: %s", intent.ID, intent.Title)
	return d.host.ShowNotification(ctx, intent)
}

// Click routes a notification click. Dismiss closes without navigating.
// Otherwise the first open client already at the target URL is focused,
// and a new window is opened when there is none.
func (d *Dispatcher) Click(ctx context.Context, click Click) error {
	if click.Action == ActionDismiss {
		return nil
	}
	target := click.TargetURL
	if target == "" {
		target = DefaultURL
	}
	clients, err := d.host.Clients(ctx)
	if err != nil {
		d.logger.Warn("listing clients failed: %v", err)
	}
	for _, c := range clients {
		if c.URL() == target {
			return c.Focus(ctx)
		}
	}
	return d.host.OpenWindow(ctx, target)
}
