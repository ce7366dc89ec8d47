package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sususave/go-offline/logger"
)

type fakeClient struct {
	url     string
	focused bool
}

func (c *fakeClient) URL() string { return c.url }

func (c *fakeClient) Focus(ctx context.Context) error {
	c.focused = true
	return nil
}

type fakeHost struct {
	shown      []*Intent
	clients    []Client
	clientsErr error
	opened     []string
}

func (h *fakeHost) ShowNotification(ctx context.Context, intent *Intent) error {
	h.shown = append(h.shown, intent)
	return nil
}

func (h *fakeHost) Clients(ctx context.Context) ([]Client, error) {
	return h.clients, h.clientsErr
}

func (h *fakeHost) OpenWindow(ctx context.Context, url string) error {
	h.opened = append(h.opened, url)
	return nil
}

func TestDecodePayload_Full(t *testing.T) {
	p := DecodePayload([]byte(`{"title":"Payout ready","body":"Your turn this cycle","icon":"/assets/payout.svg","url":"/app/payouts"}`))
	assert.Equal(t, "Payout ready", p.Title)
	assert.Equal(t, "Your turn this cycle", p.Body)
	assert.Equal(t, "/assets/payout.svg", p.Icon)
	assert.Equal(t, DefaultBadge, p.Badge)
	assert.Equal(t, "/app/payouts", p.URL)
}

func TestDecodePayload_MalformedFallsBackToDefaults(t *testing.T) {
	for _, data := range [][]byte{nil, {}, []byte("not json"), []byte(`{"title":`)} {
		p := DecodePayload(data)
		assert.Equal(t, DefaultTitle, p.Title)
		assert.Equal(t, DefaultBody, p.Body)
		assert.Equal(t, DefaultIcon, p.Icon)
		assert.Equal(t, DefaultURL, p.URL)
	}
}

func TestDecodePayload_PartialKeepsParsedFields(t *testing.T) {
	p := DecodePayload([]byte(`{"title":"Contribution due"}`))
	assert.Equal(t, "Contribution due", p.Title)
	assert.Equal(t, DefaultBody, p.Body)
}

func TestPush_ShowsNotification(t *testing.T) {
	host := &fakeHost{}
	d := NewDispatcher(host, logger.NewTestLogger())

	err := d.Push(context.Background(), []byte(`{"title":"Hello","url":"/app/groups"}`))
	require.NoError(t, err)
	require.Len(t, host.shown, 1)
	intent := host.shown[0]
	assert.NotEmpty(t, intent.ID)
	assert.Equal(t, "Hello", intent.Title)
	assert.Equal(t, "/app/groups", intent.TargetURL)
}

func TestClick_DismissDoesNothing(t *testing.T) {
	host := &fakeHost{clients: []Client{&fakeClient{url: "/app/dashboard"}}}
	d := NewDispatcher(host, logger.NewTestLogger())

	require.NoError(t, d.Click(context.Background(), Click{Action: ActionDismiss, TargetURL: "/app/dashboard"}))
	assert.Empty(t, host.opened)
	assert.False(t, host.clients[0].(*fakeClient).focused)
}

func TestClick_FocusesMatchingClient(t *testing.T) {
	match := &fakeClient{url: "/app/payouts"}
	host := &fakeHost{clients: []Client{&fakeClient{url: "/app/dashboard"}, match}}
	d := NewDispatcher(host, logger.NewTestLogger())

	require.NoError(t, d.Click(context.Background(), Click{TargetURL: "/app/payouts"}))
	assert.True(t, match.focused)
	assert.Empty(t, host.opened)
}

func TestClick_OpensWindowWhenNoMatch(t *testing.T) {
	host := &fakeHost{clients: []Client{&fakeClient{url: "/app/dashboard"}}}
	d := NewDispatcher(host, logger.NewTestLogger())

	require.NoError(t, d.Click(context.Background(), Click{TargetURL: "/app/payouts"}))
	assert.Equal(t, []string{"/app/payouts"}, host.opened)
}

func TestClick_ClientListFailureStillOpensWindow(t *testing.T) {
	host := &fakeHost{clientsErr: errors.New("client registry down")}
	d := NewDispatcher(host, logger.NewTestLogger())

	require.NoError(t, d.Click(context.Background(), Click{}))
	assert.Equal(t, []string{DefaultURL}, host.opened)
}
