package main

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/cockroachdb/errors"

	"github.com/sususave/go-offline/logger"
	"github.com/sususave/go-offline/notify"
	"github.com/sususave/go-offline/strategy"
)

// httpHost is the daemon's worker.Host: it fetches from the application
// origin over HTTP and logs the capabilities a browser would render.
type httpHost struct {
	client   *http.Client
	upstream string
	logger   logger.Logger
}

func newHTTPHost(upstream string, log logger.Logger) *httpHost {
	return &httpHost{
		client:   &http.Client{},
		upstream: upstream,
		logger:   log.WithPrefix("[host]"),
	}
}

func (h *httpHost) Fetch(ctx context.Context, req *strategy.Request) (*strategy.Response, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, h.upstream+req.URL, body)
	if err != nil {
		return nil, errors.Wrapf(err, "building upstream request for %s", req.URL)
	}
	for k, vals := range req.Header {
		for _, v := range vals {
			httpReq.Header.Add(k, v)
		}
	}
	httpResp, err := h.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()
	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "reading upstream response for %s", req.URL)
	}
	return &strategy.Response{
		Status: httpResp.StatusCode,
		Header: httpResp.Header,
		Body:   respBody,
	}, nil
}

// The daemon has no browser windows; client operations degrade to logs.

func (h *httpHost) Clients(ctx context.Context) ([]notify.Client, error) {
	return nil, nil
}

func (h *httpHost) OpenWindow(ctx context.Context, url string) error {
	h.logger.Info("open window: %s", url)
	return nil
}

func (h *httpHost) ShowNotification(ctx context.Context, intent *notify.Intent) error {
	h.logger.Info("notification %s: %s / %s -> %s", intent.ID, intent.Title, intent.Body, intent.TargetURL)
	return nil
}

func (h *httpHost) Claim(ctx context.Context) error {
	h.logger.Debug("claiming clients")
	return nil
}
