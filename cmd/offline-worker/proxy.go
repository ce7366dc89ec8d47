package main

import (
	"io"
	"net/http"
	"strings"

	"github.com/sususave/go-offline/control"
	"github.com/sususave/go-offline/logger"
	"github.com/sususave/go-offline/strategy"
	"github.com/sususave/go-offline/worker"
)

// newHandler builds the daemon's HTTP surface: every proxied request
// becomes a fetch event, /worker/control is the local message port, and
// /worker/push simulates push delivery.
func newHandler(w *worker.Worker, log logger.Logger) http.Handler {
	hlog := log.WithPrefix("[proxy]")
	mux := http.NewServeMux()

	mux.HandleFunc("/worker/control", func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(rw, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(rw, "reading body", http.StatusBadRequest)
			return
		}
		cmd, err := control.Decode(body)
		if err != nil {
			http.Error(rw, err.Error(), http.StatusBadRequest)
			return
		}
		if _, err := w.Dispatch(r.Context(), worker.MessageEvent{Command: cmd}); err != nil {
			hlog.Error("control command %s failed: %v", cmd.Type, err)
			http.Error(rw, "command failed", http.StatusInternalServerError)
			return
		}
		rw.WriteHeader(http.StatusAccepted)
	})

	mux.HandleFunc("/worker/push", func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(rw, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(rw, "reading body", http.StatusBadRequest)
			return
		}
		if _, err := w.Dispatch(r.Context(), worker.PushEvent{Data: body}); err != nil {
			hlog.Error("push dispatch failed: %v", err)
			http.Error(rw, "push failed", http.StatusInternalServerError)
			return
		}
		rw.WriteHeader(http.StatusAccepted)
	})

	mux.HandleFunc("/", func(rw http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(rw, "reading body", http.StatusBadRequest)
			return
		}
		req := &strategy.Request{
			Method:     r.Method,
			URL:        r.URL.RequestURI(),
			Navigation: isNavigation(r),
			Header:     r.Header,
			Body:       body,
		}
		resp, err := w.Dispatch(r.Context(), worker.FetchEvent{Request: req})
		if err != nil {
			hlog.Warn("fetch failed for %s %s: %v", r.Method, r.URL.Path, err)
			http.Error(rw, "upstream unavailable", http.StatusBadGateway)
			return
		}
		for k, vals := range resp.Header {
			for _, v := range vals {
				rw.Header().Add(k, v)
			}
		}
		if resp.Cached {
			rw.Header().Set("X-Served-From-Cache", "1")
		}
		rw.WriteHeader(resp.Status)
		_, _ = rw.Write(resp.Body)
	})

	return mux
}

// isNavigation mirrors the browser's navigation detection: an explicit
// Sec-Fetch-Mode, or a GET that accepts HTML.
func isNavigation(r *http.Request) bool {
	if r.Header.Get("Sec-Fetch-Mode") == "navigate" {
		return true
	}
	return r.Method == http.MethodGet && strings.Contains(r.Header.Get("Accept"), "text/html")
}
