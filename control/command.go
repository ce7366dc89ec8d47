// Package control defines the out-of-band command channel between the
// application pages and the worker: the wire format of commands and a
// Redis pub/sub bus for delivering them.
package control

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// Command types understood by the worker. Anything else is ignored.
const (
	// TypeSkipWaiting asks a waiting worker to activate immediately.
	TypeSkipWaiting = "SKIP_WAITING"
	// TypeCacheURLs asks the worker to pre-warm the static store.
	TypeCacheURLs = "CACHE_URLS"
	// TypeClearCache asks the worker to purge every store.
	TypeClearCache = "CLEAR_CACHE"
)

// Command is one control message, matching the page-side JSON shape.
type Command struct {
	Type string   `json:"type"`
	URLs []string `json:"urls,omitempty"`
}

// Known reports whether the command type is one the worker understands.
func (c Command) Known() bool {
	switch c.Type {
	case TypeSkipWaiting, TypeCacheURLs, TypeClearCache:
		return true
	}
	return false
}

// Decode parses a JSON-encoded command.
func Decode(data []byte) (Command, error) {
	var c Command
	if err := json.Unmarshal(data, &c); err != nil {
		return Command{}, errors.Wrap(err, "decoding control command")
	}
	if c.Type == "" {
		return Command{}, errors.New("control command missing type")
	}
	return c, nil
}

// Encode serializes a command to its JSON wire form.
func Encode(c Command) ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, "encoding control command")
	}
	return data, nil
}
