package strategy

import (
	"net/url"
	"strings"
)

// Class is the caching category of a request.
type Class int

const (
	// ClassNavigation is a page navigation.
	ClassNavigation Class = iota
	// ClassAPI is a backend call under one of the registered API prefixes.
	ClassAPI
	// ClassStatic is a static asset.
	ClassStatic
	// ClassOther is anything else; it is cached like a static asset.
	ClassOther
)

func (c Class) String() string {
	switch c {
	case ClassNavigation:
		return "navigation"
	case ClassAPI:
		return "api"
	case ClassStatic:
		return "static-asset"
	case ClassOther:
		return "other"
	default:
		return "unknown"
	}
}

var staticSuffixes = []string{".css", ".js", ".svg", ".png", ".json"}

// Classifier maps request URLs to classes. It is pure and stable for the
// lifetime of one deployed version; only the API prefix list varies per
// deploy.
type Classifier struct {
	apiPrefixes []string
}

// NewClassifier returns a Classifier for the given API path prefixes
// (e.g. "/auth/", "/groups/", "/payments/", "/payouts/").
func NewClassifier(apiPrefixes []string) *Classifier {
	prefixes := make([]string, len(apiPrefixes))
	copy(prefixes, apiPrefixes)
	return &Classifier{apiPrefixes: prefixes}
}

// Classify returns the class of a request. Rules apply in order, first
// match wins: navigation, api prefix, static pattern, other.
func (c *Classifier) Classify(req *Request) Class {
	if req.Navigation {
		return ClassNavigation
	}
	path := req.URL
	if u, err := url.Parse(req.URL); err == nil {
		path = u.EscapedPath()
	}
	for _, prefix := range c.apiPrefixes {
		if strings.HasPrefix(path, prefix) {
			return ClassAPI
		}
	}
	if strings.HasPrefix(path, "/assets/") {
		return ClassStatic
	}
	for _, suffix := range staticSuffixes {
		if strings.HasSuffix(path, suffix) {
			return ClassStatic
		}
	}
	return ClassOther
}
