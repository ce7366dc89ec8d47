package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var testAPIPrefixes = []string{"/auth/", "/groups/", "/payments/", "/payouts/"}

func TestClassify_RuleOrder(t *testing.T) {
	c := NewClassifier(testAPIPrefixes)

	// Navigation wins over everything, even an API-looking URL.
	assert.Equal(t, ClassNavigation, c.Classify(&Request{
		Method:     "GET",
		URL:        "/groups/123",
		Navigation: true,
	}))

	// API prefix wins over a static suffix.
	assert.Equal(t, ClassAPI, c.Classify(&Request{
		Method: "GET",
		URL:    "/groups/123/export.json",
	}))
}

func TestClassify_API(t *testing.T) {
	c := NewClassifier(testAPIPrefixes)
	for _, u := range []string{
		"/auth/login",
		"/groups/abc/members",
		"/payments/p-1",
		"/payouts/schedule",
	} {
		assert.Equal(t, ClassAPI, c.Classify(&Request{Method: "POST", URL: u}), u)
	}
}

func TestClassify_Static(t *testing.T) {
	c := NewClassifier(testAPIPrefixes)
	for _, u := range []string{
		"/app/index.css",
		"/app/main.js",
		"/assets/logo-icon.svg",
		"/assets/fonts/inter.woff2",
		"/favicon.png",
		"/manifest.json",
	} {
		assert.Equal(t, ClassStatic, c.Classify(&Request{Method: "GET", URL: u}), u)
	}
}

func TestClassify_Other(t *testing.T) {
	c := NewClassifier(testAPIPrefixes)
	assert.Equal(t, ClassOther, c.Classify(&Request{Method: "GET", URL: "/health"}))
	assert.Equal(t, ClassOther, c.Classify(&Request{Method: "GET", URL: "/app/dashboard"}))
}

func TestClassify_QueryIgnored(t *testing.T) {
	c := NewClassifier(testAPIPrefixes)
	// Suffix matching applies to the path, not the query string.
	assert.Equal(t, ClassOther, c.Classify(&Request{Method: "GET", URL: "/search?q=style.css"}))
	assert.Equal(t, ClassStatic, c.Classify(&Request{Method: "GET", URL: "/app/main.js?v=42"}))
}

func TestClassify_AbsoluteURL(t *testing.T) {
	c := NewClassifier(testAPIPrefixes)
	assert.Equal(t, ClassAPI, c.Classify(&Request{Method: "GET", URL: "https://app.sususave.com/groups/1"}))
	assert.Equal(t, ClassStatic, c.Classify(&Request{Method: "GET", URL: "https://app.sususave.com/assets/app.js"}))
}
