package schemas

import (
	"context"
	"time"
)

// -- Page Capability Schemas --

// Element is a snapshot of a DOM node taken when it was queried.
// Handle is owned by the Page implementation that produced it and must only be
// passed back to that same Page.
type Element struct {
	Handle interface{}       `json:"-"`
	Tag    string            `json:"tag"`
	Text   string            `json:"text"`
	Attrs  map[string]string `json:"attrs,omitempty"`
}

// Attr returns the named attribute, or "" if the node did not carry it.
func (e Element) Attr(name string) string {
	if e.Attrs == nil {
		return ""
	}
	return e.Attrs[name]
}

// Option is a single <option> of a <select> element.
type Option struct {
	Value    string `json:"value"`
	Text     string `json:"text"`
	Selected bool   `json:"selected"`
}

// Page is the narrow set of browser capabilities the download flow relies on.
// Every selector is an XPath expression evaluated against the current document.
type Page interface {
	// Navigate loads url and waits for the document to be ready.
	Navigate(ctx context.Context, url string) error
	// Location returns the URL of the current document.
	Location(ctx context.Context) (string, error)
	// Query returns the elements currently matching xpath. An empty result is not an error.
	Query(ctx context.Context, xpath string) ([]Element, error)
	// WaitFor blocks until at least one element matches xpath or timeout elapses.
	WaitFor(ctx context.Context, xpath string, timeout time.Duration) ([]Element, error)
	// WaitLocation blocks until cond accepts the current URL or timeout elapses.
	WaitLocation(ctx context.Context, cond func(url string) bool, timeout time.Duration) (string, error)
	// Click activates the element.
	Click(ctx context.Context, el Element) error
	// Fill replaces the value of an input element with text.
	Fill(ctx context.Context, el Element, text string) error
	// Value returns the current value property of an input or select element.
	Value(ctx context.Context, el Element) (string, error)
	// Options lists the options of a select element.
	Options(ctx context.Context, el Element) ([]Option, error)
	// Select chooses the option with the given value on a select element.
	Select(ctx context.Context, el Element, value string) error
}
