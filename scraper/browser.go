package scraper

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrTimeout is returned when a page or element did not become ready in
	// time. Collectors treat it as recoverable.
	ErrTimeout = errors.New("timed out waiting for page")

	// ErrElementNotFound is returned when an interaction targets an element
	// that is not on the page.
	ErrElementNotFound = errors.New("element not found")
)

// Selector addresses one element of a rendered page.
type Selector struct {
	Query string
	XPath bool
}

// XPath returns an XPath selector.
func XPath(q string) Selector { return Selector{Query: q, XPath: true} }

// CSS returns a CSS selector.
func CSS(q string) Selector { return Selector{Query: q} }

func (s Selector) String() string {
	if s.XPath {
		return "xpath " + s.Query
	}
	return "css " + s.Query
}

type conditionKind int

const (
	urlIs conditionKind = iota
	clickable
)

// Condition is something a Browser can wait for.
type Condition struct {
	kind     conditionKind
	url      string
	selector Selector
}

// URLIs is satisfied once the current page URL equals url.
func URLIs(url string) Condition { return Condition{kind: urlIs, url: url} }

// Clickable is satisfied once the element is visible and enabled.
func Clickable(sel Selector) Condition { return Condition{kind: clickable, selector: sel} }

// URL returns the awaited URL of a URLIs condition.
func (c Condition) URL() (string, bool) { return c.url, c.kind == urlIs }

// Selector returns the awaited element of a Clickable condition.
func (c Condition) Selector() (Selector, bool) { return c.selector, c.kind == clickable }

func (c Condition) String() string {
	if c.kind == urlIs {
		return fmt.Sprintf("url %s", c.url)
	}
	return fmt.Sprintf("clickable %s", c.selector)
}

// Browser fetches rendered pages. Every blocking call is bounded by the
// implementation's wait timeout and reports ErrTimeout when it runs out.
type Browser interface {
	Navigate(ctx context.Context, url string) error
	WaitUntil(ctx context.Context, cond Condition) error
	Click(ctx context.Context, sel Selector) error
	Hover(ctx context.Context, sel Selector) error
	Source(ctx context.Context) (string, error)
}

// Recoverable reports whether err only affects the current page.
func Recoverable(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrElementNotFound)
}
