package navigator

import (
	"context"
	"fmt"
	"time"

	"github.com/xkilldash9x/vivado-fetch/api/schemas"
)

// fakePage is an in-memory vendor site. Elements are keyed by the exact
// expression the navigator queries; handles are element ids.
type fakePage struct {
	url        string
	dom        map[string][]schemas.Element
	onNavigate map[string]func(p *fakePage)
	navErr     map[string]error
	clicks     map[string]func(p *fakePage)
	values     map[string]string
	options    map[string][]schemas.Option

	navigated []string
	clicked   []string
}

func newFakePage() *fakePage {
	return &fakePage{
		dom:        map[string][]schemas.Element{},
		onNavigate: map[string]func(p *fakePage){},
		navErr:     map[string]error{},
		clicks:     map[string]func(p *fakePage){},
		values:     map[string]string{},
		options:    map[string][]schemas.Option{},
	}
}

func el(id, text string, attrs ...string) schemas.Element {
	e := schemas.Element{Handle: id, Text: text, Attrs: map[string]string{}}
	for i := 0; i+1 < len(attrs); i += 2 {
		e.Attrs[attrs[i]] = attrs[i+1]
	}
	return e
}

func (p *fakePage) load(u string) {
	p.url = u
	if f := p.onNavigate[u]; f != nil {
		f(p)
	}
}

func (p *fakePage) Navigate(ctx context.Context, u string) error {
	p.navigated = append(p.navigated, u)
	if err := p.navErr[u]; err != nil {
		return err
	}
	p.load(u)
	return nil
}

func (p *fakePage) Location(ctx context.Context) (string, error) { return p.url, nil }

func (p *fakePage) Query(ctx context.Context, xpath string) ([]schemas.Element, error) {
	return p.dom[xpath], nil
}

func (p *fakePage) WaitFor(ctx context.Context, xpath string, timeout time.Duration) ([]schemas.Element, error) {
	if els := p.dom[xpath]; len(els) > 0 {
		return els, nil
	}
	return nil, fmt.Errorf("waiting for %q: %w", xpath, context.DeadlineExceeded)
}

func (p *fakePage) WaitLocation(ctx context.Context, cond func(string) bool, timeout time.Duration) (string, error) {
	if cond(p.url) {
		return p.url, nil
	}
	return p.url, context.DeadlineExceeded
}

func (p *fakePage) Click(ctx context.Context, e schemas.Element) error {
	id := e.Handle.(string)
	p.clicked = append(p.clicked, id)
	if f := p.clicks[id]; f != nil {
		f(p)
	}
	return nil
}

func (p *fakePage) Fill(ctx context.Context, e schemas.Element, text string) error {
	p.values[e.Handle.(string)] = text
	return nil
}

func (p *fakePage) Value(ctx context.Context, e schemas.Element) (string, error) {
	if v, ok := p.values[e.Handle.(string)]; ok {
		return v, nil
	}
	return e.Attr("value"), nil
}

func (p *fakePage) Options(ctx context.Context, e schemas.Element) ([]schemas.Option, error) {
	return p.options[e.Handle.(string)], nil
}

func (p *fakePage) Select(ctx context.Context, e schemas.Element, value string) error {
	for _, o := range p.options[e.Handle.(string)] {
		if o.Value == value {
			p.values[e.Handle.(string)] = value
			return nil
		}
	}
	return fmt.Errorf("no option %q", value)
}

var _ schemas.Page = (*fakePage)(nil)

// fakePrompter answers from fixed data and records what it was asked.
type fakePrompter struct {
	creds   Credentials
	choices map[string]int
	inputs  map[string]string

	credentialCalls int
	asked           []string
}

func (f *fakePrompter) Credentials(ctx context.Context, email string) (Credentials, error) {
	f.credentialCalls++
	c := f.creds
	if c.Email == "" {
		c.Email = email
	}
	return c, nil
}

func (f *fakePrompter) Choose(ctx context.Context, title string, choices []string) (int, error) {
	f.asked = append(f.asked, title)
	for prefix, idx := range f.choices {
		if len(title) >= len(prefix) && title[:len(prefix)] == prefix {
			return idx, nil
		}
	}
	return 0, fmt.Errorf("unexpected choice %q", title)
}

func (f *fakePrompter) Input(ctx context.Context, label string, optional bool) (string, error) {
	f.asked = append(f.asked, label)
	if v, ok := f.inputs[label]; ok {
		return v, nil
	}
	return "", fmt.Errorf("unexpected input %q", label)
}
