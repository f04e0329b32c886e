package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xkilldash9x/vivado-fetch/api/schemas"
	"github.com/xkilldash9x/vivado-fetch/internal/navigator"
)

// stubSite is a signed-in vendor site listing three releases. Submitting the
// download form starts writing installer.bin into dir.
type stubSite struct {
	dir      string
	sel      navigator.Selectors
	url      string
	dom      map[string][]schemas.Element
	versions []string

	submitted     bool
	closed        int
	closeDeadline time.Time
}

const (
	stubAccount   = "https://account.example.com/home"
	stubDownloads = "https://www.example.com/downloads.html"
	stubForm      = "https://www.example.com/member/forms/download/xef.html?filename=installer.bin"
)

func newStubSite(dir string) *stubSite {
	return &stubSite{
		dir:      dir,
		sel:      navigator.DefaultSelectors(),
		dom:      map[string][]schemas.Element{},
		versions: []string{"2023.2", "2024.1", "2024.1.1"},
	}
}

func stubEl(id, text string, attrs ...string) schemas.Element {
	e := schemas.Element{Handle: id, Text: text, Attrs: map[string]string{}}
	for i := 0; i+1 < len(attrs); i += 2 {
		e.Attrs[attrs[i]] = attrs[i+1]
	}
	return e
}

func (s *stubSite) Navigate(ctx context.Context, u string) error {
	s.dom = map[string][]schemas.Element{}
	switch {
	case strings.Contains(u, "login"):
		// The profile already holds a session.
		s.url = stubAccount
		return nil
	case u == stubDownloads:
		var tabs []schemas.Element
		for _, v := range s.versions {
			tabs = append(tabs, stubEl("tab-"+v, v, "href", "https://www.example.com/v/"+v))
		}
		s.dom[s.sel.VersionTabs] = tabs
	case strings.HasPrefix(u, "https://www.example.com/v/"):
		group := fmt.Sprintf("(%s)[1]", s.sel.DownloadGroups)
		s.dom[s.sel.DownloadGroups] = []schemas.Element{stubEl("group", "")}
		s.dom[group+"/"+s.sel.GroupLinks] = []schemas.Element{
			stubEl("link", "", "href", stubForm, "data-original-title", "Linux Web Installer"),
		}
	case u == stubForm:
		for _, name := range []string{"First_Name", "Last_Name", "Company", "Address_1", "City"} {
			s.dom[fmt.Sprintf(`//input[@name=%q]`, name)] = []schemas.Element{stubEl(name, "")}
		}
		for _, name := range []string{"Country", "Job_Function"} {
			s.dom[fmt.Sprintf(`//select[@name=%q]`, name)] = []schemas.Element{stubEl(name, "")}
		}
		s.dom[s.sel.FilenameInput] = []schemas.Element{stubEl("filename", "", "value", "installer.bin")}
		s.dom[s.sel.FormSubmit] = []schemas.Element{stubEl("submit", "Download")}
	default:
		return fmt.Errorf("page load error net::ERR_NAME_NOT_RESOLVED for %s", u)
	}
	s.url = u
	return nil
}

func (s *stubSite) Location(ctx context.Context) (string, error) { return s.url, nil }

func (s *stubSite) Query(ctx context.Context, xpath string) ([]schemas.Element, error) {
	return s.dom[xpath], nil
}

func (s *stubSite) WaitFor(ctx context.Context, xpath string, timeout time.Duration) ([]schemas.Element, error) {
	if els := s.dom[xpath]; len(els) > 0 {
		return els, nil
	}
	return nil, context.DeadlineExceeded
}

func (s *stubSite) WaitLocation(ctx context.Context, cond func(string) bool, timeout time.Duration) (string, error) {
	if cond(s.url) {
		return s.url, nil
	}
	return s.url, context.DeadlineExceeded
}

func (s *stubSite) Click(ctx context.Context, el schemas.Element) error {
	if el.Handle == "submit" {
		s.submitted = true
		return os.WriteFile(filepath.Join(s.dir, "installer.bin.crdownload"), []byte("part"), 0o644)
	}
	return nil
}

func (s *stubSite) Fill(ctx context.Context, el schemas.Element, text string) error { return nil }

// Value reports every form field as pre-filled by the site.
func (s *stubSite) Value(ctx context.Context, el schemas.Element) (string, error) {
	if v := el.Attr("value"); v != "" {
		return v, nil
	}
	return "prefilled", nil
}

func (s *stubSite) Options(ctx context.Context, el schemas.Element) ([]schemas.Option, error) {
	return []schemas.Option{{Value: "", Text: "Select"}, {Value: "prefilled", Text: "Prefilled", Selected: true}}, nil
}

func (s *stubSite) Select(ctx context.Context, el schemas.Element, value string) error { return nil }

func (s *stubSite) Close(ctx context.Context) error {
	s.closed++
	s.closeDeadline, _ = ctx.Deadline()
	return nil
}

// finish completes the partial download.
func (s *stubSite) finish() error {
	return os.Rename(filepath.Join(s.dir, "installer.bin.crdownload"), filepath.Join(s.dir, "installer.bin"))
}

// stepClock advances instantly and calls onSleep with the elapsed time.
type stepClock struct {
	now     time.Time
	elapsed time.Duration
	onSleep func(elapsed time.Duration)
}

func (c *stepClock) Now() time.Time { return c.now }

func (c *stepClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.now = c.now.Add(d)
	c.elapsed += d
	if c.onSleep != nil {
		c.onSleep(c.elapsed)
	}
	return nil
}

// refusingPrompter fails every question; the scenarios never need to ask.
type refusingPrompter struct{}

func (refusingPrompter) Credentials(ctx context.Context, email string) (navigator.Credentials, error) {
	return navigator.Credentials{}, fmt.Errorf("unexpected credentials prompt")
}

func (refusingPrompter) Choose(ctx context.Context, title string, choices []string) (int, error) {
	return -1, fmt.Errorf("unexpected choice %q", title)
}

func (refusingPrompter) Input(ctx context.Context, label string, optional bool) (string, error) {
	return "", fmt.Errorf("unexpected input %q", label)
}
