package navigator

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/xkilldash9x/vivado-fetch/api/schemas"
	"github.com/xkilldash9x/vivado-fetch/internal/version"
)

const stepLocate = "locate version"

// Candidate is one downloadable file listed for the requested version.
type Candidate struct {
	Group string
	Title string
	// Size is the listing's size text, e.g. "107.89 GB".
	Size  string
	Bytes int64
	Href  string
}

func (c Candidate) String() string {
	s := c.Title
	if c.Group != "" {
		s = c.Group + ": " + s
	}
	if c.Size != "" {
		s += " (" + c.Size + ")"
	}
	return s
}

// locateVersion finds the listing entry for want and opens it. It returns
// the expression matching the download groups of that version.
func (n *Navigator) locateVersion(ctx context.Context, page schemas.Page, want string) (string, error) {
	tabs, err := page.WaitFor(ctx, n.sel.VersionTabs, n.vendor.PageTimeout)
	if err != nil {
		return "", navErr(PageUnreachable, stepLocate, err, "version list did not load")
	}

	labels := make([]string, len(tabs))
	for i, tab := range tabs {
		labels[i] = tab.Text
	}

	if idx, kind := version.Select(want, labels); kind != version.NoMatch {
		n.logger.Info("Found version entry.",
			zap.String("want", want),
			zap.String("label", labels[idx]),
			zap.Bool("exact", kind == version.ExactMatch),
		)
		if err := n.openTab(ctx, page, tabs[idx]); err != nil {
			return "", err
		}
		return n.sel.DownloadGroups, nil
	}

	requested, err := version.Parse(want)
	if err != nil {
		return "", navErr(VersionNotFound, stepLocate, err, "unusable version")
	}
	if highest, ok := version.Highest(labels); ok && requested.Newer(highest) {
		return "", navErr(VersionNotFound, stepLocate, nil,
			"version %s is not available, highest version available is %s", want, highest)
	}

	archiveIdx := -1
	for i, label := range labels {
		if version.Normalize(label) == n.sel.ArchiveLabel {
			archiveIdx = i
			break
		}
	}
	if archiveIdx < 0 {
		return "", navErr(VersionNotFound, stepLocate, nil, "version %s is not listed and there is no archive", want)
	}

	n.logger.Info("Version not on the main list, searching the archive.", zap.String("want", want))
	if err := n.openTab(ctx, page, tabs[archiveIdx]); err != nil {
		return "", err
	}
	return n.expandArchive(ctx, page, want)
}

func (n *Navigator) openTab(ctx context.Context, page schemas.Page, tab schemas.Element) error {
	href := tab.Attr("href")
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
		if err := page.Click(ctx, tab); err != nil {
			return navErr(PageUnreachable, stepLocate, err, "could not open %q", tab.Text)
		}
		return nil
	}
	target := resolve(ctx, page, href)
	if err := page.Navigate(ctx, target); err != nil {
		return navErr(PageUnreachable, stepLocate, err, "could not load %s", target)
	}
	return nil
}

func (n *Navigator) expandArchive(ctx context.Context, page schemas.Page, want string) (string, error) {
	toggles, err := page.WaitFor(ctx, n.sel.ArchiveToggle, n.vendor.PageTimeout)
	if err != nil {
		return "", navErr(VersionNotFound, stepLocate, err, "archive lists no versions")
	}
	labels := make([]string, len(toggles))
	for i, t := range toggles {
		labels[i] = t.Text
	}
	idx, kind := version.Select(want, labels)
	if kind == version.NoMatch {
		return "", navErr(VersionNotFound, stepLocate, nil, "version %s is not in the archive", want)
	}

	if err := page.Click(ctx, toggles[idx]); err != nil {
		return "", navErr(PageUnreachable, stepLocate, err, "could not expand archive entry %q", labels[idx])
	}
	expanded := nth(n.sel.ArchiveToggle, idx) + `[@aria-expanded="true"]`
	if _, err := page.WaitFor(ctx, expanded, n.vendor.PageTimeout); err != nil {
		return "", navErr(PageUnreachable, stepLocate, err, "archive entry %q did not expand", labels[idx])
	}
	return n.sel.ArchiveDownloadGroups, nil
}

// candidates lists the files of the opened version. Links outside the
// version (documentation, other releases) are skipped.
func (n *Navigator) candidates(ctx context.Context, page schemas.Page, groupsXPath, want string) ([]Candidate, error) {
	groups, err := page.WaitFor(ctx, groupsXPath, n.vendor.PageTimeout)
	if err != nil {
		return nil, navErr(VersionNotFound, stepLocate, err, "no files found for version %s", want)
	}

	var out []Candidate
	for gi := range groups {
		group := nth(groupsXPath, gi)

		header := ""
		if hs, err := page.Query(ctx, child(group, n.sel.GroupHeader)); err == nil && len(hs) > 0 {
			header = strings.TrimSpace(hs[0].Text)
		}

		linksXPath := child(group, n.sel.GroupLinks)
		links, err := page.Query(ctx, linksXPath)
		if err != nil {
			return nil, navErr(PageUnreachable, stepLocate, err, "could not read download links")
		}
		for li, link := range links {
			href := link.Attr("href")
			if !strings.Contains(href, want) && !strings.Contains(href, n.sel.DownloadFormPath) {
				continue
			}
			c := Candidate{
				Group: header,
				Title: strings.TrimSpace(link.Attr("data-original-title")),
				Href:  resolve(ctx, page, href),
			}
			if c.Title == "" {
				c.Title = strings.TrimSpace(link.Text)
			}
			if infos, err := page.Query(ctx, child(nth(linksXPath, li), n.sel.LinkSize)); err == nil && len(infos) > 0 {
				c.Size, c.Bytes = parseListedSize(infos[0].Text)
			}
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return nil, navErr(VersionNotFound, stepLocate, nil, "no files found for version %s", want)
	}
	return out, nil
}

// parseListedSize reads the trailing size of a file info line such as
// "(MD5 SUM Value : 0123abcd - 107.89 GB)".
func parseListedSize(info string) (string, int64) {
	parts := strings.Split(info, "-")
	s := strings.TrimSpace(parts[len(parts)-1])
	s = strings.TrimSpace(strings.TrimRight(s, ")"))
	if s == "" {
		return "", 0
	}
	b, err := humanize.ParseBytes(s)
	if err != nil {
		return s, 0
	}
	return s, int64(b)
}

// choose picks a candidate by 1-based index, by title substring or by
// asking the operator.
func (n *Navigator) choose(ctx context.Context, cands []Candidate, selector, want string) (Candidate, error) {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		choices := make([]string, len(cands))
		for i, c := range cands {
			choices[i] = c.String()
		}
		idx, err := n.prompter.Choose(ctx, fmt.Sprintf("Found %d files for version %s", len(cands), want), choices)
		if err != nil {
			return Candidate{}, navErr(VersionNotFound, stepLocate, err, "no file chosen")
		}
		if idx < 0 || idx >= len(cands) {
			return Candidate{}, navErr(VersionNotFound, stepLocate, nil, "choice %d out of range", idx+1)
		}
		return cands[idx], nil
	}

	if i, err := strconv.Atoi(selector); err == nil {
		if i < 1 || i > len(cands) {
			return Candidate{}, navErr(VersionNotFound, stepLocate, nil, "file %d out of range [1-%d]", i, len(cands))
		}
		return cands[i-1], nil
	}
	needle := strings.ToLower(selector)
	for _, c := range cands {
		if strings.Contains(strings.ToLower(c.Title), needle) {
			return c, nil
		}
	}
	return Candidate{}, navErr(VersionNotFound, stepLocate, nil, "no file of version %s matches %q", want, selector)
}
