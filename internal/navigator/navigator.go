// Package navigator drives the vendor site from sign-in to the point where
// the browser starts downloading the chosen installer.
package navigator

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/vivado-fetch/api/schemas"
	"github.com/xkilldash9x/vivado-fetch/internal/config"
)

// Credentials are the vendor account login.
type Credentials struct {
	Email    string
	Password string
}

// Prompter asks the operator for what configuration cannot supply.
type Prompter interface {
	// Credentials asks for the account login. email pre-fills the address.
	Credentials(ctx context.Context, email string) (Credentials, error)
	// Choose shows the choices and returns the 0-based index picked.
	Choose(ctx context.Context, title string, choices []string) (int, error)
	// Input asks for a single free text value.
	Input(ctx context.Context, label string, optional bool) (string, error)
}

// Navigator runs the sign-in, lookup and trigger steps against a Page.
type Navigator struct {
	vendor   config.VendorConfig
	profile  config.ProfileConfig
	sel      Selectors
	prompter Prompter
	logger   *zap.Logger
}

// New creates a Navigator.
func New(vendor config.VendorConfig, profile config.ProfileConfig, prompter Prompter, logger *zap.Logger) *Navigator {
	return &Navigator{
		vendor:   vendor,
		profile:  profile,
		sel:      DefaultSelectors(),
		prompter: prompter,
		logger:   logger.Named("navigator"),
	}
}

// Run executes the flow in order: open the sign-in page, authenticate, open
// the downloads listing, locate the version, trigger the download. Each step
// must succeed before the next one starts.
func (n *Navigator) Run(ctx context.Context, page schemas.Page, rc config.RunConfig) (schemas.TriggerResult, error) {
	if err := n.openLogin(ctx, page); err != nil {
		return schemas.TriggerResult{}, err
	}
	if err := n.authenticate(ctx, page); err != nil {
		return schemas.TriggerResult{}, err
	}
	if err := n.openListing(ctx, page); err != nil {
		return schemas.TriggerResult{}, err
	}
	groups, err := n.locateVersion(ctx, page, rc.Version)
	if err != nil {
		return schemas.TriggerResult{}, err
	}
	return n.trigger(ctx, page, rc, groups)
}

func (n *Navigator) openLogin(ctx context.Context, page schemas.Page) error {
	n.logger.Info("Opening sign-in page.", zap.String("url", n.vendor.LoginURL))
	if err := page.Navigate(ctx, n.vendor.LoginURL); err != nil {
		return navErr(PageUnreachable, "open login page", err, "could not load %s", n.vendor.LoginURL)
	}
	return nil
}

func (n *Navigator) openListing(ctx context.Context, page schemas.Page) error {
	n.logger.Info("Opening downloads listing.", zap.String("url", n.vendor.DownloadsURL))
	if err := page.Navigate(ctx, n.vendor.DownloadsURL); err != nil {
		return navErr(PageUnreachable, "open downloads listing", err, "could not load %s", n.vendor.DownloadsURL)
	}
	return nil
}

func (n *Navigator) isLogin(u string) bool {
	return strings.Contains(strings.ToLower(u), strings.ToLower(n.vendor.LoginMarker))
}

// resolve turns a possibly relative href into an absolute URL using the
// current document location.
func resolve(ctx context.Context, page schemas.Page, href string) string {
	ref, err := url.Parse(href)
	if err != nil || ref.IsAbs() {
		return href
	}
	loc, err := page.Location(ctx)
	if err != nil {
		return href
	}
	base, err := url.Parse(loc)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
