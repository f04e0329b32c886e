package navigator

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/vivado-fetch/api/schemas"
)

const stepLogin = "authenticate"

// authenticate signs in on the current page. A page that already left the
// sign-in host means the profile holds a live session and nothing is filled.
func (n *Navigator) authenticate(ctx context.Context, page schemas.Page) error {
	loc, err := page.Location(ctx)
	if err != nil {
		return navErr(PageUnreachable, stepLogin, err, "could not read location")
	}
	if !n.isLogin(loc) {
		n.logger.Info("Already signed in.", zap.String("url", loc))
		return nil
	}

	ids, err := page.WaitFor(ctx, n.sel.IdentifierInput, n.vendor.LoginTimeout)
	if err != nil {
		return navErr(PageUnreachable, stepLogin, err, "sign-in form did not load")
	}

	creds, err := n.prompter.Credentials(ctx, n.profile.Email)
	if err != nil {
		return navErr(LoginFailed, stepLogin, err, "no credentials")
	}
	if strings.TrimSpace(creds.Email) == "" || creds.Password == "" {
		return navErr(LoginFailed, stepLogin, nil, "e-mail and password are required")
	}

	if err := page.Fill(ctx, ids[0], creds.Email); err != nil {
		return navErr(LoginFailed, stepLogin, err, "could not enter e-mail")
	}

	// Identifier-first forms only reveal the password field after "Next".
	passwords, err := page.Query(ctx, n.sel.PasswordInput)
	if err != nil {
		return navErr(LoginFailed, stepLogin, err, "could not look up password field")
	}
	if len(passwords) == 0 {
		if err := n.submitLogin(ctx, page); err != nil {
			return err
		}
		if passwords, err = page.WaitFor(ctx, n.sel.PasswordInput, n.vendor.LoginTimeout); err != nil {
			return n.loginFailure(ctx, page, err)
		}
	}
	if err := page.Fill(ctx, passwords[0], creds.Password); err != nil {
		return navErr(LoginFailed, stepLogin, err, "could not enter password")
	}
	if err := n.submitLogin(ctx, page); err != nil {
		return err
	}

	url, err := page.WaitLocation(ctx, func(u string) bool { return !n.isLogin(u) }, n.vendor.LoginTimeout)
	if err != nil {
		return n.loginFailure(ctx, page, err)
	}
	n.logger.Info("Signed in.", zap.String("url", url))
	return nil
}

func (n *Navigator) submitLogin(ctx context.Context, page schemas.Page) error {
	buttons, err := page.Query(ctx, n.sel.LoginSubmit)
	if err != nil || len(buttons) == 0 {
		return navErr(LoginFailed, stepLogin, err, "sign-in form has no submit control")
	}
	if err := page.Click(ctx, buttons[0]); err != nil {
		return navErr(LoginFailed, stepLogin, err, "could not submit sign-in form")
	}
	return nil
}

// loginFailure builds the LOGIN_FAILED error, quoting the site's error banner if one shows.
func (n *Navigator) loginFailure(ctx context.Context, page schemas.Page, cause error) error {
	detail := "still on the sign-in page after submitting credentials"
	if banners, err := page.Query(ctx, n.sel.LoginError); err == nil {
		for _, b := range banners {
			if msg := strings.TrimSpace(b.Text); msg != "" {
				detail += ": " + msg
				break
			}
		}
	}
	return &NavError{Kind: LoginFailed, Step: stepLogin, Detail: detail, Err: cause}
}
