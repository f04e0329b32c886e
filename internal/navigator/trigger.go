package navigator

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/vivado-fetch/api/schemas"
	"github.com/xkilldash9x/vivado-fetch/internal/config"
)

const stepTrigger = "trigger download"

// trigger picks the file, passes the export compliance form and submits it.
// The browser then downloads on its own.
func (n *Navigator) trigger(ctx context.Context, page schemas.Page, rc config.RunConfig, groupsXPath string) (schemas.TriggerResult, error) {
	cands, err := n.candidates(ctx, page, groupsXPath, rc.Version)
	if err != nil {
		return schemas.TriggerResult{}, err
	}
	for i, c := range cands {
		n.logger.Debug("Listed file.", zap.Int("index", i+1), zap.String("file", c.String()))
	}

	chosen, err := n.choose(ctx, cands, rc.File, rc.Version)
	if err != nil {
		return schemas.TriggerResult{}, err
	}
	n.logger.Info("Selected file.", zap.String("title", chosen.Title), zap.String("size", chosen.Size))

	if err := page.Navigate(ctx, chosen.Href); err != nil {
		return schemas.TriggerResult{}, navErr(PageUnreachable, stepTrigger, err, "could not open %s", chosen.Href)
	}

	// Gated links bounce through the sign-in page again.
	if loc, err := page.Location(ctx); err == nil && n.isLogin(loc) {
		n.logger.Info("Authentication is required for the download.")
		if err := n.authenticate(ctx, page); err != nil {
			return schemas.TriggerResult{}, err
		}
	}

	if err := n.fillForm(ctx, page); err != nil {
		return schemas.TriggerResult{}, err
	}

	filename := ""
	if hidden, err := page.Query(ctx, n.sel.FilenameInput); err == nil && len(hidden) > 0 {
		if v, err := page.Value(ctx, hidden[0]); err == nil {
			filename = strings.TrimSpace(v)
		} else {
			filename = strings.TrimSpace(hidden[0].Attr("value"))
		}
	}

	buttons, err := page.Query(ctx, n.sel.FormSubmit)
	if err != nil || len(buttons) == 0 {
		return schemas.TriggerResult{}, navErr(PageUnreachable, stepTrigger, err, "download form has no submit control")
	}
	if err := page.Click(ctx, buttons[0]); err != nil {
		return schemas.TriggerResult{}, navErr(PageUnreachable, stepTrigger, err, "could not submit download form")
	}

	n.logger.Info("Download requested.", zap.String("file", filename))
	return schemas.TriggerResult{
		FileName:     filename,
		ExpectedSize: chosen.Bytes,
		Title:        chosen.Title,
	}, nil
}
