package navigator

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/vivado-fetch/api/schemas"
	"github.com/xkilldash9x/vivado-fetch/internal/config"
)

// formField is one input of the export compliance form.
type formField struct {
	label    string
	name     string
	isSelect bool
	optional bool
	value    func(config.ProfileConfig) string
	// override replaces the expression derived from name.
	override string
}

func complianceFields() []formField {
	return []formField{
		{label: "First Name", name: "First_Name", value: func(p config.ProfileConfig) string { return p.FirstName }},
		{label: "Last Name", name: "Last_Name", value: func(p config.ProfileConfig) string { return p.LastName }},
		{label: "Company", name: "Company", value: func(p config.ProfileConfig) string { return p.Company }},
		{label: "Address 1", name: "Address_1", value: func(p config.ProfileConfig) string { return p.Address1 }},
		{label: "Address 2", name: "Address_2", optional: true, value: func(p config.ProfileConfig) string { return p.Address2 }},
		{label: "Location", name: "Country", isSelect: true, value: func(p config.ProfileConfig) string { return p.Country }},
		// Required for some countries; becomes a select once the country is set.
		{label: "State/Province", name: "State", optional: true, value: func(p config.ProfileConfig) string { return p.State }},
		{label: "City", name: "City", value: func(p config.ProfileConfig) string { return p.City }},
		{label: "Postal Code", name: "Zip_Code", optional: true, value: func(p config.ProfileConfig) string { return p.PostalCode }},
		{label: "Phone", name: "Phone", optional: true, value: func(p config.ProfileConfig) string { return p.Phone }},
		{label: "Job Function", name: "Job_Function", isSelect: true, value: func(p config.ProfileConfig) string { return p.JobFunction }},
	}
}

func (f formField) xpath() string {
	if f.override != "" {
		return f.override
	}
	if f.isSelect {
		return fmt.Sprintf(`//select[@name=%q]`, f.name)
	}
	return fmt.Sprintf(`//input[@name=%q]`, f.name)
}

// fillForm completes the export compliance form. A configured profile value
// wins; otherwise whatever the site pre-filled stays; otherwise required
// fields are asked for.
func (n *Navigator) fillForm(ctx context.Context, page schemas.Page) error {
	fields := complianceFields()
	if _, err := page.WaitFor(ctx, fields[0].xpath(), n.vendor.PageTimeout); err != nil {
		return navErr(PageUnreachable, stepTrigger, err, "export compliance form did not load")
	}

	for i := 0; i < len(fields); i++ {
		f := fields[i]
		els, err := page.Query(ctx, f.xpath())
		if err != nil {
			return navErr(PageUnreachable, stepTrigger, err, "could not look up %s", f.label)
		}
		if len(els) == 0 {
			if f.optional {
				continue
			}
			return navErr(PageUnreachable, stepTrigger, nil, "form has no %s field", f.label)
		}

		if f.isSelect {
			err = n.fillSelect(ctx, page, f, els[0])
		} else {
			err = n.fillInput(ctx, page, f, els[0])
		}
		if err != nil {
			return err
		}

		if f.name == "Country" {
			// Some countries swap the free text state for a mandatory select.
			if states, err := page.Query(ctx, n.sel.EnabledState); err == nil && len(states) > 0 {
				for j := i + 1; j < len(fields); j++ {
					if fields[j].name == "State" {
						fields[j].isSelect = true
						fields[j].optional = false
						fields[j].override = n.sel.EnabledState
						break
					}
				}
			}
		}
	}
	return nil
}

func (n *Navigator) fillInput(ctx context.Context, page schemas.Page, f formField, el schemas.Element) error {
	want := strings.TrimSpace(f.value(n.profile))
	if want == "" {
		current, err := page.Value(ctx, el)
		if err == nil && strings.TrimSpace(current) != "" {
			n.logger.Debug("Keeping pre-filled value.", zap.String("field", f.label))
			return nil
		}
		if f.optional {
			return nil
		}
		if want, err = n.prompter.Input(ctx, f.label, f.optional); err != nil {
			return navErr(PageUnreachable, stepTrigger, err, "no value for %s", f.label)
		}
		if want = strings.TrimSpace(want); want == "" {
			return navErr(PageUnreachable, stepTrigger, nil, "%s is required", f.label)
		}
	}
	if err := page.Fill(ctx, el, want); err != nil {
		return navErr(PageUnreachable, stepTrigger, err, "could not fill %s", f.label)
	}
	return nil
}

func (n *Navigator) fillSelect(ctx context.Context, page schemas.Page, f formField, el schemas.Element) error {
	opts, err := page.Options(ctx, el)
	if err != nil {
		return navErr(PageUnreachable, stepTrigger, err, "could not read %s options", f.label)
	}

	if want := strings.TrimSpace(f.value(n.profile)); want != "" {
		for _, o := range opts {
			if strings.EqualFold(o.Value, want) || strings.EqualFold(o.Text, want) {
				return n.selectOption(ctx, page, f, el, o.Value)
			}
		}
		n.logger.Warn("Configured value is not offered.", zap.String("field", f.label), zap.String("value", want))
	}

	if current, err := page.Value(ctx, el); err == nil && strings.TrimSpace(current) != "" {
		n.logger.Debug("Keeping pre-selected value.", zap.String("field", f.label))
		return nil
	}
	if f.optional {
		return nil
	}

	// The first option is the "please select" placeholder.
	choices := opts
	if len(choices) > 0 && strings.TrimSpace(choices[0].Value) == "" {
		choices = choices[1:]
	}
	if len(choices) == 0 {
		return navErr(PageUnreachable, stepTrigger, nil, "%s offers no options", f.label)
	}
	texts := make([]string, len(choices))
	for i, o := range choices {
		texts[i] = o.Text
	}
	idx, err := n.prompter.Choose(ctx, f.label, texts)
	if err != nil || idx < 0 || idx >= len(choices) {
		return navErr(PageUnreachable, stepTrigger, err, "no choice for %s", f.label)
	}
	return n.selectOption(ctx, page, f, el, choices[idx].Value)
}

func (n *Navigator) selectOption(ctx context.Context, page schemas.Page, f formField, el schemas.Element, value string) error {
	if err := page.Select(ctx, el, value); err != nil {
		return navErr(PageUnreachable, stepTrigger, err, "could not select %s", f.label)
	}
	return nil
}
