package navigator

import "fmt"

// Selectors holds the XPath expressions describing the vendor pages.
// Relative expressions (starting with an axis) are appended to an indexed
// absolute one, since a Page only evaluates against the whole document.
type Selectors struct {
	IdentifierInput string
	PasswordInput   string
	LoginSubmit     string
	LoginError      string

	VersionTabs   string
	ArchiveLabel  string
	ArchiveToggle string

	DownloadGroups        string
	ArchiveDownloadGroups string
	GroupHeader           string
	GroupLinks            string
	LinkSize              string
	DownloadFormPath      string

	FormSubmit    string
	FilenameInput string
	EnabledState  string
}

// DefaultSelectors matches the AMD sign-in and Xilinx download center markup.
func DefaultSelectors() Selectors {
	return Selectors{
		IdentifierInput: `//input[@name="identifier"]`,
		PasswordInput:   `//input[@type="password"]`,
		LoginSubmit:     `//input[@type="submit"]`,
		LoginError:      `//div[contains(@class, "error") or contains(@class, "Error") or contains(@class, "ERROR")]`,

		VersionTabs:   `//div[contains(@class, "tabs-left")]/ul[contains(@class, "nav")]/descendant::a`,
		ArchiveLabel:  "vivado archive",
		ArchiveToggle: `//button[contains(@data-toggle, "collapse")]`,

		DownloadGroups:        `//div[contains(@class, "xilinxDCDownloadGroup")]`,
		ArchiveDownloadGroups: `//div[contains(@id, "collapse") and @aria-expanded="true"]/descendant::div[contains(@class, "xilinxDCDownloadGroup")]`,
		GroupHeader:           `descendant::div[@class="row"]/div/h2`,
		GroupLinks:            `descendant::li[@class="download-links"]/descendant::a[not(@class)]`,
		LinkSize:              `parent::p/child::span[contains(@class, "subdued")]`,
		DownloadFormPath:      "member/forms/download",

		FormSubmit:    `//button[@type="SUBMIT" or @type="submit" or @type="Submit"]`,
		FilenameInput: `//input[@name="filename" and @type="hidden"]`,
		EnabledState:  `//select[@name="State" and not(@disabled)]`,
	}
}

// nth selects the i-th (0-based) match of xpath.
func nth(xpath string, i int) string {
	return fmt.Sprintf("(%s)[%d]", xpath, i+1)
}

// child appends a relative step to an absolute expression.
func child(xpath, rel string) string {
	return xpath + "/" + rel
}
