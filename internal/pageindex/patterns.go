package pageindex

import "regexp"

// Sentinel file names probed to select a layout convention.
const (
	numericHTMLSentinel  = "1.html"
	numericXHTMLSentinel = "1.xhtml"
)

// Fixed names of the optional lead and trail images, in probe order.
var (
	leadCandidates  = []string{"cover.jpg", "cover.png"}
	trailCandidates = []string{"createby.jpg", "createby.png"}
)

// These patterns are the file-format contract with the archive producer
// and must not be relaxed.
var (
	// numericPagePattern matches body page files of the numeric conventions
	// ("12.html", "12.xhtml"). The first group is the page index.
	numericPagePattern = regexp.MustCompile(`^([0-9]+)\.(html|xhtml)$`)

	// numericImagePattern is the image reference inside a numeric body page.
	numericImagePattern = regexp.MustCompile(`vol-[0-9]{6}\.(jpg|png)`)

	// manifestPagePattern is a page file listed in vol.opf.
	manifestPagePattern = regexp.MustCompile(`page-[0-9]{6}\.html`)

	// manifestImagePattern is the image reference inside a manifest page.
	manifestImagePattern = regexp.MustCompile(`moe-[0-9]{6}\.(jpg|png)`)
)
