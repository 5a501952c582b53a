package content

import (
	"bytes"
	"fmt"
	"regexp"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// ExtractHTMLBody extracts just the body content from a full HTML document.
// If no body tag exists, returns the input unchanged.
func ExtractHTMLBody() TransformerFunc {
	return func(input []byte) ([]byte, error) {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(input))
		if err != nil {
			return nil, fmt.Errorf("failed to parse HTML document: %w", err)
		}
		body := doc.Find("body")
		if body.Length() == 0 {
			return input, nil
		}
		innerHTML, err := body.Html()
		if err != nil {
			return nil, fmt.Errorf("failed to extract HTML body: %w", err)
		}
		return []byte(innerHTML), nil
	}
}

var (
	// nbspPattern matches both the HTML entity &nbsp; (case insensitive) and
	// the actual unicode non-breaking space character (U+00A0).
	nbspPattern = regexp.MustCompile("(?i)&nbsp;|\xc2\xa0")

	// detailsOpenAttr matches the valid values for the details element's open
	// attribute (empty string or "open", case insensitive).
	detailsOpenAttr = regexp.MustCompile(`(?i)^(|open)$`)

	// highlightClass matches the class names emitted by the code highlighter
	// and the language hints goldmark adds to unhighlighted code.
	highlightClass = regexp.MustCompile(`^[a-zA-Z0-9_ -]+$`)
)

// NormalizeNBSP replaces non-breaking space entities and characters with
// regular spaces. Operates on raw input before HTML parsing.
func NormalizeNBSP() TransformerFunc {
	return func(input []byte) ([]byte, error) {
		return nbspPattern.ReplaceAll(input, []byte{' '}), nil
	}
}

// SanitizeHTML applies sanitization rules to HTML input, stripping unsupported
// tags and attributes.
func SanitizeHTML() TransformerFunc {
	htmlSanitizer := sanitizer()
	return func(input []byte) ([]byte, error) {
		return htmlSanitizer.SanitizeBytes(input), nil
	}
}

// Element groups allowed in rendered entries.
var (
	sectioningElements = []string{
		"article", "aside", "details", "figcaption", "figure", "hgroup",
		"section", "summary",
	}
	headingElements = []string{"h1", "h2", "h3", "h4", "h5", "h6"}
	textElements    = []string{
		"abbr", "acronym", "b", "bdi", "bdo", "blockquote", "br", "cite",
		"del", "dfn", "em", "hr", "i", "ins", "mark", "p", "q", "rp", "rt",
		"ruby", "s", "small", "strike", "strong", "sub", "sup", "time", "u",
		"wbr",
	}
	// codeElements carry the markup of highlighted and inline code.
	codeElements = []string{"code", "div", "kbd", "pre", "samp", "span", "tt", "var"}
)

// sanitizer builds the policy applied to every rendered entry and imported
// document. It follows [bluemonday.UGCPolicy] with these changes:
//
//   - links open in a new tab without a referrer
//   - class attributes survive on code containers so highlighting works
//   - no map/area or meter/progress elements
func sanitizer() *bluemonday.Policy {
	policy := bluemonday.NewPolicy()

	policy.AllowStandardAttributes()
	policy.AllowStandardURLs()
	policy.RequireNoReferrerOnLinks(true)
	policy.AddTargetBlankToFullyQualifiedLinks(true)

	for _, group := range [][]string{sectioningElements, headingElements, textElements, codeElements} {
		policy.AllowElements(group...)
	}

	policy.AllowAttrs("class").Matching(highlightClass).OnElements("div", "pre", "code", "span")
	policy.AllowAttrs("open").Matching(detailsOpenAttr).OnElements("details")
	policy.AllowAttrs("cite").OnElements("blockquote", "q")
	policy.AllowAttrs("cite").Matching(bluemonday.Paragraph).OnElements("del", "ins")
	policy.AllowAttrs("datetime").Matching(bluemonday.ISO8601).OnElements("del", "ins", "time")
	policy.AllowAttrs("href").OnElements("a")

	policy.AllowImages()
	policy.AllowLists()
	policy.AllowTables()

	return policy
}
