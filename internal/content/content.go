// Package content contains transformers that render journal entries and
// import existing documents as entries.
package content

import (
	"fmt"
	"mime"
)

var (
	// Individual transformers.
	scrubMarkdown   = ScrubMarkdown()
	markdownToHTML  = MarkdownToHTML()
	htmlToMarkdown  = HTMLToMarkdown()
	sanitizeHTML    = SanitizeHTML()
	extractHTMLBody = ExtractHTMLBody()
	normalizeNBSP   = NormalizeNBSP()

	// Pre-composed pipelines. UTF8 conversion is handled separately in
	// Import since it depends on the input charset.
	renderPipeline         = Chain(scrubMarkdown, markdownToHTML, sanitizeHTML)
	markdownImportPipeline = scrubMarkdown
	htmlImportPipeline     = Chain(
		normalizeNBSP, extractHTMLBody, sanitizeHTML, htmlToMarkdown,
	)
)

// Render converts the Markdown source of an entry into sanitized HTML with
// highlighted code blocks.
func Render(markdown string) (string, error) {
	output, err := renderPipeline([]byte(markdown))
	if err != nil {
		return "", err
	}
	return string(output), nil
}

// Import converts a document of the given content type into Markdown suitable
// for storing as an entry. HTML documents are sanitized and converted; plain
// text and Markdown are only normalized.
func Import(contentType string, input []byte) ([]byte, error) {
	mimeType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to parse content mime type %q: %w", contentType, err)
	}

	input, err = UTF8Transformer(contentType)(input)
	if err != nil {
		return nil, err
	}

	switch mimeType {
	case "text/html", "application/xhtml+xml":
		return htmlImportPipeline(input)
	case "text/plain", "text/markdown", "text/x-markdown":
		return markdownImportPipeline(input)
	default:
		return nil, fmt.Errorf("unsupported content type %q", mimeType)
	}
}
