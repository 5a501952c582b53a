package content

import (
	"bytes"
	"regexp"
)

var (
	// Writers often leave out the space after the hashes of an ATX heading
	// ("##Title"). CommonMark then renders the line as a paragraph, so the
	// space is inserted.
	crammedHeading = regexp.MustCompile(`^( {0,3}#{1,6})([^#\s])`)

	// codeFence matches the opening or closing line of a fenced code block,
	// capturing the fence itself.
	codeFence = regexp.MustCompile("^ {0,3}(`{3,}|~{3,})")
)

// ScrubMarkdown normalizes Markdown written by hand into something CommonMark
// renders the way the author intended. Fenced code blocks are left untouched.
func ScrubMarkdown() TransformerFunc {
	return func(input []byte) ([]byte, error) {
		// Normalize to Unix line endings first
		input = bytes.ReplaceAll(input, []byte("\r\n"), []byte("\n"))
		input = bytes.ReplaceAll(input, []byte("\r"), []byte("\n"))

		lines := bytes.Split(input, []byte("\n"))
		var fence []byte
		for idx, line := range lines {
			if match := codeFence.FindSubmatch(line); match != nil {
				switch {
				case fence == nil:
					fence = match[1]
				case match[1][0] == fence[0] && len(match[1]) >= len(fence) &&
					len(bytes.TrimSpace(line[len(match[0]):])) == 0:
					fence = nil
				}
				continue
			}
			if fence != nil {
				continue
			}
			lines[idx] = crammedHeading.ReplaceAll(line, []byte("$1 $2"))
		}
		return bytes.Join(lines, []byte("\n")), nil
	}
}
