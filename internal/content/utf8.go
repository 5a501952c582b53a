package content

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// utf8BOM is the UTF-8 byte order mark that some editors add to files.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// minChardetConfidence is the minimum confidence chardet must report before
// its guess replaces the Windows-1252 fallback.
const minChardetConfidence = 50

// UTF8Transformer decodes input into UTF-8 and strips any byte order mark.
// The encoding is taken from a BOM, the charset parameter of contentType or
// an HTML meta tag. Invalid UTF-8 without any of these hints is guessed
// statistically.
func UTF8Transformer(contentType string) TransformerFunc {
	return func(input []byte) ([]byte, error) {
		enc, name, certain := charset.DetermineEncoding(input, contentType)
		if !certain && !utf8.Valid(input) {
			if guessed, guessedName, ok := guessEncoding(input); ok {
				enc, name = guessed, guessedName
			}
			slog.Debug("guessed document encoding",
				slog.String("encoding", name),
				slog.String("content_type", contentType))
		}

		if enc != encoding.Nop && enc != unicode.UTF8 {
			decoded, err := enc.NewDecoder().Bytes(input)
			if err != nil {
				return nil, fmt.Errorf("failed to decode %s to UTF-8: %w", name, err)
			}
			input = decoded
		}
		return bytes.TrimPrefix(input, utf8BOM), nil
	}
}

func guessEncoding(input []byte) (encoding.Encoding, string, bool) {
	result, err := chardet.NewTextDetector().DetectBest(input)
	if err != nil || result.Confidence < minChardetConfidence {
		return nil, "", false
	}
	enc, err := htmlindex.Get(strings.ToLower(result.Charset))
	if err != nil {
		return nil, "", false
	}
	return enc, result.Charset, true
}
