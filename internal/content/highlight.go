package content

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// HighlightStyle is the chroma style used for code blocks and the generated
// stylesheet.
const HighlightStyle = "pygments"

// ClassCodeBlock wraps every highlighted code block.
const ClassCodeBlock = "codehilite"

var highlightFormatter = chromahtml.New(
	chromahtml.WithClasses(true),
	chromahtml.TabWidth(4), //nolint:mnd // conventional
)

// HighlightCSS returns the stylesheet matching the classes emitted for
// highlighted code blocks.
var HighlightCSS = sync.OnceValues(func() ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := highlightFormatter.WriteCSS(buf, styles.Get(HighlightStyle)); err != nil {
		return nil, fmt.Errorf("failed to generate highlight stylesheet: %w", err)
	}
	return buf.Bytes(), nil
})

// codeBlockRenderer renders fenced code blocks through chroma. The language is
// taken from the fence info string, falling back to content analysis.
type codeBlockRenderer struct {
	style *chroma.Style
}

func newCodeBlockRenderer() renderer.NodeRenderer {
	return &codeBlockRenderer{style: styles.Get(HighlightStyle)}
}

// RegisterFuncs satisfies [renderer.NodeRenderer].
func (r *codeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCodeBlock)
}

func (r *codeBlockRenderer) renderFencedCodeBlock(
	w util.BufWriter,
	source []byte,
	node ast.Node,
	entering bool,
) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	block := node.(*ast.FencedCodeBlock) //nolint:forcetypeassert // registered for this kind only

	var code bytes.Buffer
	lines := block.Lines()
	for i := range lines.Len() {
		line := lines.At(i)
		code.Write(line.Value(source))
	}

	lexer := lexers.Get(string(block.Language(source)))
	if lexer == nil {
		lexer = lexers.Analyse(code.String())
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	tokens, err := chroma.Coalesce(lexer).Tokenise(nil, code.String())
	if err != nil {
		return ast.WalkStop, fmt.Errorf("failed to tokenize code block: %w", err)
	}

	_, _ = w.WriteString(`<div class="` + ClassCodeBlock + `">`)
	if err = highlightFormatter.Format(w, r.style, tokens); err != nil {
		return ast.WalkStop, fmt.Errorf("failed to highlight code block: %w", err)
	}
	_, _ = w.WriteString("</div>\n")
	return ast.WalkSkipChildren, nil
}
