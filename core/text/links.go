package text

import (
	"bytes"
	"html"

	"github.com/siherrmann/hiersearch/model"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

var markdown = goldmark.New()

// ExtractLinks renders markdown to plain text and collects its hyperlinks.
// Markup, raw HTML and images are dropped, the text of a link is kept in place.
// Link.Start is the byte offset of the link text in the returned text.
func ExtractLinks(raw string) (string, []model.Link) {
	source := []byte(raw)
	doc := markdown.Parser().Parse(gmtext.NewReader(source))

	var out bytes.Buffer
	var links []model.Link
	var open []int

	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Text:
			if entering {
				out.Write(textValue(node, source))
				if node.HardLineBreak() {
					out.WriteByte('\n')
				} else if node.SoftLineBreak() {
					out.WriteByte(' ')
				}
			}
		case *ast.String:
			if entering {
				out.Write(node.Value)
			}
		case *ast.Link:
			if entering {
				open = append(open, out.Len())
			} else {
				start := open[len(open)-1]
				open = open[:len(open)-1]
				links = append(links, model.Link{
					Path:  string(node.Destination),
					Start: start,
					Name:  out.String()[start:],
				})
			}
		case *ast.AutoLink:
			if entering {
				label := string(node.Label(source))
				links = append(links, model.Link{
					Path:  string(node.URL(source)),
					Start: out.Len(),
					Name:  label,
				})
				out.WriteString(label)
			}
			return ast.WalkSkipChildren, nil
		case *ast.Image, *ast.RawHTML, *ast.HTMLBlock:
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if entering {
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					segment := lines.At(i)
					out.Write(segment.Value(source))
				}
				out.WriteByte('\n')
			}
			return ast.WalkSkipChildren, nil
		default:
			if !entering && n.Type() == ast.TypeBlock {
				out.WriteByte('\n')
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		// The walker never fails, keep the raw text if it ever does.
		return raw, nil
	}

	return out.String(), links
}

func textValue(node *ast.Text, source []byte) []byte {
	value := node.Segment.Value(source)
	if node.IsRaw() {
		return value
	}
	return []byte(html.UnescapeString(string(util.UnescapePunctuations(value))))
}
