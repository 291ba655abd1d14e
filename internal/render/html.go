// ABOUTME: HTML renderer for side-by-side diffs and markdown
// ABOUTME: Gutters and +/- prefixes are stripped so only colour carries the change

package render

import (
	"bytes"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// strippedClasses are removed from rendered diffs together with their content
var strippedClasses = []string{
	"d2h-file-header",
	"d2h-info",
	"d2h-code-linenumber",
	"d2h-code-side-linenumber",
	"d2h-code-line-prefix",
}

// HTML renders diffs and markdown as HTML fragments
type HTML struct {
	md goldmark.Markdown
}

// NewHTML creates an HTML renderer with GitHub flavoured markdown
func NewHTML() *HTML {
	return &HTML{
		md: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// Diff renders original and improved side by side
func (r *HTML) Diff(original, improved string) string {
	raw := diffHTML(computeHunks(original, improved))
	cleaned, err := stripDiffChrome(raw)
	if err != nil {
		slog.Debug("Diff post-processing failed", "error", err)
		return ""
	}
	return cleaned
}

// Markdown converts src to HTML
func (r *HTML) Markdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func diffHTML(hunks []Hunk) string {
	var b strings.Builder
	b.WriteString(`<div class="d2h-wrapper"><div class="d2h-file-wrapper">`)
	b.WriteString(`<div class="d2h-file-header"><span class="d2h-file-name">text</span></div>`)
	b.WriteString(`<div class="d2h-files-diff">`)
	writeSide(&b, hunks, func(r Row) *Cell { return r.Left }, "d2h-del", "-")
	writeSide(&b, hunks, func(r Row) *Cell { return r.Right }, "d2h-ins", "+")
	b.WriteString(`</div></div></div>`)
	return b.String()
}

func writeSide(b *strings.Builder, hunks []Hunk, side func(Row) *Cell, changeClass, prefix string) {
	b.WriteString(`<div class="d2h-file-side-diff"><div class="d2h-code-wrapper"><table class="d2h-diff-table"><tbody class="d2h-diff-tbody">`)
	for _, h := range hunks {
		b.WriteString(`<tr><td class="d2h-code-side-linenumber d2h-info"></td><td class="d2h-info"><div class="d2h-code-side-line">`)
		b.WriteString(html.EscapeString(h.Header))
		b.WriteString(`</div></td></tr>`)

		for _, row := range h.Rows {
			cell := side(row)
			class, marker := "d2h-cntx", " "
			switch {
			case cell == nil:
				class = "d2h-emptyplaceholder"
			case row.Kind != RowContext:
				class, marker = changeClass, prefix
			}

			b.WriteString(`<tr><td class="d2h-code-side-linenumber `)
			b.WriteString(class)
			b.WriteString(`">`)
			if cell != nil {
				b.WriteString(strconv.Itoa(cell.LineNo))
			}
			b.WriteString(`</td><td class="`)
			b.WriteString(class)
			b.WriteString(`"><div class="d2h-code-side-line"><span class="d2h-code-line-prefix">`)
			b.WriteString(marker)
			b.WriteString(`</span><span class="d2h-code-line-ctn">`)
			if cell != nil {
				writeSegments(b, cell.Segments, changeClass)
			}
			b.WriteString(`</span></div></td></tr>`)
		}
	}
	b.WriteString(`</tbody></table></div></div>`)
}

func writeSegments(b *strings.Builder, segs []Segment, changeClass string) {
	tag := "del"
	if changeClass == "d2h-ins" {
		tag = "ins"
	}
	for _, s := range segs {
		text := html.EscapeString(s.Text)
		if !s.Changed {
			b.WriteString(text)
			continue
		}
		b.WriteString("<" + tag + ">" + text + "</" + tag + ">")
	}
}

// stripDiffChrome removes gutters, prefixes and headers from a rendered diff
func stripDiffChrome(fragment string) (string, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, n := range nodes {
		removeMatching(n)
		if err := html.Render(&b, n); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

func removeMatching(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode && hasStrippedClass(c) {
			n.RemoveChild(c)
		} else {
			removeMatching(c)
			if c.DataAtom == atom.Tr && c.FirstChild == nil {
				n.RemoveChild(c)
			}
		}
		c = next
	}
}

func hasStrippedClass(n *html.Node) bool {
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, class := range strings.Fields(attr.Val) {
			if slices.Contains(strippedClasses, class) {
				return true
			}
		}
	}
	return false
}
