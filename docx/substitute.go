package docx

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Fields maps placeholder names (without braces) to replacement text.
type Fields map[string]string

// Placeholder returns the token for name, e.g. "{{WOCHE}}".
func Placeholder(name string) string {
	return "{{" + name + "}}"
}

// =============================================================================
// TEXT STYLE
// =============================================================================

// TextStyle is applied to every run that receives a substituted value.
type TextStyle struct {
	FontName  string
	Size      decimal.Decimal // points
	Bold      bool
	Italic    bool
	Underline bool
}

// DefaultStyle is Arial 10pt, regular.
func DefaultStyle() TextStyle {
	return TextStyle{FontName: "Arial", Size: decimal.NewFromInt(10)}
}

// HalfPoints converts Size to the unit of w:sz.
func (s TextStyle) HalfPoints() string {
	return s.Size.Mul(decimal.NewFromInt(2)).Round(0).String()
}

// run properties replaced by apply
var styleTags = map[string]bool{
	"w:rFonts": true,
	"w:b":      true,
	"w:bCs":    true,
	"w:i":      true,
	"w:iCs":    true,
	"w:sz":     true,
	"w:szCs":   true,
	"w:u":      true,
}

// rPrOrder is the child sequence of w:rPr (CT_RPr). Unlisted elements, such
// as w14 extensions, sort after it.
var rPrOrder = []string{
	"w:rStyle", "w:rFonts", "w:b", "w:bCs", "w:i", "w:iCs", "w:caps", "w:smallCaps",
	"w:strike", "w:dstrike", "w:outline", "w:shadow", "w:emboss", "w:imprint",
	"w:noProof", "w:snapToGrid", "w:vanish", "w:webHidden", "w:color", "w:spacing",
	"w:w", "w:kern", "w:position", "w:sz", "w:szCs", "w:highlight", "w:u", "w:effect",
	"w:bdr", "w:shd", "w:fitText", "w:vertAlign", "w:rtl", "w:cs", "w:em", "w:lang",
	"w:eastAsianLayout", "w:specVanish", "w:oMath", "w:rPrChange",
}

var rPrRank = func() map[string]int {
	m := make(map[string]int, len(rPrOrder))
	for i, tag := range rPrOrder {
		m[tag] = i
	}
	return m
}()

// apply rewrites the style properties of run. Other run properties (color,
// language, ...) are kept and the result is in w:rPr schema order.
func (s TextStyle) apply(run *Node) {
	rPr := run.Child("w:rPr")
	if rPr == nil {
		rPr = NewElement("w:rPr")
		run.Prepend(rPr)
	}
	rPr.RemoveChildren(func(c *Node) bool { return styleTags[c.Tag()] })

	children := rPr.Children
	if s.FontName != "" {
		children = append(children, NewElement("w:rFonts",
			Attr("w:ascii", s.FontName), Attr("w:hAnsi", s.FontName), Attr("w:cs", s.FontName)))
	}
	if s.Bold {
		children = append(children, NewElement("w:b"))
	}
	if s.Italic {
		children = append(children, NewElement("w:i"))
	}
	if s.Size.IsPositive() {
		half := s.HalfPoints()
		children = append(children,
			NewElement("w:sz", Attr("w:val", half)),
			NewElement("w:szCs", Attr("w:val", half)))
	}
	if s.Underline {
		children = append(children, NewElement("w:u", Attr("w:val", "single")))
	}
	rPr.Children = sortRunProperties(children)
}

// sortRunProperties orders elements by rPrRank. Non-element children travel
// with the element before them.
func sortRunProperties(children []*Node) []*Node {
	ranks := make([]int, len(children))
	prev := -1
	for i, c := range children {
		switch {
		case c.Kind != ElementNode:
			ranks[i] = prev
		default:
			rank, ok := rPrRank[c.Tag()]
			if !ok {
				rank = len(rPrOrder)
			}
			ranks[i] = rank
			prev = rank
		}
	}

	idx := make([]int, len(children))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return ranks[idx[a]] < ranks[idx[b]] })

	sorted := make([]*Node, len(children))
	for i, j := range idx {
		sorted[i] = children[j]
	}
	return sorted
}

// =============================================================================
// SUBSTITUTE
// =============================================================================

// Substitute replaces every {{NAME}} in root whose NAME has a field, styling
// the runs it touches, and returns root. Fields are processed in name order.
//
// A placeholder found inside a single w:t is replaced in place. If a field's
// placeholder is found nowhere that way, paragraphs whose combined text
// contains it (Word likes to split "{{WOCHE}}" over several runs) lose all
// their text nodes and get one new run with the substituted paragraph text.
// Placeholders without a field stay as they are.
func Substitute(root *Node, fields Fields, style TextStyle) *Node {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		token := Placeholder(name)
		if replaceInRuns(root, token, fields[name], style) == 0 {
			replaceInParagraphs(root, token, fields[name], style)
		}
	}
	return root
}

func replaceInRuns(root *Node, token, value string, style TextStyle) int {
	replaced := 0
	for _, run := range root.FindAll("w:r") {
		hit := false
		for _, t := range run.Children {
			if !t.Is("w:t") {
				continue
			}
			text := t.InnerText()
			if !strings.Contains(text, token) {
				continue
			}
			setText(t, strings.ReplaceAll(text, token, value))
			hit = true
		}
		if hit {
			style.apply(run)
			replaced++
		}
	}
	return replaced
}

func replaceInParagraphs(root *Node, token, value string, style TextStyle) int {
	replaced := 0
	for _, p := range root.FindAll("w:p") {
		text := paragraphText(p)
		if !strings.Contains(text, token) {
			continue
		}

		eachOwnNode(p, func(n *Node) {
			n.RemoveChildren(func(c *Node) bool { return c.Is("w:t") })
		})

		t := NewElement("w:t")
		setText(t, strings.ReplaceAll(text, token, value))
		run := NewElement("w:r").Append(t)
		style.apply(run)
		p.Append(run)
		replaced++
	}
	return replaced
}

// paragraphText concatenates the w:t nodes of p, excluding nested paragraphs
// (text boxes).
func paragraphText(p *Node) string {
	var b strings.Builder
	eachOwnNode(p, func(n *Node) {
		if n.Is("w:t") {
			b.WriteString(n.InnerText())
		}
	})
	return b.String()
}

// eachOwnNode visits p's descendants without entering nested paragraphs.
func eachOwnNode(p *Node, visit func(*Node)) {
	for _, c := range p.Children {
		c.Walk(func(n *Node) bool {
			if n.Is("w:p") {
				return false
			}
			visit(n)
			return true
		})
	}
}

func setText(t *Node, s string) {
	t.Children = []*Node{NewText(s)}
	if strings.TrimSpace(s) != s {
		t.SetAttr("xml:space", "preserve")
	}
}

// Text flattens the w:t content of a tree, one line per paragraph.
func Text(root *Node) string {
	var lines []string
	for _, p := range root.FindAll("w:p") {
		lines = append(lines, paragraphText(p))
	}
	return strings.Join(lines, "\n")
}
