/*
node.go - Lossless XML tree for OOXML parts

PURPOSE:
  Word parts (document.xml, header1.xml, ...) are parsed into a generic
  element tree and written back byte-for-byte equivalent, apart from the
  edits made by Substitute. Namespace prefixes are kept as written
  ("w:p", "w:t") because Word rejects documents whose prefixes change.

WHY RAW TOKENS:
  encoding/xml's namespace-resolving decoder rewrites prefixes on output.
  Decoder.RawToken keeps "w:t" as Name{Space: "w", Local: "t"}, which is
  what gets written back.

SEE ALSO:
  - substitute.go: Placeholder replacement on top of this tree
  - template.go: Reads and writes the .docx ZIP package
*/
package docx

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// NodeKind distinguishes element nodes from the other XML tokens.
type NodeKind int

const (
	ElementNode NodeKind = iota
	TextNode
	CommentNode
	ProcInstNode
	DirectiveNode
)

// Node is one XML token. Elements carry children; every other kind carries Data.
type Node struct {
	Kind     NodeKind
	Name     xml.Name // Space holds the prefix, not the namespace URL
	Attr     []xml.Attr
	Children []*Node
	Data     string
	Target   string // processing instruction target
}

// Tag returns the prefixed element name, e.g. "w:p".
func (n *Node) Tag() string {
	return qualified(n.Name)
}

// Is reports whether n is an element with the given prefixed name.
func (n *Node) Is(tag string) bool {
	return n.Kind == ElementNode && n.Tag() == tag
}

// NewElement creates an element node.
func NewElement(tag string, attrs ...xml.Attr) *Node {
	return &Node{Kind: ElementNode, Name: splitName(tag), Attr: attrs}
}

// NewText creates a character data node.
func NewText(s string) *Node {
	return &Node{Kind: TextNode, Data: s}
}

// Attr builds an attribute with a prefixed name, e.g. Attr("w:val", "20").
func Attr(name, value string) xml.Attr {
	return xml.Attr{Name: splitName(name), Value: value}
}

// GetAttr returns the value of a prefixed attribute.
func (n *Node) GetAttr(name string) (string, bool) {
	for _, a := range n.Attr {
		if qualified(a.Name) == name {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr replaces or appends a prefixed attribute.
func (n *Node) SetAttr(name, value string) {
	for i, a := range n.Attr {
		if qualified(a.Name) == name {
			n.Attr[i].Value = value
			return
		}
	}
	n.Attr = append(n.Attr, Attr(name, value))
}

// Append adds children at the end.
func (n *Node) Append(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// Prepend adds a child at the front.
func (n *Node) Prepend(child *Node) {
	n.Children = append([]*Node{child}, n.Children...)
}

// RemoveChildren drops every direct child for which drop returns true.
func (n *Node) RemoveChildren(drop func(*Node) bool) {
	kept := n.Children[:0]
	for _, c := range n.Children {
		if !drop(c) {
			kept = append(kept, c)
		}
	}
	for i := len(kept); i < len(n.Children); i++ {
		n.Children[i] = nil
	}
	n.Children = kept
}

// Child returns the first direct child element with tag.
func (n *Node) Child(tag string) *Node {
	for _, c := range n.Children {
		if c.Is(tag) {
			return c
		}
	}
	return nil
}

// Walk visits n and its descendants depth-first, parents before children.
// Returning false from visit skips the node's children.
func (n *Node) Walk(visit func(*Node) bool) {
	if !visit(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(visit)
	}
}

// FindAll returns every descendant element with tag, in document order.
func (n *Node) FindAll(tag string) []*Node {
	var found []*Node
	n.Walk(func(c *Node) bool {
		if c != n && c.Is(tag) {
			found = append(found, c)
		}
		return true
	})
	return found
}

// InnerText concatenates all character data below n.
func (n *Node) InnerText() string {
	var b strings.Builder
	n.Walk(func(c *Node) bool {
		if c.Kind == TextNode {
			b.WriteString(c.Data)
		}
		return true
	})
	return b.String()
}

// Clone returns a deep copy.
func (n *Node) Clone() *Node {
	c := *n
	if n.Attr != nil {
		c.Attr = append([]xml.Attr(nil), n.Attr...)
	}
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = child.Clone()
		}
	}
	return &c
}

// =============================================================================
// PARSE / WRITE
// =============================================================================

// Parse reads an XML document into a tree rooted at a synthetic document node.
func Parse(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = true

	root := &Node{Kind: ElementNode}
	stack := []*Node{root}
	top := func() *Node { return stack[len(stack)-1] }

	for {
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &Node{Kind: ElementNode, Name: t.Name, Attr: append([]xml.Attr(nil), t.Attr...)}
			top().Append(el)
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) == 1 || qualified(top().Name) != qualified(t.Name) {
				return nil, fmt.Errorf("parse xml: unexpected end element %s", qualified(t.Name))
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			top().Append(NewText(string(t)))
		case xml.Comment:
			top().Append(&Node{Kind: CommentNode, Data: string(t)})
		case xml.ProcInst:
			top().Append(&Node{Kind: ProcInstNode, Target: t.Target, Data: string(t.Inst)})
		case xml.Directive:
			top().Append(&Node{Kind: DirectiveNode, Data: string(t)})
		}
	}

	if len(stack) != 1 {
		return nil, fmt.Errorf("parse xml: unclosed element %s", top().Tag())
	}
	return root, nil
}

// ParseBytes is Parse for an in-memory part.
func ParseBytes(b []byte) (*Node, error) {
	return Parse(bytes.NewReader(b))
}

// Write serializes a tree produced by Parse.
func Write(w io.Writer, root *Node) error {
	var buf bytes.Buffer
	for _, c := range root.Children {
		writeNode(&buf, c)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// Bytes serializes a tree produced by Parse.
func Bytes(root *Node) []byte {
	var buf bytes.Buffer
	for _, c := range root.Children {
		writeNode(&buf, c)
	}
	return buf.Bytes()
}

func writeNode(buf *bytes.Buffer, n *Node) {
	switch n.Kind {
	case TextNode:
		escape(buf, n.Data, false)
	case CommentNode:
		buf.WriteString("<!--")
		buf.WriteString(n.Data)
		buf.WriteString("-->")
	case ProcInstNode:
		buf.WriteString("<?")
		buf.WriteString(n.Target)
		if n.Data != "" {
			buf.WriteByte(' ')
			buf.WriteString(n.Data)
		}
		buf.WriteString("?>")
	case DirectiveNode:
		buf.WriteString("<!")
		buf.WriteString(n.Data)
		buf.WriteString(">")
	case ElementNode:
		tag := n.Tag()
		buf.WriteByte('<')
		buf.WriteString(tag)
		for _, a := range n.Attr {
			buf.WriteByte(' ')
			buf.WriteString(qualified(a.Name))
			buf.WriteString(`="`)
			escape(buf, a.Value, true)
			buf.WriteByte('"')
		}
		if len(n.Children) == 0 {
			buf.WriteString("/>")
			return
		}
		buf.WriteByte('>')
		for _, c := range n.Children {
			writeNode(buf, c)
		}
		buf.WriteString("</")
		buf.WriteString(tag)
		buf.WriteByte('>')
	}
}

// escape writes s as character data. xml.EscapeText also escapes newlines,
// which breaks the whitespace between the prolog and the root element.
// Runes outside the XML Char range become U+FFFD like in xml.EscapeText.
func escape(buf *bytes.Buffer, s string, attr bool) {
	for _, r := range s {
		switch {
		case !isXMLChar(r):
			buf.WriteRune('\uFFFD')
		case r == '&':
			buf.WriteString("&amp;")
		case r == '<':
			buf.WriteString("&lt;")
		case r == '>':
			buf.WriteString("&gt;")
		case r == '\r':
			buf.WriteString("&#xD;")
		case attr && r == '"':
			buf.WriteString("&quot;")
		case attr && r == '\n':
			buf.WriteString("&#xA;")
		case attr && r == '\t':
			buf.WriteString("&#x9;")
		default:
			buf.WriteRune(r)
		}
	}
}

// isXMLChar reports whether r may appear in an XML 1.0 document.
func isXMLChar(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		r >= 0x20 && r <= 0xD7FF ||
		r >= 0xE000 && r <= 0xFFFD ||
		r >= 0x10000 && r <= 0x10FFFF
}

func qualified(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	return name.Space + ":" + name.Local
}

func splitName(tag string) xml.Name {
	if prefix, local, ok := strings.Cut(tag, ":"); ok {
		return xml.Name{Space: prefix, Local: local}
	}
	return xml.Name{Local: tag}
}
