/*
Package docx fills Word (.docx) templates.

PURPOSE:
  A .docx file is a ZIP package of XML parts. The template is read once,
  its body, header and footer parts are parsed, and every Render call
  substitutes a copy of those trees and writes a new package. The parsed
  template is never modified, so one Template serves concurrent renders.

PLACEHOLDERS:
  {{NAME}} tokens anywhere in word/document.xml, word/header*.xml or
  word/footer*.xml. See substitute.go.

ERRORS:
  LoadTemplate returns *generic.TemplateError naming the resolved path:
  - generic.ErrTemplateNotFound: the file does not exist
  - generic.ErrTemplateCorrupt:  not a ZIP, or no word/document.xml

SEE ALSO:
  - bundle/generator.go: Renders one document per report week
*/
package docx

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/warp/wochennachweis/generic"
)

const (
	DocumentPart = "word/document.xml"
	maxPartSize  = 32 << 20
)

type entry struct {
	name     string
	method   uint16
	modified time.Time
	data     []byte
}

// Template is a parsed .docx package.
type Template struct {
	path    string
	raw     []byte
	entries []entry
	parts   map[string]*Node
}

// LoadTemplate reads and parses the template at path.
func LoadTemplate(p string) (*Template, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		abs = p
	}

	data, err := os.ReadFile(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &generic.TemplateError{Path: abs, Err: generic.ErrTemplateNotFound}
	}
	if err != nil {
		return nil, &generic.TemplateError{Path: abs, Err: fmt.Errorf("%w: %v", generic.ErrTemplateCorrupt, err)}
	}
	return ParseTemplate(data, abs)
}

// ParseTemplate parses an in-memory package; name is used in errors.
func ParseTemplate(data []byte, name string) (*Template, error) {
	corrupt := func(err error) error {
		return &generic.TemplateError{Path: name, Err: fmt.Errorf("%w: %v", generic.ErrTemplateCorrupt, err)}
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, corrupt(err)
	}

	t := &Template{path: name, raw: data, parts: make(map[string]*Node)}
	for _, f := range zr.File {
		content, err := readEntry(f)
		if err != nil {
			return nil, corrupt(err)
		}
		t.entries = append(t.entries, entry{name: f.Name, method: f.Method, modified: f.Modified, data: content})

		if !IsTextPart(f.Name) {
			continue
		}
		root, err := ParseBytes(content)
		if err != nil {
			return nil, corrupt(fmt.Errorf("%s: %w", f.Name, err))
		}
		t.parts[f.Name] = root
	}

	if _, ok := t.parts[DocumentPart]; !ok {
		return nil, corrupt(errors.New("missing " + DocumentPart))
	}
	return t, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxPartSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxPartSize {
		return nil, fmt.Errorf("%s exceeds %d bytes", f.Name, maxPartSize)
	}
	return data, nil
}

// IsTextPart reports whether a package entry is substituted: the main body,
// headers and footers.
func IsTextPart(name string) bool {
	if name == DocumentPart {
		return true
	}
	dir, file := path.Split(name)
	if dir != "word/" || !strings.HasSuffix(file, ".xml") {
		return false
	}
	return strings.HasPrefix(file, "header") || strings.HasPrefix(file, "footer")
}

func (t *Template) Path() string { return t.path }
func (t *Template) Size() int    { return len(t.raw) }

// Raw returns the unmodified package bytes.
func (t *Template) Raw() []byte { return t.raw }

// PartNames lists the substituted parts in package order.
func (t *Template) PartNames() []string {
	var names []string
	for _, e := range t.entries {
		if _, ok := t.parts[e.name]; ok {
			names = append(names, e.name)
		}
	}
	return names
}

// Part returns a copy of a parsed part, or nil.
func (t *Template) Part(name string) *Node {
	root, ok := t.parts[name]
	if !ok {
		return nil
	}
	return root.Clone()
}

// Fill substitutes copies of every text part and returns them by name.
func (t *Template) Fill(fields Fields, style TextStyle) map[string]*Node {
	filled := make(map[string]*Node, len(t.parts))
	for name, root := range t.parts {
		filled[name] = Substitute(root.Clone(), fields, style)
	}
	return filled
}

// Render writes a filled copy of the package to w.
func (t *Template) Render(w io.Writer, fields Fields, style TextStyle) error {
	filled := t.Fill(fields, style)

	zw := zip.NewWriter(w)
	for _, e := range t.entries {
		data := e.data
		if root, ok := filled[e.name]; ok {
			data = Bytes(root)
		}
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: e.name, Method: e.method, Modified: e.modified})
		if err != nil {
			return fmt.Errorf("write %s: %w", e.name, err)
		}
		if _, err := fw.Write(data); err != nil {
			return fmt.Errorf("write %s: %w", e.name, err)
		}
	}
	return zw.Close()
}

// RenderBytes is Render into memory.
func (t *Template) RenderBytes(fields Fields, style TextStyle) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.Render(&buf, fields, style); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
