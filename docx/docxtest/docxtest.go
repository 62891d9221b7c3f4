// Package docxtest builds minimal .docx packages for tests.
package docxtest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const ns = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" ` +
	`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"`

const contentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`

const rels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`

// Run is a w:r with optional run properties.
func Run(text string, rPr ...string) string {
	props := ""
	if len(rPr) > 0 {
		props = "<w:rPr>" + strings.Join(rPr, "") + "</w:rPr>"
	}
	return fmt.Sprintf(`<w:r>%s<w:t xml:space="preserve">%s</w:t></w:r>`, props, text)
}

// Paragraph wraps runs in a w:p.
func Paragraph(runs ...string) string {
	return "<w:p>" + strings.Join(runs, "") + "</w:p>"
}

// Document is a complete word/document.xml with the given paragraphs.
func Document(paragraphs ...string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
		`<w:document ` + ns + `><w:body>` + strings.Join(paragraphs, "") + `<w:sectPr/></w:body></w:document>`
}

// Header is a word/headerN.xml with the given paragraphs.
func Header(paragraphs ...string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
		`<w:hdr ` + ns + `>` + strings.Join(paragraphs, "") + `</w:hdr>`
}

// Footer is a word/footerN.xml with the given paragraphs.
func Footer(paragraphs ...string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
		`<w:ftr ` + ns + `>` + strings.Join(paragraphs, "") + `</w:ftr>`
}

// Package zips the given parts together with content types and relationships.
func Package(parts map[string]string) []byte {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	write := func(name, content string) {
		w, err := zw.Create(name)
		if err != nil {
			panic(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			panic(err)
		}
	}
	write("[Content_Types].xml", contentTypes)
	write("_rels/.rels", rels)
	for _, name := range []string{"word/header1.xml", "word/document.xml", "word/footer1.xml"} {
		if content, ok := parts[name]; ok {
			write(name, content)
		}
	}
	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// Wochennachweis is a template using every report placeholder, with the
// surname split over three runs the way Word saves it.
func Wochennachweis() []byte {
	days := make([]string, 0, 6)
	for i := 1; i <= 6; i++ {
		days = append(days, Paragraph(Run(fmt.Sprintf("{{TAG%d}}: {{EINTRAG%d}}", i, i))))
	}
	body := append([]string{
		Paragraph(Run("Ausbildungsnachweis Nr. {{WOCHE}} ({{KATEGORIE}})")),
		Paragraph(Run("Name: "), Run("{{VOR"), Run("NAME}} {{NACH"), Run("NAME}}")),
		Paragraph(Run("Klasse {{KLASSE}}, Ausbildungsjahr {{AJ}}")),
	}, days...)
	body = append(body, Paragraph(Run("Unterschrift am {{UDATUM}}")))

	return Package(map[string]string{
		"word/header1.xml":  Header(Paragraph(Run("KW {{KW}} / {{MONAT}} {{JAHR}}"))),
		"word/document.xml": Document(body...),
		"word/footer1.xml":  Footer(Paragraph(Run("Zeitraum {{DATUM}}"))),
	})
}

// WriteFile stores data in a temp dir and returns its path.
func WriteFile(t testing.TB, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
