// Package extract pulls plain text out of the upload whitelist's formats:
// PDF, DOCX and legacy DOC.
package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	MimePDF  = "application/pdf"
	MimeDOC  = "application/msword"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// ErrUnsupported reports a mime type no extractor handles.
var ErrUnsupported = errors.New("unsupported mime type")

// Document is the extraction output. PageCount is 0 when the format has no
// page notion (DOC/DOCX).
type Document struct {
	Text      string
	PageCount int
}

// Text extracts text from an in-memory payload, dispatching on the declared
// mime type with a filename-extension fallback for generic declarations.
func Text(data []byte, mimeType, fileName string) (Document, error) {
	switch normalizeMimeType(mimeType, fileName) {
	case MimePDF:
		return extractPDF(data)
	case MimeDOCX:
		return extractDOCX(data)
	case MimeDOC:
		return extractDOC(data)
	default:
		return Document{}, fmt.Errorf("%w: %s", ErrUnsupported, mimeType)
	}
}

func extractPDF(data []byte) (Document, error) {
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return Document{}, fmt.Errorf("read pdf: %w", err)
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return Document{}, fmt.Errorf("pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return Document{}, fmt.Errorf("pdf text: %w", err)
	}
	return Document{Text: buf.String(), PageCount: pdfReader.NumPage()}, nil
}

func extractDOCX(data []byte) (Document, error) {
	if len(data) == 0 {
		return Document{}, errors.New("empty docx data")
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Document{}, fmt.Errorf("open docx: %w", err)
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return Document{}, errors.New("document.xml file not found")
	}

	rc, err := docFile.Open()
	if err != nil {
		return Document{}, err
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return Document{}, err
	}

	return Document{Text: stripDocxXML(string(raw))}, nil
}

// extractDOC is a best-effort scan for printable runs in the legacy binary
// Word format, which has no parser in our dependency set. Runs shorter than
// four characters are noise from the container structure.
func extractDOC(data []byte) (Document, error) {
	if len(data) == 0 {
		return Document{}, errors.New("empty doc data")
	}

	const minRun = 4
	var buf strings.Builder
	var run []byte
	flush := func() {
		if len(run) >= minRun {
			if buf.Len() > 0 {
				buf.WriteByte(' ')
			}
			buf.Write(run)
		}
		run = run[:0]
	}
	for _, b := range data {
		if b == '\t' || b == '\n' || (b >= 0x20 && b < 0x7f) {
			run = append(run, b)
			continue
		}
		flush()
	}
	flush()

	text := strings.TrimSpace(buf.String())
	if text == "" {
		return Document{}, errors.New("no text found in doc")
	}
	return Document{Text: text}, nil
}

func stripDocxXML(raw string) string {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return raw
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.WriteString(string(t))
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				if buf.Len() > 0 {
					buf.WriteString("\n")
				}
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

func normalizeMimeType(mimeType, fileName string) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	switch clean {
	case MimePDF, MimeDOC, MimeDOCX:
		return clean
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return MimePDF
	case ".doc":
		return MimeDOC
	case ".docx":
		return MimeDOCX
	default:
		return clean
	}
}
