package services

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

const (
	FormatPDF  = "pdf"
	FormatDOCX = "docx"
	FormatText = "txt"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format. please upload a PDF, DOCX or TXT file")
	ErrEmptyDocument     = errors.New("no text content found in document")
)

type ExtractorService interface {
	Extract(filename string, data []byte) (*Content, error)
	DetectFormat(filename string, data []byte) (string, error)
}

type Content struct {
	Text      string
	PageCount int
	Format    string
}

type extractorService struct{}

func NewExtractorService() ExtractorService {
	return &extractorService{}
}

// DetectFormat picks the parser from the file extension, falling back to the
// sniffed content type for files uploaded without one.
func (e *extractorService) DetectFormat(filename string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return FormatPDF, nil
	case ".docx":
		return FormatDOCX, nil
	case ".txt", ".text":
		return FormatText, nil
	case "":
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}

	mime := http.DetectContentType(data)
	switch {
	case strings.HasPrefix(mime, "application/pdf"):
		return FormatPDF, nil
	case strings.HasPrefix(mime, "text/plain"):
		return FormatText, nil
	case strings.HasPrefix(mime, "application/zip"):
		return FormatDOCX, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, mime)
}

func (e *extractorService) Extract(filename string, data []byte) (*Content, error) {
	format, err := e.DetectFormat(filename, data)
	if err != nil {
		return nil, err
	}

	var content *Content
	switch format {
	case FormatPDF:
		content, err = extractPDF(data)
	case FormatDOCX:
		content, err = extractDOCX(data)
	default:
		content = &Content{Text: string(bytes.ToValidUTF8(data, nil)), PageCount: 1}
	}
	if err != nil {
		return nil, err
	}

	content.Format = format
	content.Text = CleanText(content.Text)
	if content.Text == "" {
		return nil, ErrEmptyDocument
	}

	return content, nil
}

func extractPDF(data []byte) (*Content, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	var textBuilder strings.Builder
	totalPage := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// unreadable pages are skipped, the rest of the resume still counts
			continue
		}

		textBuilder.WriteString(text)
		textBuilder.WriteString("\n\n")
	}

	return &Content{Text: textBuilder.String(), PageCount: totalPage}, nil
}

var (
	docxParagraphEnd = regexp.MustCompile(`</w:p>|<w:br/>|<w:cr/>`)
	docxTab          = regexp.MustCompile(`<w:tab/>`)
	xmlTag           = regexp.MustCompile(`<[^>]+>`)
)

func extractDOCX(data []byte) (*Content, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	return &Content{Text: docxXMLToText(doc.Editable().GetContent()), PageCount: 1}, nil
}

// docxXMLToText turns word/document.xml into plain text, one paragraph per line.
func docxXMLToText(content string) string {
	content = docxParagraphEnd.ReplaceAllString(content, "\n")
	content = docxTab.ReplaceAllString(content, "\t")
	content = xmlTag.ReplaceAllString(content, "")
	return html.UnescapeString(content)
}

// CleanText trims every line and drops the blank ones.
func CleanText(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	var cleanedLines []string

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleanedLines = append(cleanedLines, line)
		}
	}

	return strings.Join(cleanedLines, "\n")
}
