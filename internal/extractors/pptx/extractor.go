package pptx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

var slideNameRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// Extractor handles PPTX files.
type Extractor struct{}

// New creates a new PPTX extractor.
func New() *Extractor {
	return &Extractor{}
}

// MIMETypes returns the MIME types this extractor handles.
func (e *Extractor) MIMETypes() []string {
	return []string{
		"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	}
}

// Extract pulls the text of every slide in slide order, prefixing each
// slide's text with a "[Slide N]" marker.
func (e *Extractor) Extract(_ context.Context, content []byte) (*driven.ExtractResult, error) {
	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, domain.ErrInvalidInput
	}

	type slideFile struct {
		number int
		file   *zip.File
	}

	//nolint:prealloc // slide entries are a subset of the archive
	var slides []slideFile
	for _, file := range reader.File {
		m := slideNameRe.FindStringSubmatch(file.Name)
		if m == nil {
			continue
		}
		number, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		slides = append(slides, slideFile{number: number, file: file})
	}

	sort.Slice(slides, func(i, j int) bool {
		return slides[i].number < slides[j].number
	})

	//nolint:prealloc // empty slides are skipped
	var parts []string
	for i, slide := range slides {
		text, err := extractSlideText(slide.file)
		if err != nil {
			return nil, fmt.Errorf("reading slide %d: %w", slide.number, err)
		}
		if text == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("[Slide %d]\n%s", i+1, text))
	}

	return &driven.ExtractResult{Text: strings.Join(parts, "\n\n")}, nil
}

// slideXML collects every a:t text element in the slide, whatever shape it
// nests under.
type slideXML struct {
	Texts []string `xml:"cSld>spTree>sp>txBody>p>r>t"`
}

func extractSlideText(file *zip.File) (string, error) {
	rc, err := file.Open()
	if err != nil {
		return "", domain.ErrInvalidInput
	}

	content, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return "", domain.ErrInvalidInput
	}

	var slide slideXML
	if err := xml.Unmarshal(content, &slide); err != nil {
		return "", nil
	}

	var lines []string
	for _, t := range slide.Texts {
		if t != "" {
			lines = append(lines, t)
		}
	}
	return strings.Join(lines, "\n"), nil
}
