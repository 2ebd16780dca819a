package extractors

import (
	"github.com/quarry-labs/quarry/internal/extractors/docx"
	"github.com/quarry-labs/quarry/internal/extractors/pdf"
	"github.com/quarry-labs/quarry/internal/extractors/plaintext"
	"github.com/quarry-labs/quarry/internal/extractors/pptx"
)

// Defaults returns a registry with every built-in extractor registered.
func Defaults() *Registry {
	return NewRegistry(
		plaintext.New(),
		pdf.New(),
		docx.New(),
		pptx.New(),
	)
}
