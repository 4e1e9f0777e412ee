package printing

import (
	"context"
	_ "embed"
	"html/template"

	bordereauapp "github.com/courtage/backend/internal/application/bordereau"
)

//go:embed templates/bordereau.html
var bordereauTemplate string

var bordereauPage = template.Must(parseStatement("bordereau", bordereauTemplate))

const bordereauFooter = `<div style="font-size:7pt;width:100%;text-align:right;margin-right:10mm;">` +
	`<span class="pageNumber"></span> / <span class="totalPages"></span></div>`

// Ensure BordereauPDF implements the bordereau export renderer
var _ bordereauapp.Renderer = (*BordereauPDF)(nil)

// BordereauPDF prints a bordereau statement to PDF through a PDFRenderer
type BordereauPDF struct {
	page        *template.Template
	renderer    PDFRenderer
	paperSize   PaperSize
	orientation Orientation
}

// NewBordereauPDF creates a BordereauPDF. Statements have many columns so
// landscape is the usual choice.
func NewBordereauPDF(renderer PDFRenderer, paperSize PaperSize, landscape bool) *BordereauPDF {
	orientation := OrientationPortrait
	if landscape {
		orientation = OrientationLandscape
	}
	return &BordereauPDF{
		page:        bordereauPage,
		renderer:    renderer,
		paperSize:   paperSize,
		orientation: orientation,
	}
}

// HTML renders the statement page without converting it
func (p *BordereauPDF) HTML(_ context.Context, s *bordereauapp.Statement) (string, error) {
	return executeStatement(p.page, s)
}

// Render implements bordereauapp.Renderer
func (p *BordereauPDF) Render(ctx context.Context, s *bordereauapp.Statement) ([]byte, error) {
	html, err := p.HTML(ctx, s)
	if err != nil {
		return nil, err
	}
	result, err := p.renderer.Render(ctx, &RenderRequest{
		HTML:        html,
		PaperSize:   p.paperSize,
		Orientation: p.orientation,
		Margins:     DefaultMargins(),
		Title:       "Bordereau " + s.Reference,
		FooterHTML:  bordereauFooter,
	})
	if err != nil {
		return nil, err
	}
	return result.PDF, nil
}
