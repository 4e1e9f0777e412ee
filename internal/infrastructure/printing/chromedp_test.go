package printing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintParams_PaperAndOrientation(t *testing.T) {
	tests := []struct {
		name          string
		paper         PaperSize
		orientation   Orientation
		width, height float64
	}{
		{"A4 portrait", PaperSizeA4, OrientationPortrait, 8.2677, 11.6929},
		{"A3", PaperSizeA3, OrientationLandscape, 11.6929, 16.5354},
		{"letter", PaperSizeLetter, OrientationPortrait, 8.5, 11},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := printParams(&RenderRequest{PaperSize: tt.paper, Orientation: tt.orientation, Margins: DefaultMargins()})

			assert.InDelta(t, tt.width, p.PaperWidth, 0.001)
			assert.InDelta(t, tt.height, p.PaperHeight, 0.001)
			assert.Equal(t, tt.orientation == OrientationLandscape, p.Landscape)
			assert.True(t, p.PrintBackground)
			assert.False(t, p.DisplayHeaderFooter)
		})
	}
}

func TestPrintParams_Margins(t *testing.T) {
	p := printParams(&RenderRequest{
		PaperSize: PaperSizeA4,
		Margins:   Margins{Top: 5, Right: 15, Bottom: 20, Left: 25},
	})

	assert.InDelta(t, 5/mmPerInch, p.MarginTop, 0.001)
	assert.InDelta(t, 15/mmPerInch, p.MarginRight, 0.001)
	assert.InDelta(t, 20/mmPerInch, p.MarginBottom, 0.001)
	assert.InDelta(t, 25/mmPerInch, p.MarginLeft, 0.001)
}

func TestPrintParams_FooterReservesBottomMargin(t *testing.T) {
	p := printParams(&RenderRequest{
		PaperSize:  PaperSizeA4,
		Margins:    Margins{Top: 2, Right: 2, Bottom: 2, Left: 2},
		FooterHTML: bordereauFooter,
	})

	assert.True(t, p.DisplayHeaderFooter)
	assert.Equal(t, bordereauFooter, p.FooterTemplate)
	assert.Equal(t, "<span></span>", p.HeaderTemplate)
	assert.InDelta(t, 2/mmPerInch, p.MarginTop, 0.001)
	assert.InDelta(t, headerFooterMarginMM/mmPerInch, p.MarginBottom, 0.001)
}

func TestWrapDocument(t *testing.T) {
	full := "<!DOCTYPE html><html><body>statement</body></html>"
	assert.Equal(t, full, wrapDocument(&RenderRequest{HTML: full}))

	wrapped := wrapDocument(&RenderRequest{HTML: "<table></table>", Title: "Bordereau <BRD-2024-00001>"})
	assert.Contains(t, wrapped, `<meta charset="UTF-8">`)
	assert.Contains(t, wrapped, "<title>Bordereau &lt;BRD-2024-00001&gt;</title>")
	assert.Contains(t, wrapped, "<body><table></table></body>")
}

func TestCountPages(t *testing.T) {
	assert.Equal(t, 1, countPages([]byte("%PDF-1.4")))
	assert.Equal(t, 2, countPages([]byte("<< /Type /Pages /Count 2 >> << /Type /Page >> << /Type /Page >>")))
}

func TestChromedpRenderer_RejectsBadRequests(t *testing.T) {
	r, err := NewChromedpRenderer(&ChromedpConfig{DefaultTimeout: time.Second})
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Render(context.Background(), &RenderRequest{HTML: "  ", PaperSize: PaperSizeA4})
	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, ErrCodeInvalidHTML, renderErr.Code)

	_, err = r.Render(context.Background(), &RenderRequest{HTML: "<p>x</p>", PaperSize: "A5"})
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, ErrCodeInvalidPaperSize, renderErr.Code)
}

func TestChromedpRenderer_CloseWithoutBrowser(t *testing.T) {
	r := &ChromedpRenderer{}
	assert.NoError(t, r.Close())
}
