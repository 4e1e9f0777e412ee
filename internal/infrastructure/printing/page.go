package printing

import "strings"

// PaperSize is a named sheet format
type PaperSize string

const (
	PaperSizeA4     PaperSize = "A4"     // 210mm x 297mm
	PaperSizeA3     PaperSize = "A3"     // 297mm x 420mm
	PaperSizeLetter PaperSize = "LETTER" // 215.9mm x 279.4mm
)

// ParsePaperSize maps a config value to a PaperSize. Unknown or empty values
// fall back to A4.
func ParsePaperSize(s string) PaperSize {
	p := PaperSize(strings.ToUpper(strings.TrimSpace(s)))
	if !p.IsValid() {
		return PaperSizeA4
	}
	return p
}

// IsValid checks if the PaperSize is a known value
func (p PaperSize) IsValid() bool {
	switch p {
	case PaperSizeA4, PaperSizeA3, PaperSizeLetter:
		return true
	}
	return false
}

// Dimensions returns the sheet size in millimeters (width, height)
func (p PaperSize) Dimensions() (width, height float64) {
	switch p {
	case PaperSizeA3:
		return 297, 420
	case PaperSizeLetter:
		return 215.9, 279.4
	default:
		return 210, 297
	}
}

// Orientation is portrait or landscape
type Orientation string

const (
	OrientationPortrait  Orientation = "PORTRAIT"
	OrientationLandscape Orientation = "LANDSCAPE"
)

// Margins are page margins in millimeters
type Margins struct {
	Top    int
	Right  int
	Bottom int
	Left   int
}

// DefaultMargins returns 10mm on every side
func DefaultMargins() Margins {
	return Margins{Top: 10, Right: 10, Bottom: 10, Left: 10}
}
