// Package printing renders bordereau exports.
//
// PDF output goes through an HTML template and a headless Chrome driven by
// chromedp (ChromedpRenderer). Spreadsheet output is written with excelize
// (BordereauWorkbook). Both implement the bordereau application's Renderer.
//
// Example usage:
//
//	renderer, err := NewChromedpRenderer(&ChromedpConfig{NoSandbox: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer renderer.Close()
//
//	svc.SetRenderer(bordereauapp.FormatPDF, NewBordereauPDF(renderer, PaperSizeA4, true))
//	svc.SetRenderer(bordereauapp.FormatXLSX, NewBordereauWorkbook())
package printing
