package support

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
)

const fixturePageWidth = 64
const fixturePageHeight = 64

// blankPagePNG renders a tiny solid-color PNG used as one page of a
// generated PDF fixture. Every scenario's input document is built this
// way rather than checked in as a binary blob, so fixture generation
// needs nothing beyond the standard library's image/png and the
// pdfcpu dependency this module already carries for page assembly.
func blankPagePNG(path string, fill color.Color) error {
	img := image.NewRGBA(image.Rect(0, 0, fixturePageWidth, fixturePageHeight))
	for y := 0; y < fixturePageHeight; y++ {
		for x := 0; x < fixturePageWidth; x++ {
			img.Set(x, y, fill)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	return png.Encode(f, img)
}

// buildPDFFixture writes a pageCount-page PDF at destPath, every page the
// same solid-color image, so scenarios can check page counts but not
// page order.
func (tc *TestContext) buildPDFFixture(destPath string, pageCount int) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o700); err != nil {
		return fmt.Errorf("create fixture dir: %w", err)
	}

	pngPath := tc.path(fmt.Sprintf("_fixture-page-%d.png", pageCount))
	if err := blankPagePNG(pngPath, color.RGBA{R: 200, G: 40, B: 40, A: 255}); err != nil {
		return err
	}
	defer os.Remove(pngPath)

	pages := make([]string, pageCount)
	for i := range pages {
		pages[i] = pngPath
	}

	imp := pdfcpu.DefaultImportConfig()
	if err := api.ImportImagesFile(pages, destPath, imp, nil); err != nil {
		return fmt.Errorf("build %d-page PDF fixture: %w", pageCount, err)
	}
	return nil
}
