package dashboard

import (
	"bytes"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"

	"github.com/disintegration/imaging"
)

// thumbnailWidth is the fixed width of a dashboard preview frame; height
// follows the source image's aspect ratio.
const thumbnailWidth = 160

// thumbnailQuality is the JPEG encoding quality used for preview frames.
const thumbnailQuality = 70

// buildThumbnail decodes the PNG at pngPath (a client-side scratch file
// for a page already received over the wire) and downsizes it to a
// small JPEG preview, the same imaging.Resize call the teacher uses to
// fit OCR input images to model constraints, repurposed here for a
// status-only monitoring frame.
func buildThumbnail(pngPath string) ([]byte, error) {
	f, err := os.Open(pngPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}

	resized := imaging.Resize(img, thumbnailWidth, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: thumbnailQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
