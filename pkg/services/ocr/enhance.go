package ocr

import (
	"image"

	"github.com/disintegration/imaging"
)

// maxSide keeps uploads under the Computer Vision size limit.
const maxSide = 4200

// Enhance prepares a screenshot for printed-text OCR.
func Enhance(src image.Image) *image.NRGBA {
	// Convert to grayscale for better contrast
	img := imaging.Grayscale(src)

	img = imaging.AdjustContrast(img, 30)

	// Sharpen the image to make text more readable
	img = imaging.Sharpen(img, 1.5)
	img = imaging.AdjustBrightness(img, 10)
	img = imaging.AdjustGamma(img, 1.2)

	b := img.Bounds()
	if b.Dx() > maxSide || b.Dy() > maxSide {
		img = imaging.Fit(img, maxSide, maxSide, imaging.Lanczos)
	}
	return img
}
