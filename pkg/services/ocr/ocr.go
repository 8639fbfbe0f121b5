package ocr

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"orderbot/pkg/models"

	"github.com/Azure/azure-sdk-for-go/services/cognitiveservices/v3.0/computervision"
	"github.com/Azure/go-autorest/autorest"
	"github.com/disintegration/imaging"
)

// Service transcribes receipt screenshots with Azure Computer Vision
type Service struct {
	client  *computervision.BaseClient
	scratch string
}

// NewService creates a new OCR service. Enhanced images are written to
// scratch and removed after use; an empty scratch means the system temp dir.
func NewService(endpoint, apiKey, scratch string) *Service {
	client := computervision.New(endpoint)
	client.Authorizer = autorest.NewCognitiveServicesAuthorizer(apiKey)

	return &Service{
		client:  &client,
		scratch: scratch,
	}
}

// Transcribe enhances the screenshot and returns the printed text lines on it.
func (s *Service) Transcribe(ctx context.Context, imagePath string) ([]models.TextLine, error) {
	processed, err := s.EnhanceImageForOCR(imagePath)
	if err != nil {
		return nil, err
	}
	defer os.Remove(processed)

	return s.ExtractText(ctx, processed)
}

// EnhanceImageForOCR writes a high-contrast grayscale copy of the image and
// returns its path.
func (s *Service) EnhanceImageForOCR(imagePath string) (string, error) {
	src, err := imaging.Open(imagePath)
	if err != nil {
		return "", fmt.Errorf("failed to open image: %w", err)
	}

	img := Enhance(src)

	dst, err := os.CreateTemp(s.scratch, "ocr-*"+filepath.Ext(imagePath))
	if err != nil {
		return "", fmt.Errorf("failed to create scratch image: %w", err)
	}
	dst.Close()

	if err := imaging.Save(img, dst.Name()); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("failed to save processed image: %w", err)
	}
	return dst.Name(), nil
}

// ExtractText performs OCR on an image and returns the extracted text lines
func (s *Service) ExtractText(ctx context.Context, imagePath string) ([]models.TextLine, error) {
	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read processed file: %w", err)
	}

	result, err := s.client.RecognizePrintedTextInStream(
		ctx,
		true,
		io.NopCloser(bytes.NewReader(imageData)),
		computervision.OcrLanguages(computervision.En),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to extract text: %w", err)
	}

	return extractTextFromOCRResult(result), nil
}

// extractTextFromOCRResult flattens regions into lines with their bounding boxes
func extractTextFromOCRResult(result computervision.OcrResult) []models.TextLine {
	var textLines []models.TextLine
	if result.Regions == nil {
		return nil
	}
	for _, region := range *result.Regions {
		if region.Lines == nil {
			continue
		}
		for _, line := range *region.Lines {
			box := parseBoundingBox(line.BoundingBox)
			if len(box) < 4 || line.Words == nil {
				continue
			}

			words := make([]string, 0, len(*line.Words))
			for _, word := range *line.Words {
				if word.Text != nil {
					words = append(words, *word.Text)
				}
			}

			textLines = append(textLines, models.TextLine{
				Text:   strings.Join(words, " "),
				X:      box[0],
				Y:      box[1],
				Width:  box[2],
				Height: box[3],
			})
		}
	}
	return textLines
}

// parseBoundingBox reads the "x,y,w,h" box Azure attaches to each line.
func parseBoundingBox(raw *string) []int {
	if raw == nil {
		return nil
	}
	parts := strings.Split(*raw, ",")
	box := make([]int, 0, len(parts))
	for _, part := range parts {
		val, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil
		}
		box = append(box, val)
	}
	return box
}
