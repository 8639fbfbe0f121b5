// Package receipt turns the page shown after a successful submit into a
// PDF receipt with the robot screenshot appended as its last page.
package receipt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"orderbot/pkg/models"
	"orderbot/pkg/services/browser"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"go.uber.org/zap"
)

func init() {
	// pdfcpu would otherwise write its config into the user config dir.
	api.DisableConfigDir()
}

// Transcriber reads the text printed on a receipt screenshot.
type Transcriber interface {
	Transcribe(ctx context.Context, imagePath string) ([]models.TextLine, error)
}

// Artifacts are the files written for one order. Transcript is empty when no
// transcriber is configured or transcription failed.
type Artifacts struct {
	Markup     string
	Receipt    string
	Screenshot string
	Transcript string
}

// Composer writes receipts for the order currently shown on page.
type Composer struct {
	page        browser.Page
	outDir      string
	transcriber Transcriber
	log         *zap.Logger
}

// NewComposer creates a composer writing into outDir. transcriber may be nil.
func NewComposer(page browser.Page, outDir string, transcriber Transcriber, logger *zap.Logger) *Composer {
	return &Composer{
		page:        page,
		outDir:      outDir,
		transcriber: transcriber,
		log:         logger.Named("receipt"),
	}
}

// Paths returns the artifact paths for an order number.
func (c *Composer) Paths(orderNumber string) Artifacts {
	return Artifacts{
		Markup:     filepath.Join(c.outDir, fmt.Sprintf("cleaned_html_%s.html", orderNumber)),
		Receipt:    filepath.Join(c.outDir, fmt.Sprintf("receipt_%s.pdf", orderNumber)),
		Screenshot: filepath.Join(c.outDir, fmt.Sprintf("screenshot_%s.png", orderNumber)),
	}
}

// Compose captures the current page as the receipt for orderNumber.
func (c *Composer) Compose(ctx context.Context, orderNumber string) (Artifacts, error) {
	log := c.log.With(zap.String("order", orderNumber))
	out := c.Paths(orderNumber)

	if err := os.MkdirAll(c.outDir, 0o755); err != nil {
		return out, err
	}

	markup, err := c.page.HTML(ctx)
	if err != nil {
		return out, fmt.Errorf("capture markup: %w", err)
	}
	doc := Document(Sanitize(markup))
	if err := os.WriteFile(out.Markup, []byte(doc), 0o644); err != nil {
		return out, fmt.Errorf("write %s: %w", out.Markup, err)
	}

	pdf, err := c.page.RenderPDF(ctx, doc)
	if err != nil {
		return out, fmt.Errorf("render receipt: %w", err)
	}
	if err := os.WriteFile(out.Receipt, pdf, 0o644); err != nil {
		return out, fmt.Errorf("write %s: %w", out.Receipt, err)
	}

	if err := c.page.Screenshot(ctx, out.Screenshot); err != nil {
		return out, fmt.Errorf("screenshot: %w", err)
	}

	if err := AppendImage(out.Receipt, out.Screenshot); err != nil {
		return out, fmt.Errorf("embed screenshot: %w", err)
	}
	log.Info("Receipt stored", zap.String("receipt", out.Receipt), zap.String("screenshot", out.Screenshot))

	if c.transcriber != nil {
		out.Transcript = c.transcribe(ctx, log, orderNumber, out.Screenshot)
	}
	return out, nil
}

func (c *Composer) transcribe(ctx context.Context, log *zap.Logger, orderNumber, screenshot string) string {
	lines, err := c.transcriber.Transcribe(ctx, screenshot)
	if err != nil {
		log.Warn("Failed to transcribe receipt", zap.Error(err))
		return ""
	}
	texts := make([]string, 0, len(lines))
	for _, line := range lines {
		texts = append(texts, line.Text)
	}
	path := filepath.Join(c.outDir, fmt.Sprintf("ocr_%s.txt", orderNumber))
	if err := os.WriteFile(path, []byte(strings.Join(texts, "\n")+"\n"), 0o644); err != nil {
		log.Warn("Failed to write transcript", zap.String("path", path), zap.Error(err))
		return ""
	}
	log.Debug("Receipt transcribed", zap.Int("lines", len(lines)))
	return path
}

// AppendImage adds imagePath as a new last page of the PDF at pdfPath,
// rewriting the file in place. A missing pdfPath is created.
func AppendImage(pdfPath, imagePath string) error {
	return api.ImportImagesFile([]string{imagePath}, pdfPath, pdfcpu.DefaultImportConfig(), nil)
}
