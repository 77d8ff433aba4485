package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketpulse/internal/common"
	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/models"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	fontFamily   = "GoSans"
	bodySize     = 9.0
	lineHeight   = 5.0
	titleSize    = 16.0
	heading2Size = 14.0
	heading3Size = 12.0
)

// Service implements interfaces.PDFService
type Service struct {
	config   common.ExportConfig
	logger   arbor.ILogger
	compress bool
}

// Compile-time assertion
var _ interfaces.PDFService = (*Service)(nil)

// NewService creates a new PDF service
func NewService(config common.ExportConfig, logger arbor.ILogger) *Service {
	if config.PageSize == "" {
		config.PageSize = "A4"
	}
	if config.FilenamePrefix == "" {
		config.FilenamePrefix = "marketpulse"
	}
	return &Service{
		config:   config,
		logger:   logger,
		compress: true,
	}
}

// Export renders the report blocks, sources and footer to a PDF document
func (s *Service) Export(ctx context.Context, request *models.ExportRequest) (*models.ExportResult, error) {
	if request == nil {
		return nil, fmt.Errorf("export request is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("market", request.MarketCode).
		Str("vertical", request.Vertical).
		Int("blocks", len(request.Blocks)).
		Int("sources", len(request.Sources)).
		Msg("Exporting report to PDF")

	pdf := fpdf.New("P", "mm", s.config.PageSize, "")
	pdf.SetCompression(s.compress)
	// Core fonts are cp1252 only; catalogs such as pl need UTF-8 fonts
	pdf.AddUTF8FontFromBytes(fontFamily, "", goregular.TTF)
	pdf.AddUTF8FontFromBytes(fontFamily, "B", gobold.TTF)
	pdf.AddUTF8FontFromBytes(fontFamily, "I", goitalic.TTF)
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetTitle(request.Title, true)
	pdf.SetCreator("Marketpulse", true)
	pdf.AliasNbPages("")

	renderer := &pdfRenderer{pdf: pdf}

	footer := request.Footer
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont(fontFamily, "I", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 5, footer, "", 0, "L", false, 0, "")
		left, _, _, _ := pdf.GetMargins()
		pdf.SetX(left)
		pdf.CellFormat(0, 5, fmt.Sprintf("%d/{nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	})

	pdf.AddPage()
	renderer.header(request)
	for _, block := range request.Blocks {
		renderer.block(block)
	}
	renderer.sources(request.SourcesTitle, request.Sources)

	if err := pdf.Error(); err != nil {
		s.logger.Error().Err(err).Str("vertical", request.Vertical).Msg("Failed to generate PDF")
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate PDF output")
		return nil, fmt.Errorf("failed to generate PDF output: %w", err)
	}

	data := buf.Bytes()
	pages := pdf.PageCount()

	if s.config.Validate {
		conf := model.NewDefaultConfiguration()
		if err := api.Validate(bytes.NewReader(data), conf); err != nil {
			s.logger.Error().Err(err).Msg("Generated PDF failed validation")
			return nil, fmt.Errorf("generated PDF failed validation: %w", err)
		}
		count, err := api.PageCount(bytes.NewReader(data), conf)
		if err != nil {
			return nil, fmt.Errorf("failed to count PDF pages: %w", err)
		}
		pages = count
	}

	result := &models.ExportResult{
		Filename: ExportFilename(s.config.FilenamePrefix, request.MarketCode, request.Vertical),
		Data:     data,
		Pages:    pages,
	}

	s.logger.Info().
		Str("filename", result.Filename).
		Int("pages", result.Pages).
		Int("size", len(data)).
		Msg("PDF exported")

	return result, nil
}

// ExportFilename builds "<prefix>-<market code lower>-<vertical slug>.pdf"
func ExportFilename(prefix, marketCode, vertical string) string {
	parts := []string{}
	for _, part := range []string{prefix, slug(marketCode), slug(vertical)} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		return "report.pdf"
	}
	return strings.Join(parts, "-") + ".pdf"
}

// slug lowercases s and collapses every run of non letters/digits into one hyphen
func slug(s string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}

type pdfRenderer struct {
	pdf *fpdf.Fpdf
}

func (r *pdfRenderer) header(request *models.ExportRequest) {
	r.pdf.SetFont(fontFamily, "B", titleSize)
	r.pdf.MultiCell(0, 8, request.Title, "", "L", false)

	meta := request.MarketName
	if !request.FetchedAt.IsZero() {
		stamp := request.FetchedAt.Format("2006-01-02 15:04")
		if request.LastUpdated != "" {
			stamp = request.LastUpdated + ": " + stamp
		}
		if meta != "" {
			meta += " | "
		}
		meta += stamp
	}
	if meta != "" {
		r.pdf.SetFont(fontFamily, "", 8)
		r.pdf.SetTextColor(100, 100, 100)
		r.pdf.MultiCell(0, 4, meta, "", "L", false)
		r.pdf.SetTextColor(0, 0, 0)
	}
	r.pdf.Ln(4)
}

func (r *pdfRenderer) block(block models.Block) {
	switch block.Kind {
	case models.BlockKindHeading:
		size := heading2Size
		if block.Level == 3 {
			size = heading3Size
		}
		r.pdf.Ln(3)
		r.pdf.SetFont(fontFamily, "B", size)
		r.pdf.MultiCell(0, 7, block.Text, "", "L", false)
		r.pdf.Ln(1)
	case models.BlockKindParagraph:
		r.pdf.SetFont(fontFamily, "", bodySize)
		r.pdf.MultiCell(0, lineHeight, block.Text, "", "L", false)
		r.pdf.Ln(2)
	case models.BlockKindBulletList:
		r.bullets(block.Items)
		r.pdf.Ln(2)
	}
}

func (r *pdfRenderer) bullets(items []string) {
	r.pdf.SetFont(fontFamily, "", bodySize)
	left, _, _, _ := r.pdf.GetMargins()
	for _, item := range items {
		r.pdf.SetX(left + 3)
		r.pdf.CellFormat(4, lineHeight, "-", "", 0, "L", false, 0, "")
		r.pdf.MultiCell(0, lineHeight, item, "", "L", false)
	}
}

func (r *pdfRenderer) sources(title string, sources []models.Source) {
	if len(sources) == 0 {
		return
	}
	r.pdf.Ln(4)
	r.pdf.SetFont(fontFamily, "B", heading3Size)
	r.pdf.MultiCell(0, 7, title, "", "L", false)

	r.pdf.SetFont(fontFamily, "", 8)
	for i, source := range sources {
		label := source.Title
		if label == "" {
			label = source.URI
		}
		r.pdf.SetTextColor(0, 0, 180)
		r.pdf.MultiCell(0, 4, fmt.Sprintf("%d. %s", i+1, label), "", "L", false)
		r.pdf.SetTextColor(0, 0, 0)
		if source.Title != "" {
			r.pdf.SetFont(fontFamily, "", 7)
			r.pdf.MultiCell(0, 4, source.URI, "", "L", false)
			r.pdf.SetFont(fontFamily, "", 8)
		}
	}
}
