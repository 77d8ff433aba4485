package interfaces

import (
	"context"

	"github.com/ternarybob/marketpulse/internal/models"
)

// PDFService renders formatted reports to PDF documents
type PDFService interface {
	Export(ctx context.Context, request *models.ExportRequest) (*models.ExportResult, error)
}
