package services

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/ai"
	"fintrack/internal/core"
)

const maxReceiptBytes = 5 << 20

// ReceiptScanner extracts structured data from a receipt image.
type ReceiptScanner interface {
	ScanReceipt(ctx context.Context, image []byte, mimeType string) (*ai.ReceiptScan, error)
}

// ReceiptService validates uploads before handing them to the scanner.
type ReceiptService struct {
	scanner ReceiptScanner
}

func NewReceiptService(scanner ReceiptScanner) *ReceiptService {
	return &ReceiptService{scanner: scanner}
}

var allowedReceiptTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Scan returns structured data for a receipt image. A non-receipt image is
// a validation failure, not an external service one.
func (s *ReceiptService) Scan(ctx context.Context, image []byte, mimeType string) (*ai.ReceiptScan, error) {
	if len(image) == 0 {
		return nil, core.Invalid(errors.New("empty image"))
	}
	if len(image) > maxReceiptBytes {
		return nil, core.Invalid(fmt.Errorf("image larger than %d bytes", maxReceiptBytes))
	}
	if !allowedReceiptTypes[mimeType] {
		return nil, core.Invalid(fmt.Errorf("unsupported image type %q", mimeType))
	}

	scan, err := s.scanner.ScanReceipt(ctx, image, mimeType)
	if err != nil {
		if errors.Is(err, ai.ErrNotReceipt) {
			return nil, core.Invalid(ai.ErrNotReceipt)
		}
		return nil, err
	}
	return scan, nil
}
