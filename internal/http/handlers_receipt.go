package http

import (
	"errors"
	"io"
	"net/http"
	"time"

	"fintrack/internal/core"
)

// handleScanReceipt accepts a multipart upload with an "image" part and
// returns the extracted transaction fields. Nothing is persisted; the client
// reviews the result before creating the transaction.
func (s *Server) handleScanReceipt(w http.ResponseWriter, r *http.Request) {
	if _, err := s.currentUser(r); err != nil {
		respondError(w, r, err)
		return
	}

	if err := r.ParseMultipartForm(8 << 20); err != nil {
		respondError(w, r, core.Invalid(errors.New("expected multipart form with an image part")))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		respondError(w, r, core.Invalid(errors.New("missing image part")))
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		respondError(w, r, err)
		return
	}

	scan, err := s.services.Receipts.Scan(r.Context(), image, header.Header.Get("Content-Type"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := receiptScanJSON{
		AmountCents:  scan.Amount.Cents,
		Amount:       scan.Amount.String(),
		Description:  scan.Description,
		MerchantName: scan.MerchantName,
		Category:     scan.Category,
	}
	if !scan.Date.IsZero() {
		out.Date = scan.Date.Format(time.DateOnly)
	}
	respondJSON(w, http.StatusOK, out)
}
