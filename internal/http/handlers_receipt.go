package http

import (
	"errors"
	"net/http"

	applog "spendlog/internal/log"
	"spendlog/internal/receipts"
)

// multipartOverhead leaves room for boundaries and part headers on top of
// the file size limit.
const multipartOverhead = 64 << 10

func (s *Server) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.ReceiptMaxBytes+multipartOverhead)
	file, _, err := r.FormFile("file")
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			writeError(w, http.StatusBadRequest, "File is too large")
		case errors.Is(err, http.ErrMissingFile):
			writeError(w, http.StatusBadRequest, "No file uploaded")
		default:
			writeError(w, http.StatusBadRequest, "Invalid upload")
		}
		return
	}
	defer file.Close()

	upload, err := receipts.Prepare(file, s.opts.ReceiptMaxBytes)
	switch {
	case errors.Is(err, receipts.ErrEmpty):
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	case errors.Is(err, receipts.ErrTooLarge):
		writeError(w, http.StatusBadRequest, "File is too large")
		return
	case errors.Is(err, receipts.ErrNotImage):
		writeError(w, http.StatusBadRequest, "File must be a JPEG, PNG, GIF or WebP image")
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, "Invalid upload")
		return
	}

	url, err := s.receipts.Save(r.Context(), upload)
	if err != nil {
		applog.NewStructuredLogger(applog.FromContext(r.Context())).LogError(r.Context(),
			"Receipt upload failed", err, applog.ErrorTypeInternal, applog.ComponentReceipt, applog.OpUpload, nil)
		writeError(w, http.StatusInternalServerError, "Upload failed")
		return
	}

	s.metrics.recordExpenseOperation(applog.OpUpload)
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// handleServeReceipt serves receipts kept by the local store. Names that
// the store could not have generated are treated as missing.
func (s *Server) handleServeReceipt(w http.ResponseWriter, r *http.Request) {
	path, err := s.localReceipts.Path(r.PathValue("name"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Receipt not found")
		return
	}
	http.ServeFile(w, r, path)
}
