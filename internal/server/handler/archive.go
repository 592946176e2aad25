package handler

import (
	"log/slog"
	"net/http"

	"github.com/stylelend/rentbond/internal/domain"
)

// ArchiveHandler exposes the audit log export surface. Both endpoints return
// 503 when object storage is not configured.
type ArchiveHandler struct {
	archiver domain.Archiver
	blobs    domain.BlobReader
	prefix   string
	logger   *slog.Logger
}

// NewArchiveHandler creates an ArchiveHandler. archiver and blobs may be nil
// when S3 is not configured.
func NewArchiveHandler(archiver domain.Archiver, blobs domain.BlobReader, prefix string, logger *slog.Logger) *ArchiveHandler {
	return &ArchiveHandler{archiver: archiver, blobs: blobs, prefix: prefix, logger: logger}
}

// Export uploads the current rental audit log to object storage.
// POST /history/archive
func (h *ArchiveHandler) Export(w http.ResponseWriter, r *http.Request) {
	if h.archiver == nil {
		writeError(w, http.StatusServiceUnavailable, "object storage not configured")
		return
	}

	path, count, err := h.archiver.ArchiveHistory(r.Context())
	if err != nil {
		writeDomainError(w, h.logger, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"path":  path,
		"count": count,
	})
}

// List returns the metadata of previously exported audit log archives.
// GET /history/archives
func (h *ArchiveHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.blobs == nil {
		writeError(w, http.StatusServiceUnavailable, "object storage not configured")
		return
	}

	infos, err := h.blobs.List(r.Context(), h.prefix)
	if err != nil {
		writeDomainError(w, h.logger, r, err)
		return
	}
	if infos == nil {
		infos = []domain.BlobInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"archives": infos,
		"count":    len(infos),
	})
}
