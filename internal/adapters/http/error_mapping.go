package httpadapter

import (
	"net/http"

	"github.com/kirillkom/docuscan/internal/core/domain"
)

var statusByKind = map[error]int{
	domain.ErrUnsupportedFormat: http.StatusUnsupportedMediaType,
	domain.ErrPayloadTooLarge:   http.StatusRequestEntityTooLarge,
	domain.ErrInvalidInput:      http.StatusBadRequest,
	domain.ErrDocumentNotFound:  http.StatusNotFound,
	domain.ErrTemporary:         http.StatusServiceUnavailable,
}

func mapErrorToHTTPStatus(err error) int {
	if status, ok := statusByKind[domain.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}
