package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/cwrk-planet/kcd-platform/internal/domain"
	"github.com/cwrk-planet/kcd-platform/internal/errs"
	"github.com/cwrk-planet/kcd-platform/internal/service"
	httpmw "github.com/cwrk-planet/kcd-platform/internal/transport/http/middleware"
	"github.com/cwrk-planet/kcd-platform/pkg/httputil"

	"github.com/samber/lo"
)

// запас на заголовки multipart поверх лимита файла
const multipartOverhead = 1 << 20

// GET /api/v1/portfolio/me
func (h *Handler) MyAssets(w http.ResponseWriter, r *http.Request) {
	u, _ := httpmw.UserFromCtx(r.Context())
	assets, err := h.portfolio.List(r.Context(), u.ID)
	if err != nil {
		writeError(w, r, "portfolio.list", err)
		return
	}
	httputil.JSON(w, http.StatusOK, lo.Map(assets, func(a domain.MediaAsset, _ int) MediaAssetResponse {
		return toMediaAssetResponse(a)
	}))
}

// POST /api/v1/portfolio/upload (multipart, поле file)
func (h *Handler) UploadAsset(w http.ResponseWriter, r *http.Request) {
	u, _ := httpmw.UserFromCtx(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+multipartOverhead)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) || strings.Contains(err.Error(), "request body too large") {
			writeError(w, r, "portfolio.upload", errs.ErrTooLarge)
			return
		}
		httputil.Error(r.Context(), w, http.StatusBadRequest, "no file uploaded", nil)
		return
	}
	defer file.Close()

	asset, err := h.portfolio.Upload(r.Context(), u.ID, service.Upload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	})
	if err != nil {
		writeError(w, r, "portfolio.upload", err)
		return
	}
	httputil.JSON(w, http.StatusCreated, toMediaAssetResponse(*asset))
}
