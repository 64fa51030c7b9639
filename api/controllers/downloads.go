package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/zalar2202/logashop/api/responses"
	"github.com/zalar2202/logashop/pkg/db/models"
	pkgerrors "github.com/zalar2202/logashop/pkg/errors"
	"github.com/zalar2202/logashop/pkg/logger"
)

type digitalStore interface {
	FindByToken(ctx context.Context, token string) (*models.DigitalDelivery, error)
	RecordDownload(ctx context.Context, token string) (bool, error)
}

type downloadResponse struct {
	FileName      string `json:"file_name"`
	FileURL       string `json:"file_url"`
	SizeBytes     int64  `json:"size_bytes,omitempty"`
	DownloadsLeft *int   `json:"downloads_left,omitempty"`
}

// RedeemDownload exchanges a download token for the file location.
// The token itself is the credential; no login is required, which is
// what lets guest buyers reach their files from the email link.
func RedeemDownload(store digitalStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(chi.URLParam(r, "token"))
		if token == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "download token required"))
			return
		}

		grant, err := store.FindByToken(r.Context(), token)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "download not found"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load download grant"))
			return
		}

		now := time.Now().UTC()
		if !grant.Usable(now) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeConflict, "download link expired or exhausted"))
			return
		}

		recorded, err := store.RecordDownload(r.Context(), token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record download"))
			return
		}
		if !recorded {
			// Lost the race against a concurrent download that used up
			// the last slot.
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeConflict, "download link expired or exhausted"))
			return
		}

		resp := downloadResponse{
			FileName:  grant.File.Name,
			FileURL:   grant.File.URL,
			SizeBytes: grant.File.SizeBytes,
		}
		if grant.MaxDownloads > 0 {
			left := grant.MaxDownloads - grant.DownloadCount - 1
			if left < 0 {
				left = 0
			}
			resp.DownloadsLeft = &left
		}
		responses.WriteSuccess(w, resp)
	}
}
