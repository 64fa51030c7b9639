package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/zalar2202/logashop/pkg/db/models"
	"github.com/zalar2202/logashop/pkg/types"
)

type stubDigitalStore struct {
	grant    *models.DigitalDelivery
	recorded bool
	err      error
}

func (s *stubDigitalStore) FindByToken(_ context.Context, token string) (*models.DigitalDelivery, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.grant == nil || s.grant.DownloadToken != token {
		return nil, gorm.ErrRecordNotFound
	}
	return s.grant, nil
}

func (s *stubDigitalStore) RecordDownload(_ context.Context, _ string) (bool, error) {
	return s.recorded, nil
}

func downloadRequest(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/downloads/"+token, nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("token", token)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestRedeemDownload_ReturnsFile(t *testing.T) {
	t.Parallel()

	store := &stubDigitalStore{
		grant: &models.DigitalDelivery{
			DownloadToken: "tok-1",
			MaxDownloads:  3,
			DownloadCount: 1,
			File:          types.DigitalFile{URL: "https://cdn.logashop.dev/ebook.pdf", Name: "ebook.pdf", SizeBytes: 1024},
		},
		recorded: true,
	}
	handler := RedeemDownload(store, controllerTestLogger())

	w := httptest.NewRecorder()
	handler(w, downloadRequest("tok-1"))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var envelope struct {
		Data downloadResponse `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.FileURL != "https://cdn.logashop.dev/ebook.pdf" {
		t.Fatalf("file url = %q", envelope.Data.FileURL)
	}
	if envelope.Data.DownloadsLeft == nil || *envelope.Data.DownloadsLeft != 1 {
		t.Fatalf("downloads left = %+v", envelope.Data.DownloadsLeft)
	}
}

func TestRedeemDownload_UnknownToken(t *testing.T) {
	t.Parallel()

	handler := RedeemDownload(&stubDigitalStore{}, controllerTestLogger())
	w := httptest.NewRecorder()
	handler(w, downloadRequest("missing"))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestRedeemDownload_ExhaustedGrant(t *testing.T) {
	t.Parallel()

	store := &stubDigitalStore{
		grant: &models.DigitalDelivery{
			DownloadToken: "tok-1",
			MaxDownloads:  2,
			DownloadCount: 2,
			File:          types.DigitalFile{URL: "https://cdn.logashop.dev/ebook.pdf", Name: "ebook.pdf"},
		},
	}
	handler := RedeemDownload(store, controllerTestLogger())

	w := httptest.NewRecorder()
	handler(w, downloadRequest("tok-1"))

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestRedeemDownload_ExpiredGrant(t *testing.T) {
	t.Parallel()

	expired := time.Now().UTC().Add(-time.Hour)
	store := &stubDigitalStore{
		grant: &models.DigitalDelivery{
			DownloadToken: "tok-1",
			ExpiresAt:     &expired,
			File:          types.DigitalFile{URL: "https://cdn.logashop.dev/ebook.pdf", Name: "ebook.pdf"},
		},
	}
	handler := RedeemDownload(store, controllerTestLogger())

	w := httptest.NewRecorder()
	handler(w, downloadRequest("tok-1"))

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestRedeemDownload_LosesCounterRace(t *testing.T) {
	t.Parallel()

	store := &stubDigitalStore{
		grant: &models.DigitalDelivery{
			DownloadToken: "tok-1",
			MaxDownloads:  1,
			File:          types.DigitalFile{URL: "https://cdn.logashop.dev/ebook.pdf", Name: "ebook.pdf"},
		},
		recorded: false,
	}
	handler := RedeemDownload(store, controllerTestLogger())

	w := httptest.NewRecorder()
	handler(w, downloadRequest("tok-1"))

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d", w.Code)
	}
}
