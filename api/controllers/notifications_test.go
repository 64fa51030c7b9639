package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/zalar2202/logashop/internal/notifications"
)

type stubNotificationsService struct {
	lastParams notifications.ListParams
	markedUser uuid.UUID
	markedID   uuid.UUID
	err        error
}

func (s *stubNotificationsService) List(_ context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	s.lastParams = params
	if s.err != nil {
		return nil, s.err
	}
	return &notifications.ListResult{}, nil
}

func (s *stubNotificationsService) MarkRead(_ context.Context, userID, notificationID uuid.UUID) error {
	s.markedUser = userID
	s.markedID = notificationID
	return s.err
}

func TestListNotifications_RequiresAuth(t *testing.T) {
	t.Parallel()

	handler := ListNotifications(&stubNotificationsService{}, controllerTestLogger())
	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestListNotifications_ForwardsFilters(t *testing.T) {
	t.Parallel()

	svc := &stubNotificationsService{}
	handler := ListNotifications(svc, controllerTestLogger())

	userID := uuid.New()
	w := httptest.NewRecorder()
	handler(w, authedRequest(http.MethodGet, "/api/v1/notifications?limit=10&unreadOnly=true", userID))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if svc.lastParams.UserID != userID {
		t.Fatalf("user id = %s", svc.lastParams.UserID)
	}
	if svc.lastParams.Limit != 10 || !svc.lastParams.UnreadOnly {
		t.Fatalf("params = %+v", svc.lastParams)
	}
}

func TestMarkNotificationRead(t *testing.T) {
	t.Parallel()

	svc := &stubNotificationsService{}
	handler := MarkNotificationRead(svc, controllerTestLogger())

	userID := uuid.New()
	notificationID := uuid.New()
	req := authedRequest(http.MethodPost, "/api/v1/notifications/"+notificationID.String()+"/read", userID)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("notificationId", notificationID.String())
	w := httptest.NewRecorder()
	handler(w, req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if svc.markedUser != userID || svc.markedID != notificationID {
		t.Fatalf("marked %s/%s", svc.markedUser, svc.markedID)
	}
}

func TestMarkNotificationRead_InvalidID(t *testing.T) {
	t.Parallel()

	handler := MarkNotificationRead(&stubNotificationsService{}, controllerTestLogger())

	req := authedRequest(http.MethodPost, "/api/v1/notifications/nope/read", uuid.New())
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("notificationId", "nope")
	w := httptest.NewRecorder()
	handler(w, req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}
