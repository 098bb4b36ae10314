package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap/zaptest"

	"github.com/careloop/kiosk/domain/entities"
	"github.com/careloop/kiosk/internal/websocket"
	"github.com/careloop/kiosk/usecase"
)

type fakeController struct {
	status    usecase.Status
	session   entities.Session
	taps      int
	helps     int
	responded []entities.ResponseChoice
	respondOK bool
	spoken    []string
	speakErr  error
}

func (f *fakeController) Status() usecase.Status { return f.status }

func (f *fakeController) Session() entities.Session { return f.session }

func (f *fakeController) Tap(ctx context.Context) { f.taps++ }

func (f *fakeController) Respond(choice entities.ResponseChoice) bool {
	f.responded = append(f.responded, choice)
	return f.respondOK
}

func (f *fakeController) Help(ctx context.Context) { f.helps++ }

func (f *fakeController) SpeakText(ctx context.Context, text string) error {
	if f.speakErr != nil {
		return f.speakErr
	}
	f.spoken = append(f.spoken, text)
	return nil
}

func newTestAPI(t *testing.T, controller *fakeController) *echo.Echo {
	t.Helper()
	logger := zaptest.NewLogger(t)
	e := echo.New()
	hub := websocket.NewHub(logger)
	go hub.Run()
	InitRoutes(e, controller, hub, logger)
	return e
}

func TestHealth(t *testing.T) {
	e := newTestAPI(t, &fakeController{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "careloop-kiosk") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestStatusEndpoint(t *testing.T) {
	controller := &fakeController{status: usecase.Status{State: entities.StateWaiting, AwaitingAnswer: true}}
	e := newTestAPI(t, controller)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got usecase.Status
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.State != entities.StateWaiting || !got.AwaitingAnswer {
		t.Errorf("got = %+v", got)
	}
}

func TestSessionEndpoint(t *testing.T) {
	session := *entities.NewSession()
	session.AddEntry(entities.EntryRoleDevice, "Time for your medication.", "", "a1")
	controller := &fakeController{session: session}
	e := newTestAPI(t, controller)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got entities.Session
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ID != session.ID || len(got.Entries) != 1 {
		t.Errorf("got = %+v", got)
	}
	if got.Entries[0].Text != "Time for your medication." {
		t.Errorf("entry text = %q", got.Entries[0].Text)
	}
}

func TestTapEndpoint(t *testing.T) {
	controller := &fakeController{}
	e := newTestAPI(t, controller)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tap", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want 202", rec.Code)
	}
	if controller.taps != 1 {
		t.Errorf("taps = %d, want 1", controller.taps)
	}
}

func TestRespondEndpoint(t *testing.T) {
	controller := &fakeController{respondOK: true}
	e := newTestAPI(t, controller)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/respond", strings.NewReader(`{"response":"later"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if len(controller.responded) != 1 || controller.responded[0] != entities.ResponseLater {
		t.Errorf("responded = %v", controller.responded)
	}
}

func TestRespondNothingPending(t *testing.T) {
	controller := &fakeController{respondOK: false}
	e := newTestAPI(t, controller)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/respond", strings.NewReader(`{"response":"yes"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestRespondInvalidChoice(t *testing.T) {
	controller := &fakeController{respondOK: true}
	e := newTestAPI(t, controller)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/respond", strings.NewReader(`{"response":"maybe"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if len(controller.responded) != 0 {
		t.Errorf("responded = %v, want none", controller.responded)
	}
}

func TestHelpConfirmed(t *testing.T) {
	controller := &fakeController{}
	e := newTestAPI(t, controller)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/help", strings.NewReader(`{"confirm":true}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want 202", rec.Code)
	}
	if controller.helps != 1 {
		t.Errorf("helps = %d, want 1", controller.helps)
	}
}

func TestHelpDismissed(t *testing.T) {
	controller := &fakeController{}
	e := newTestAPI(t, controller)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/help", strings.NewReader(`{"confirm":false}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if controller.helps != 0 {
		t.Errorf("helps = %d, want 0 after dismissal", controller.helps)
	}
}

func TestSpeakEndpoint(t *testing.T) {
	controller := &fakeController{}
	e := newTestAPI(t, controller)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/speak", strings.NewReader(`{"text":"hello there"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if len(controller.spoken) != 1 || controller.spoken[0] != "hello there" {
		t.Errorf("spoken = %v", controller.spoken)
	}
}

func TestSpeakBusy(t *testing.T) {
	controller := &fakeController{speakErr: usecase.ErrBusy}
	e := newTestAPI(t, controller)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/speak", strings.NewReader(`{"text":"hello"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestSpeakMissingText(t *testing.T) {
	controller := &fakeController{}
	e := newTestAPI(t, controller)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/speak", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
