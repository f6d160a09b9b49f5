package telephony

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"bookline/internal/flow"

	"github.com/gin-gonic/gin"
)

type stubEngine struct {
	reply flow.Reply
	err   error
	last  flow.TurnInput
}

func (s *stubEngine) HandleTurn(ctx context.Context, in flow.TurnInput) (flow.Reply, error) {
	s.last = in
	return s.reply, s.err
}

func serveTurn(t *testing.T, h WebhookHandler, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/webhooks/twilio/voice", h.HandleVoiceTurn)

	req := httptest.NewRequest("POST", "/webhooks/twilio/voice", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandlerWritesGatherForOngoingTurn(t *testing.T) {
	engine := &stubEngine{reply: flow.Reply{Say: "What's your name?"}}
	h := WebhookHandler{Engine: engine, Render: testRenderer()}

	w := serveTurn(t, h, url.Values{"CallSid": {"CA123"}, "From": {"+12125550134"}})
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/xml") {
		t.Fatalf("content type %q", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, "<Gather") || !strings.Contains(body, "What&#39;s your name?") {
		t.Fatalf("expected a gather prompt, got\n%s", body)
	}
	if engine.last.CallID != "CA123" || engine.last.From != "+12125550134" {
		t.Fatalf("engine received %+v", engine.last)
	}
}

func TestHandlerWritesHangupForTerminalReply(t *testing.T) {
	engine := &stubEngine{reply: flow.Reply{Say: "You're all set. Goodbye!", Terminal: true}}
	h := WebhookHandler{Engine: engine, Render: testRenderer()}

	body := serveTurn(t, h, url.Values{"CallSid": {"CA123"}}).Body.String()
	if !strings.Contains(body, "<Hangup") || strings.Contains(body, "<Gather") {
		t.Fatalf("expected a hangup document, got\n%s", body)
	}
}

func TestHandlerServesFallbackWithoutCallSid(t *testing.T) {
	engine := &stubEngine{reply: flow.Reply{Say: "never used"}}
	h := WebhookHandler{Engine: engine, Render: testRenderer()}

	w := serveTurn(t, h, url.Values{"From": {"+12125550134"}})
	if w.Code != http.StatusOK {
		t.Fatalf("webhook must answer 200 even on bad input, got %d", w.Code)
	}
	if w.Body.String() != fallbackDocument {
		t.Fatalf("expected the fallback document, got\n%s", w.Body.String())
	}
	if engine.last.CallID != "" {
		t.Fatalf("engine must not run without a call sid")
	}
}

func TestHandlerSpeaksReplyEvenWhenEngineErrors(t *testing.T) {
	engine := &stubEngine{
		reply: flow.Reply{Say: "Sorry, something went wrong. Goodbye!", Terminal: true},
		err:   errors.New("flow: missing call id"),
	}
	h := WebhookHandler{Engine: engine, Render: testRenderer()}

	body := serveTurn(t, h, url.Values{"CallSid": {"CA123"}}).Body.String()
	if !strings.Contains(body, "Sorry, something went wrong") || !strings.Contains(body, "<Hangup") {
		t.Fatalf("expected the spoken error with hangup, got\n%s", body)
	}
}

func TestHandlerFallsBackWhenReplyEmpty(t *testing.T) {
	engine := &stubEngine{reply: flow.Reply{}, err: errors.New("boom")}
	h := WebhookHandler{Engine: engine, Render: testRenderer()}

	body := serveTurn(t, h, url.Values{"CallSid": {"CA123"}}).Body.String()
	if body != fallbackDocument {
		t.Fatalf("expected the fallback document, got\n%s", body)
	}
}
