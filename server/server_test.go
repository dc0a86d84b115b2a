package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	contractx "github.com/kornthana/orderdesk-agent/engine/contract"
	conversationx "github.com/kornthana/orderdesk-agent/engine/conversation"
	dialoguex "github.com/kornthana/orderdesk-agent/engine/dialogue"
	kbx "github.com/kornthana/orderdesk-agent/engine/kb"
	orderx "github.com/kornthana/orderdesk-agent/engine/order"
	statex "github.com/kornthana/orderdesk-agent/engine/state"
	storagex "github.com/kornthana/orderdesk-agent/storage"
)

type recordingTransport struct {
	mu       sync.Mutex
	sends    []string
	failures int
}

func (r *recordingTransport) Send(_ context.Context, customerID string, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failures > 0 {
		r.failures--
		return fmt.Errorf("transport down")
	}
	r.sends = append(r.sends, customerID+": "+text)
	return nil
}

func (r *recordingTransport) sent() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.sends...)
}

func newTestServer(t *testing.T, transport *recordingTransport) (*Server, *storagex.MemoryLog) {
	t.Helper()

	orders := storagex.NewMemoryOrders()
	catalog := orderx.NewStaticCatalog([]contractx.Product{
		{Name: "Widget", InStock: true},
	})
	kb, err := kbx.New(kbx.DefaultEntries("Mon-Fri 9:00-18:00", "support@example.com"))
	if err != nil {
		t.Fatalf("kb: %v", err)
	}

	cfg := dialoguex.DefaultConfig()
	machine, err := dialoguex.NewMachine(cfg, catalog, kb, orders)
	if err != nil {
		t.Fatalf("machine: %v", err)
	}
	assembler, err := orderx.NewAssembler(cfg, catalog, orders)
	if err != nil {
		t.Fatalf("assembler: %v", err)
	}

	history := storagex.NewMemoryLog()
	engine, err := conversationx.New(statex.NewMemoryStore(), machine, assembler, storagex.NewMemoryCustomers(), history, nil, conversationx.Config{
		UnorderedMessageIDs: true,
	})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}

	srv, err := New(Config{
		Addr:        ":0",
		VerifyToken: "hook-secret",
		SendRetries: 3,
		SendBackoff: time.Millisecond,
	}, engine, transport, history, nil)
	if err != nil {
		t.Fatalf("server: %v", err)
	}
	return srv, history
}

func webhookForm(sid, from, body string) *http.Request {
	form := url.Values{}
	form.Set("MessageSid", sid)
	form.Set("From", from)
	form.Set("ProfileName", "Pat")
	form.Set("Body", body)
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestWebhookRepliesOverTransport(t *testing.T) {
	t.Parallel()

	transport := &recordingTransport{}
	srv, history := newTestServer(t, transport)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, webhookForm("SM0001", "whatsapp:+15550001111", "I want to place an order"))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}

	sends := transport.sent()
	if len(sends) != 1 {
		t.Fatalf("expected one outbound send, got %d", len(sends))
	}
	if !strings.Contains(sends[0], "Which product") {
		t.Fatalf("unexpected reply: %s", sends[0])
	}

	// Both directions were logged.
	entries, err := history.Recent(context.Background(), "+15550001111", 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected incoming and outgoing entries, got %d", len(entries))
	}
	if entries[0].Direction != contractx.DirectionOutgoing || entries[1].Direction != contractx.DirectionIncoming {
		t.Fatalf("unexpected directions: %+v", entries)
	}
}

func TestWebhookDuplicateSendsNothing(t *testing.T) {
	t.Parallel()

	transport := &recordingTransport{}
	srv, _ := newTestServer(t, transport)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, webhookForm("SM0001", "whatsapp:+15550001111", "hello"))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
	}
	if got := len(transport.sent()); got != 1 {
		t.Fatalf("re-delivery must not send a second reply, got %d sends", got)
	}
}

func TestWebhookRetriesTransport(t *testing.T) {
	t.Parallel()

	transport := &recordingTransport{failures: 2}
	srv, _ := newTestServer(t, transport)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, webhookForm("SM0001", "whatsapp:+15550001111", "hello"))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if got := len(transport.sent()); got != 1 {
		t.Fatalf("expected delivery on the third attempt, got %d sends", got)
	}
}

func TestWebhookRejectsMalformedPost(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, &recordingTransport{})

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("Body=hi"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestVerifyHandshake(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, &recordingTransport{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/webhook?hub.verify_token=hook-secret&hub.challenge=12345", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "12345" {
		t.Fatalf("expected challenge echo, got %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/webhook?hub.verify_token=wrong&hub.challenge=12345", nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a bad token, got %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, &recordingTransport{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("unexpected health response: %d %q", rec.Code, rec.Body.String())
	}
}
