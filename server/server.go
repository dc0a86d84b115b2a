// Package server exposes the chat webhook over HTTP: the Twilio
// inbound webhook, the verification handshake, health, and metrics.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	contractx "github.com/kornthana/orderdesk-agent/engine/contract"
	conversationx "github.com/kornthana/orderdesk-agent/engine/conversation"
	metricsx "github.com/kornthana/orderdesk-agent/pkg/metrics"
	twiliox "github.com/kornthana/orderdesk-agent/pkg/twilio"
)

type Config struct {
	Addr            string        `split_words:"true" default:":8080"`
	VerifyToken     string        `split_words:"true"`
	ShutdownTimeout time.Duration `split_words:"true" default:"10s"`
	SendRetries     int           `split_words:"true" default:"3"`
	SendBackoff     time.Duration `split_words:"true" default:"500ms"`
}

type Server struct {
	cfg       Config
	engine    *conversationx.Engine
	transport contractx.Transport
	history   contractx.ConversationLog
	metrics   *metricsx.EngineMetrics
	http      *http.Server
}

func New(cfg Config, engine *conversationx.Engine, transport contractx.Transport, history contractx.ConversationLog, metrics *metricsx.EngineMetrics) (*Server, error) {
	if engine == nil {
		return nil, errors.New("server requires a conversation engine")
	}
	if transport == nil {
		return nil, errors.New("server requires a transport")
	}
	if cfg.SendRetries <= 0 {
		cfg.SendRetries = 3
	}
	if cfg.SendBackoff <= 0 {
		cfg.SendBackoff = 500 * time.Millisecond
	}

	s := &Server{
		cfg:       cfg,
		engine:    engine,
		transport: transport,
		history:   history,
		metrics:   metrics,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/webhook", s.handleVerify)
	r.Post("/webhook", s.handleWebhook)

	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s, nil
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleVerify answers the subscription handshake: echo hub.challenge
// when hub.verify_token matches the configured secret.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if s.cfg.VerifyToken == "" || token != s.cfg.VerifyToken {
		http.Error(w, "verification failed", http.StatusForbidden)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(challenge))
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	msg, err := twiliox.ParseInbound(r)
	if err != nil {
		log.Warn().Err(err).Msg("rejecting malformed webhook post")
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	reply, err := s.engine.Handle(r.Context(), msg)
	if err != nil {
		log.Error().Err(err).
			Str("customer_id", msg.CustomerID).
			Str("message_id", msg.MessageID).
			Msg("message handling failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if !reply.Dropped && reply.Text != "" {
		s.deliver(r.Context(), reply)
	}
	w.WriteHeader(http.StatusNoContent)
}

// deliver sends the reply with bounded backoff. A reply that cannot be
// delivered is logged and dropped; the dialogue state is already saved
// and the customer can always message again.
func (s *Server) deliver(ctx context.Context, reply contractx.OutboundReply) {
	var err error
	for attempt := 1; attempt <= s.cfg.SendRetries; attempt++ {
		if err = s.transport.Send(ctx, reply.CustomerID, reply.Text); err == nil {
			s.recordOutgoing(ctx, reply)
			return
		}
		s.metrics.ObserveSendFailure()
		if attempt < s.cfg.SendRetries {
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.cfg.SendBackoff * time.Duration(attempt)):
			}
		}
	}
	log.Error().Err(err).
		Str("customer_id", reply.CustomerID).
		Int("attempts", s.cfg.SendRetries).
		Msg("giving up on reply delivery")
}

func (s *Server) recordOutgoing(ctx context.Context, reply contractx.OutboundReply) {
	if s.history == nil {
		return
	}
	entry := contractx.LogEntry{
		CustomerID: reply.CustomerID,
		Direction:  contractx.DirectionOutgoing,
		Body:       reply.Text,
		At:         time.Now().UTC(),
	}
	if err := s.history.Record(ctx, entry); err != nil {
		log.Warn().Err(err).Str("customer_id", reply.CustomerID).Msg("outgoing log write failed")
	}
}
