// Package conversation is the orchestrator: it composes dedupe,
// classification, the state machine, order finalization, and the
// versioned store write into a single handle-message pipeline.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/kornthana/orderdesk-agent/engine/contract"
	dialoguex "github.com/kornthana/orderdesk-agent/engine/dialogue"
	intentx "github.com/kornthana/orderdesk-agent/engine/intent"
	nodex "github.com/kornthana/orderdesk-agent/engine/nodes"
	orderx "github.com/kornthana/orderdesk-agent/engine/order"
	statex "github.com/kornthana/orderdesk-agent/engine/state"
	metricsx "github.com/kornthana/orderdesk-agent/pkg/metrics"
)

const defaultMaxAttempts = 3

type Config struct {
	// MaxAttempts bounds compare-and-swap replays per message before
	// the failure is surfaced as transient.
	MaxAttempts int

	// UnorderedMessageIDs switches dedup from the watermark check to
	// exact matching against the recent-id tail. Set it when the
	// transport assigns random message ids (Twilio sids) instead of
	// per-customer monotonic ones.
	UnorderedMessageIDs bool
}

// Engine handles one inbound message per call. Transitions for
// different customers proceed fully in parallel; transitions for the
// same customer are linearized by the store's optimistic versioning,
// with at most one effective transition per message id.
type Engine struct {
	store     statex.Store
	machine   *dialoguex.Machine
	assembler *orderx.Assembler
	customers contractx.CustomerRepository
	history   contractx.ConversationLog
	metrics   *metricsx.EngineMetrics

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	maxAttempts int
	orderedIDs  bool
	now         func() time.Time
}

func New(
	store statex.Store,
	machine *dialoguex.Machine,
	assembler *orderx.Assembler,
	customers contractx.CustomerRepository,
	history contractx.ConversationLog,
	metrics *metricsx.EngineMetrics,
	cfg Config,
) (*Engine, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	if machine == nil {
		return nil, errors.New("dialogue machine is required")
	}
	if assembler == nil {
		return nil, errors.New("order assembler is required")
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	e := &Engine{
		store:       store,
		machine:     machine,
		assembler:   assembler,
		customers:   customers,
		history:     history,
		metrics:     metrics,
		maxAttempts: maxAttempts,
		orderedIDs:  !cfg.UnorderedMessageIDs,
		now:         time.Now,
	}

	graphRunner, err := e.compileHandleMessageGraph(context.Background())
	if err != nil {
		return nil, err
	}
	e.graphRunner = graphRunner

	return e, nil
}

// Handle runs one transition attempt pipeline, replaying on store
// version conflicts up to the attempt bound. Delivering the same
// message id twice yields exactly one reply: the second call drops.
func (e *Engine) Handle(ctx context.Context, msg contractx.InboundMessage) (contractx.OutboundReply, error) {
	var lastErr error
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		out, err := e.graphRunner.Invoke(ctx, nodex.GraphInput{Message: msg})
		if err == nil {
			e.observe(out)
			return out.Reply, nil
		}
		if !errors.Is(err, statex.ErrVersionConflict) {
			return contractx.OutboundReply{}, err
		}
		e.metrics.ObserveConflict()
		lastErr = err
	}
	return contractx.OutboundReply{}, fmt.Errorf("%w: transition conflicted %d times: %v", contractx.ErrTransient, e.maxAttempts, lastErr)
}

func (e *Engine) observe(out nodex.GraphOutput) {
	if out.Reply.Dropped {
		e.metrics.ObserveDuplicate()
		return
	}
	intent := out.Intent
	if intent == "" {
		intent = intentx.IntentUnknown
	}
	e.metrics.ObserveMessage(string(intent))
	e.metrics.ObserveReply()
	if out.Reply.OrderID != "" {
		e.metrics.ObserveOrder()
	}
}
