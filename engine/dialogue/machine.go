package dialogue

import (
	"context"
	"errors"
	"fmt"

	contractx "github.com/kornthana/orderdesk-agent/engine/contract"
	intentx "github.com/kornthana/orderdesk-agent/engine/intent"
	statex "github.com/kornthana/orderdesk-agent/engine/state"
)

// Outcome is the computed result of one transition: the reply to send
// and whether the order assembler must run before the state is final.
type Outcome struct {
	Reply string
	// Submit asks the orchestrator to finalize the draft through the
	// order assembler; the terminal stage depends on its verdict.
	Submit bool
}

// Machine computes (next stage, reply) from (stage, intent). For a fixed
// catalog the computation is deterministic in (stage, intent, draft).
type Machine struct {
	cfg     Config
	catalog contractx.Catalog
	kb      contractx.KnowledgeBase
	orders  contractx.OrderRepository
}

func NewMachine(cfg Config, catalog contractx.Catalog, kb contractx.KnowledgeBase, orders contractx.OrderRepository) (*Machine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if catalog == nil {
		return nil, fmt.Errorf("%w: catalog is required", contractx.ErrConfiguration)
	}
	if kb == nil {
		return nil, fmt.Errorf("%w: knowledge base is required", contractx.ErrConfiguration)
	}
	if orders == nil {
		return nil, fmt.Errorf("%w: order repository is required", contractx.ErrConfiguration)
	}
	return &Machine{cfg: cfg, catalog: catalog, kb: kb, orders: orders}, nil
}

func (m *Machine) Config() Config {
	return m.cfg
}

// Step mutates st in place and returns the outcome. The table is total:
// every (stage, intent) pair has a defined row, including unknown.
func (m *Machine) Step(ctx context.Context, st *statex.DialogueState, in intentx.Intent, text string) (Outcome, error) {
	if st == nil {
		return Outcome{}, statex.ErrNilState
	}

	switch in {
	case intentx.IntentCancel:
		st.Stage = statex.StageCancelled
		st.Slot = ""
		st.Retries = 0
		return Outcome{Reply: replyCancelled}, nil

	case intentx.IntentConfirm:
		if st.Stage != statex.StageConfirming {
			return Outcome{Reply: m.stageClarification(st)}, nil
		}
		return Outcome{Submit: true}, nil

	case intentx.IntentStartOrder:
		if st.Stage == statex.StageAwaitingSlot || st.Stage == statex.StageConfirming {
			return Outcome{Reply: alreadyOrderingReply(m.currentPrompt(st))}, nil
		}
		first := m.cfg.firstSlot()
		st.Stage = statex.StageAwaitingSlot
		st.Slot = first.Name
		st.Retries = 0
		return Outcome{Reply: first.Prompt}, nil

	case intentx.IntentSlotValue:
		return m.fillSlot(ctx, st, text)

	case intentx.IntentInquiry:
		if answer, ok := m.kb.Lookup(text); ok {
			return Outcome{Reply: answer}, nil
		}
		return Outcome{Reply: replyIdleHelp}, nil

	case intentx.IntentGreeting:
		return Outcome{Reply: replyGreeting}, nil

	case intentx.IntentOrderStatus:
		return m.orderStatus(ctx, text)

	default:
		return Outcome{Reply: m.stageClarification(st)}, nil
	}
}

func (m *Machine) fillSlot(ctx context.Context, st *statex.DialogueState, text string) (Outcome, error) {
	if st.Stage != statex.StageAwaitingSlot {
		return Outcome{Reply: m.stageClarification(st)}, nil
	}
	spec, ok := m.cfg.slot(st.Slot)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: state references unknown slot %q", contractx.ErrConfiguration, st.Slot)
	}

	value, err := spec.Parse(text)
	if err == nil && spec.Kind == SlotProduct {
		value, err = m.checkProduct(ctx, value)
	}
	if err != nil {
		if !errors.Is(err, contractx.ErrValidation) {
			return Outcome{}, err
		}
		st.Retries++
		if st.Retries > m.cfg.MaxRetries {
			st.Stage = statex.StageCancelled
			st.Slot = ""
			st.Retries = 0
			return Outcome{Reply: replyEscalation}, nil
		}
		return Outcome{Reply: m.slotReprompt(spec, validationMessage(err))}, nil
	}

	st.SetSlotValue(spec.Name, value)
	st.Retries = 0

	if next, more := m.cfg.nextSlot(spec.Name); more {
		st.Slot = next.Name
		return Outcome{Reply: next.Prompt}, nil
	}

	st.Stage = statex.StageConfirming
	st.Slot = ""
	return Outcome{Reply: m.summaryReply(st.Draft)}, nil
}

// checkProduct rejects products the catalog definitively does not carry.
// A transient catalog failure accepts the value provisionally; the
// assembler rechecks at confirmation time.
func (m *Machine) checkProduct(ctx context.Context, name string) (string, error) {
	product, err := m.catalog.Lookup(ctx, name)
	switch {
	case err == nil:
		return product.Name, nil
	case errors.Is(err, contractx.ErrProductNotFound):
		return "", fmt.Errorf("%w: we do not carry %q", contractx.ErrValidation, name)
	default:
		return name, nil
	}
}

func (m *Machine) orderStatus(ctx context.Context, text string) (Outcome, error) {
	orderID := intentx.ExtractOrderID(text)
	if orderID == "" {
		return Outcome{Reply: "Please send your order number (it looks like ORD-1A2B3C4D) and I will check on it."}, nil
	}
	order, err := m.orders.Find(ctx, orderID)
	if err != nil {
		return Outcome{Reply: replyTransient}, nil
	}
	if order == nil {
		return Outcome{Reply: fmt.Sprintf("I could not find an order %s. Please double-check the number.", orderID)}, nil
	}
	return Outcome{Reply: fmt.Sprintf("Order %s (%d x %s) is currently %s.", order.ID, order.Quantity, order.Product, order.Status)}, nil
}

// ResolveCompleted finishes the dialogue after the assembler accepted
// the draft. The stage is terminal; the next message starts over.
func (m *Machine) ResolveCompleted(st *statex.DialogueState, orderID string) Outcome {
	st.Stage = statex.StageCompleted
	st.Slot = ""
	st.Retries = 0
	return Outcome{Reply: completionReply(orderID)}
}

// ResolveRejected sends the dialogue back to the first slot the
// assembler rejected, discarding only that slot's value.
func (m *Machine) ResolveRejected(st *statex.DialogueState, slot, message string) Outcome {
	spec, ok := m.cfg.slot(slot)
	if !ok {
		spec = m.cfg.firstSlot()
	}
	st.Stage = statex.StageAwaitingSlot
	st.Slot = spec.Name
	st.Retries = 0
	st.EnsureDraft()
	delete(st.Draft, spec.Name)
	return Outcome{Reply: fmt.Sprintf("Sorry, %s. %s", message, spec.Prompt)}
}

// ResolveDeferred keeps the confirmation pending after a transient
// submission failure: the draft survives and the next "confirm" retries.
func (m *Machine) ResolveDeferred(st *statex.DialogueState) Outcome {
	st.Stage = statex.StageConfirming
	st.Slot = ""
	return Outcome{Reply: replyTransient}
}

func (m *Machine) currentPrompt(st *statex.DialogueState) string {
	if st.Stage == statex.StageConfirming {
		return replyConfirmNag
	}
	if spec, ok := m.cfg.slot(st.Slot); ok {
		return spec.Prompt
	}
	return replyIdleHelp
}

func (m *Machine) stageClarification(st *statex.DialogueState) string {
	switch st.Stage {
	case statex.StageConfirming:
		return m.clarification(SlotSpec{}, true)
	case statex.StageAwaitingSlot:
		spec, _ := m.cfg.slot(st.Slot)
		return m.clarification(spec, false)
	default:
		return m.clarification(SlotSpec{}, false)
	}
}

// validationMessage strips the sentinel prefix so the customer sees only
// the corrective part.
func validationMessage(err error) string {
	msg := err.Error()
	prefix := contractx.ErrValidation.Error() + ": "
	if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
		return "Sorry, " + msg[len(prefix):] + "."
	}
	return "Sorry, that does not look right."
}
