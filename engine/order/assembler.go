// Package order finalizes completed drafts into immutable orders.
package order

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	contractx "github.com/kornthana/orderdesk-agent/engine/contract"
	dialoguex "github.com/kornthana/orderdesk-agent/engine/dialogue"
)

// ValidationError names the first slot that failed finalization so the
// dialogue can jump straight back to it.
type ValidationError struct {
	Slot    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Slot, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return contractx.ErrValidation
}

// Assembler validates an accumulated draft against the slot schema and
// catalog, then submits it to order persistence. Persistence being
// unavailable is reported wrapping contract.ErrTransient so the caller
// keeps the draft and retries on the customer's next message.
type Assembler struct {
	cfg     dialoguex.Config
	catalog contractx.Catalog
	orders  contractx.OrderRepository

	newID func(customerID, messageID string) string
	now   func() time.Time
}

func NewAssembler(cfg dialoguex.Config, catalog contractx.Catalog, orders contractx.OrderRepository) (*Assembler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if catalog == nil {
		return nil, fmt.Errorf("%w: catalog is required", contractx.ErrConfiguration)
	}
	if orders == nil {
		return nil, fmt.Errorf("%w: order repository is required", contractx.ErrConfiguration)
	}
	return &Assembler{
		cfg:     cfg,
		catalog: catalog,
		orders:  orders,
		newID:   NewOrderID,
		now:     time.Now,
	}, nil
}

// NewOrderID derives a short human-quotable order reference from the
// confirming message's identity. Deterministic on purpose: a replayed
// confirmation (store conflict, transport re-delivery) mints the same
// reference instead of a second order.
func NewOrderID(customerID, messageID string) string {
	u := uuid.NewSHA1(uuid.NameSpaceURL, []byte("order/"+customerID+"/"+messageID))
	return "ORD-" + strings.ToUpper(u.String()[:8])
}

// Finalize validates every required slot, creates the order, and submits
// it. The returned order is immutable; corrections are new orders.
// messageID is the id of the confirming message; replaying it returns
// the already-created order rather than submitting a duplicate.
func (a *Assembler) Finalize(ctx context.Context, customerID, messageID string, draft map[string]string) (*contractx.Order, error) {
	if strings.TrimSpace(customerID) == "" {
		return nil, fmt.Errorf("%w: customer id is empty", contractx.ErrValidation)
	}
	if strings.TrimSpace(messageID) == "" {
		return nil, fmt.Errorf("%w: message id is empty", contractx.ErrValidation)
	}

	slots := make(map[string]string, len(a.cfg.Slots))
	for _, spec := range a.cfg.Slots {
		raw, ok := draft[spec.Name]
		if !ok || strings.TrimSpace(raw) == "" {
			return nil, &ValidationError{Slot: spec.Name, Message: "missing"}
		}
		value, err := spec.Parse(raw)
		if err != nil {
			return nil, &ValidationError{Slot: spec.Name, Message: validationDetail(err)}
		}
		if spec.Kind == dialoguex.SlotProduct {
			product, err := a.catalog.Lookup(ctx, value)
			if errors.Is(err, contractx.ErrProductNotFound) {
				return nil, &ValidationError{Slot: spec.Name, Message: fmt.Sprintf("we do not carry %q", value)}
			}
			if err != nil {
				return nil, fmt.Errorf("%w: catalog lookup: %v", contractx.ErrTransient, err)
			}
			value = product.Name
		}
		slots[spec.Name] = value
	}

	id := a.newID(customerID, messageID)
	existing, err := a.orders.Find(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: order lookup: %v", contractx.ErrTransient, err)
	}
	if existing != nil {
		// Replay of an already-submitted confirmation.
		return existing, nil
	}

	ord := &contractx.Order{
		ID:         id,
		CustomerID: customerID,
		Product:    slots["product"],
		Address:    slots["address"],
		Slots:      slots,
		Status:     "pending",
		CreatedAt:  a.now().UTC(),
	}
	if qty, err := strconv.Atoi(slots["quantity"]); err == nil {
		ord.Quantity = qty
	}

	if err := a.orders.Create(ctx, ord); err != nil {
		if errors.Is(err, contractx.ErrTransient) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: create order: %v", contractx.ErrTransient, err)
	}
	return ord, nil
}

func validationDetail(err error) string {
	msg := err.Error()
	prefix := contractx.ErrValidation.Error() + ": "
	if strings.HasPrefix(msg, prefix) {
		return strings.TrimPrefix(msg, prefix)
	}
	return msg
}
