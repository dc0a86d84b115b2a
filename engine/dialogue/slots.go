// Package dialogue holds the per-message state machine at the heart of
// the conversation engine: an exhaustive (stage, intent) transition
// table over a configured slot sequence.
package dialogue

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	contractx "github.com/kornthana/orderdesk-agent/engine/contract"
)

type SlotKind string

const (
	SlotText     SlotKind = "text"
	SlotQuantity SlotKind = "quantity"
	SlotProduct  SlotKind = "product"
)

// SlotSpec is one named piece of information required to complete an
// order, with its prompt and validation rule.
type SlotSpec struct {
	Name   string
	Kind   SlotKind
	Prompt string
	// Hint is appended to the validation-error reprompt.
	Hint string

	// Quantity bounds; only meaningful for SlotQuantity.
	Min int
	Max int
}

// Parse validates and normalizes a raw customer answer for this slot.
// Failures wrap contract.ErrValidation and carry the corrective message.
// Product catalog membership is checked by the machine, not here.
func (s SlotSpec) Parse(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", fmt.Errorf("%w: %s cannot be empty", contractx.ErrValidation, s.Name)
	}

	switch s.Kind {
	case SlotQuantity:
		n, err := strconv.Atoi(value)
		if err != nil {
			return "", fmt.Errorf("%w: %q is not a whole number", contractx.ErrValidation, value)
		}
		if n < s.Min || n > s.Max {
			return "", fmt.Errorf("%w: quantity must be between %d and %d", contractx.ErrValidation, s.Min, s.Max)
		}
		return strconv.Itoa(n), nil
	case SlotText, SlotProduct:
		return value, nil
	default:
		return "", fmt.Errorf("%w: unknown slot kind %q", contractx.ErrConfiguration, s.Kind)
	}
}

// Config fixes the state-machine shape: the ordered slot sequence, the
// per-stage retry budget, and the idle timeout after which a stale draft
// is abandoned.
type Config struct {
	Slots       []SlotSpec
	MaxRetries  int
	IdleTimeout time.Duration
}

// DefaultConfig is the product / quantity / address sequence the
// integrator can override wholesale.
func DefaultConfig() Config {
	return Config{
		Slots: []SlotSpec{
			{
				Name:   "product",
				Kind:   SlotProduct,
				Prompt: "Which product would you like to order?",
				Hint:   "Please send the product name.",
			},
			{
				Name:   "quantity",
				Kind:   SlotQuantity,
				Prompt: "How many would you like?",
				Hint:   "Please send a whole number.",
				Min:    1,
				Max:    100,
			},
			{
				Name:   "address",
				Kind:   SlotText,
				Prompt: "Where should we deliver your order?",
				Hint:   "Please send the full delivery address.",
			},
		},
		MaxRetries:  3,
		IdleTimeout: 30 * time.Minute,
	}
}

func (c Config) Validate() error {
	if len(c.Slots) == 0 {
		return fmt.Errorf("%w: slot sequence is empty", contractx.ErrConfiguration)
	}
	seen := make(map[string]struct{}, len(c.Slots))
	for _, s := range c.Slots {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			return fmt.Errorf("%w: slot without name", contractx.ErrConfiguration)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: duplicate slot %q", contractx.ErrConfiguration, name)
		}
		seen[name] = struct{}{}
		if strings.TrimSpace(s.Prompt) == "" {
			return fmt.Errorf("%w: slot %q has no prompt", contractx.ErrConfiguration, name)
		}
		switch s.Kind {
		case SlotText, SlotProduct:
		case SlotQuantity:
			if s.Min <= 0 || s.Max < s.Min {
				return fmt.Errorf("%w: slot %q has invalid quantity bounds [%d, %d]", contractx.ErrConfiguration, name, s.Min, s.Max)
			}
		default:
			return fmt.Errorf("%w: slot %q has unknown kind %q", contractx.ErrConfiguration, name, s.Kind)
		}
	}
	if c.MaxRetries <= 0 {
		return fmt.Errorf("%w: max retries must be positive", contractx.ErrConfiguration)
	}
	return nil
}

func (c Config) firstSlot() SlotSpec {
	return c.Slots[0]
}

func (c Config) slot(name string) (SlotSpec, bool) {
	for _, s := range c.Slots {
		if s.Name == name {
			return s, true
		}
	}
	return SlotSpec{}, false
}

// nextSlot returns the slot after name in the fixed sequence, or
// ok=false when name is the last one.
func (c Config) nextSlot(name string) (SlotSpec, bool) {
	for i, s := range c.Slots {
		if s.Name == name && i+1 < len(c.Slots) {
			return c.Slots[i+1], true
		}
	}
	return SlotSpec{}, false
}
