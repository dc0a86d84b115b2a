// Package kb is the static inquiry-response knowledge base: a keyword
// scored lookup from message text to a canned response.
package kb

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/kornthana/orderdesk-agent/engine/contract"
)

// Entry is one answerable topic. TimeAware entries get an open/closed
// note appended when the knowledge base carries a schedule.
type Entry struct {
	Topic     string
	Keywords  []string
	Response  string
	TimeAware bool
}

// Schedule is the weekday opening window, hours in local time.
type Schedule struct {
	OpenHour  int
	CloseHour int
}

// OpenAt reports whether the business is open at t: weekdays only,
// close hour exclusive.
func (s Schedule) OpenAt(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return t.Hour() >= s.OpenHour && t.Hour() < s.CloseHour
}

func (s Schedule) validate() error {
	if s.OpenHour < 0 || s.CloseHour > 24 || s.OpenHour >= s.CloseHour {
		return fmt.Errorf("%w: schedule %d-%d is not a valid opening window", contractx.ErrConfiguration, s.OpenHour, s.CloseHour)
	}
	return nil
}

// KB scores entries by keyword hits and answers with the best match.
type KB struct {
	entries  []Entry
	schedule *Schedule
	now      func() time.Time
}

// Option configures a KB at construction.
type Option func(*KB)

// WithSchedule makes TimeAware entries report live open/closed status.
func WithSchedule(s Schedule) Option {
	return func(k *KB) { k.schedule = &s }
}

// WithClock overrides the clock used for schedule checks.
func WithClock(now func() time.Time) Option {
	return func(k *KB) { k.now = now }
}

// New validates entries at startup; a malformed knowledge base is a
// configuration error and must fail fast.
func New(entries []Entry, opts ...Option) (*KB, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: knowledge base has no entries", contractx.ErrConfiguration)
	}
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e.Topic) == "" {
			return nil, fmt.Errorf("%w: knowledge base entry without topic", contractx.ErrConfiguration)
		}
		if _, dup := seen[e.Topic]; dup {
			return nil, fmt.Errorf("%w: duplicate knowledge base topic %q", contractx.ErrConfiguration, e.Topic)
		}
		seen[e.Topic] = struct{}{}
		if len(e.Keywords) == 0 || strings.TrimSpace(e.Response) == "" {
			return nil, fmt.Errorf("%w: knowledge base topic %q missing keywords or response", contractx.ErrConfiguration, e.Topic)
		}
	}
	k := &KB{entries: entries, now: time.Now}
	for _, opt := range opts {
		opt(k)
	}
	if k.schedule != nil {
		if err := k.schedule.validate(); err != nil {
			return nil, err
		}
	}
	return k, nil
}

// Lookup returns the highest-scoring response and ok=false on a miss.
func (k *KB) Lookup(text string) (string, bool) {
	lowered := strings.ToLower(text)

	best := -1
	bestScore := 0
	for i, e := range k.entries {
		score := 0
		for _, kw := range e.Keywords {
			if strings.Contains(lowered, strings.ToLower(kw)) {
				score++
			}
		}
		if score > bestScore {
			best = i
			bestScore = score
		}
	}
	if best < 0 {
		return "", false
	}
	entry := k.entries[best]
	if entry.TimeAware && k.schedule != nil {
		if k.schedule.OpenAt(k.now()) {
			return entry.Response + " We are currently open.", true
		}
		return entry.Response + " We are currently closed, but I can still take your order.", true
	}
	return entry.Response, true
}

// DefaultEntries is the out-of-the-box topic set; integrators replace it
// through configuration.
func DefaultEntries(businessHours, contactEmail string) []Entry {
	return []Entry{
		{
			Topic:     "hours",
			Keywords:  []string{"hours", "open", "close", "when", "working"},
			Response:  fmt.Sprintf("Our business hours are %s.", businessHours),
			TimeAware: true,
		},
		{
			Topic:     "contact",
			Keywords:  []string{"contact", "phone", "email", "reach", "call"},
			Response:  fmt.Sprintf("You can reach our team at %s.", contactEmail),
			TimeAware: true,
		},
		{
			Topic:    "delivery",
			Keywords: []string{"delivery", "shipping", "ship", "deliver"},
			Response: "Standard delivery takes 3-5 business days. Express options are available at checkout.",
		},
		{
			Topic:    "payment",
			Keywords: []string{"payment", "pay", "price", "cost", "credit"},
			Response: "We accept card payment and bank transfer. Pricing is confirmed in your order summary before you confirm.",
		},
		{
			Topic:    "returns",
			Keywords: []string{"return", "refund", "exchange", "warranty"},
			Response: "Unused items can be returned within 30 days for a full refund.",
		},
		{
			Topic:    "products",
			Keywords: []string{"products", "catalog", "items", "sell", "available"},
			Response: "Reply with \"order\" and I will walk you through our catalog step by step.",
		},
	}
}
