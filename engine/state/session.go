package state

import (
	"errors"
	"fmt"
	"time"
)

// Stage is the customer's position in the order-collection dialogue.
type Stage string

const (
	StageIdle         Stage = "idle"
	StageAwaitingSlot Stage = "awaiting_slot"
	StageConfirming   Stage = "awaiting_confirmation"
	StageCompleted    Stage = "completed"
	StageCancelled    Stage = "cancelled"
)

// Terminal reports whether the stage ends the current dialogue. The next
// inbound message starts over from StageIdle with an empty draft.
func (s Stage) Terminal() bool {
	return s == StageCompleted || s == StageCancelled
}

// DialogueState is the per-customer source of truth for the conversation
// engine. The store holds at most one per customer id; all mutation goes
// through a versioned compare-and-swap, so every transition is computed
// against a consistent snapshot and written all-or-nothing.
type DialogueState struct {
	CustomerID string `json:"customer_id"`

	Stage Stage  `json:"stage"`
	Slot  string `json:"slot,omitempty"` // filled slot cursor while StageAwaitingSlot

	Draft map[string]string `json:"draft,omitempty"`

	// LastMessageID is the highest transport message id already
	// processed; it doubles as the dedup watermark.
	LastMessageID string    `json:"last_message_id,omitempty"`
	LastActivity  time.Time `json:"last_activity"`

	// RecentMessageIDs is a bounded tail of processed message ids, for
	// equality dedup when the transport's ids carry no ordering.
	RecentMessageIDs []string `json:"recent_message_ids,omitempty"`

	// Retries counts failed attempts in the current stage.
	Retries int `json:"retries,omitempty"`

	// Version increases by one on every successful store write.
	Version int64 `json:"version"`
}

var (
	ErrInvalidCustomer = errors.New("customer id is empty")
	ErrNilState        = errors.New("dialogue state is nil")
	ErrStateNotFound   = errors.New("dialogue state not found")
	ErrVersionConflict = errors.New("dialogue state version conflict")
)

func NewDialogueState(customerID string, now time.Time) *DialogueState {
	return &DialogueState{
		CustomerID:   customerID,
		Stage:        StageIdle,
		Draft:        make(map[string]string, 4),
		LastActivity: now.UTC(),
	}
}

func (s *DialogueState) Touch(now time.Time) {
	s.LastActivity = now.UTC()
}

func (s *DialogueState) EnsureDraft() {
	if s.Draft == nil {
		s.Draft = make(map[string]string, 4)
	}
}

// SetSlotValue records a collected slot value on the draft.
func (s *DialogueState) SetSlotValue(slot, value string) {
	s.EnsureDraft()
	s.Draft[slot] = value
}

// Reset abandons the current dialogue: stage back to idle, empty draft,
// retry count cleared. The dedup watermark, recent-id tail, and version
// survive so that re-deliveries stay silent across dialogue boundaries.
func (s *DialogueState) Reset(now time.Time) {
	s.Stage = StageIdle
	s.Slot = ""
	s.Draft = make(map[string]string, 4)
	s.Retries = 0
	s.Touch(now)
}

// Expired reports whether the state has sat idle past the threshold.
// Evaluated lazily at transition time; no background sweeping.
func (s *DialogueState) Expired(now time.Time, idleTimeout time.Duration) bool {
	if idleTimeout <= 0 {
		return false
	}
	return now.UTC().Sub(s.LastActivity) > idleTimeout
}

// recentMessageIDCap bounds RecentMessageIDs; old entries drop off once
// the transport's re-delivery window has safely passed.
const recentMessageIDCap = 32

// Seen reports whether messageID equals or precedes the dedup watermark.
// Only valid for per-customer monotonic ids; length-then-lexicographic
// comparison keeps plain and zero-padded numeric ids ordered alike.
// Transports with unordered ids use SeenExact instead.
func (s *DialogueState) Seen(messageID string) bool {
	if messageID == "" {
		return false
	}
	if s.seenRecently(messageID) {
		return true
	}
	if s.LastMessageID == "" {
		return false
	}
	return !precedes(s.LastMessageID, messageID)
}

// SeenExact reports whether messageID matches a recently processed id.
// This is the dedup check for transports whose message ids are unique
// but carry no per-customer ordering (random provider sids).
func (s *DialogueState) SeenExact(messageID string) bool {
	if messageID == "" {
		return false
	}
	return s.seenRecently(messageID)
}

func (s *DialogueState) seenRecently(messageID string) bool {
	for _, id := range s.RecentMessageIDs {
		if id == messageID {
			return true
		}
	}
	return false
}

// MarkProcessed advances the dedup watermark and records the id in the
// bounded recent tail.
func (s *DialogueState) MarkProcessed(messageID string) {
	if messageID == "" {
		return
	}
	if s.LastMessageID == "" || precedes(s.LastMessageID, messageID) {
		s.LastMessageID = messageID
	}
	if !s.seenRecently(messageID) {
		s.RecentMessageIDs = append(s.RecentMessageIDs, messageID)
		if len(s.RecentMessageIDs) > recentMessageIDCap {
			s.RecentMessageIDs = s.RecentMessageIDs[len(s.RecentMessageIDs)-recentMessageIDCap:]
		}
	}
}

func precedes(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

// Validate rejects snapshots that would pair an incremented version with
// an inconsistent stage/draft.
func (s *DialogueState) Validate() error {
	if s == nil {
		return ErrNilState
	}
	if s.CustomerID == "" {
		return ErrInvalidCustomer
	}
	switch s.Stage {
	case StageIdle, StageAwaitingSlot, StageConfirming, StageCompleted, StageCancelled:
	default:
		return fmt.Errorf("unknown stage %q", s.Stage)
	}
	if s.Stage == StageAwaitingSlot && s.Slot == "" {
		return errors.New("awaiting_slot stage requires a slot cursor")
	}
	if s.Stage != StageAwaitingSlot && s.Slot != "" {
		return fmt.Errorf("stage %q must not carry a slot cursor", s.Stage)
	}
	if s.Retries < 0 {
		return errors.New("negative retry count")
	}
	if s.Version < 0 {
		return errors.New("negative version")
	}
	return nil
}

// Clone returns a deep copy safe to mutate while the original backs a
// store snapshot.
func (s *DialogueState) Clone() *DialogueState {
	if s == nil {
		return nil
	}
	out := *s
	out.Draft = make(map[string]string, len(s.Draft))
	for k, v := range s.Draft {
		out.Draft[k] = v
	}
	out.RecentMessageIDs = append([]string(nil), s.RecentMessageIDs...)
	return &out
}
