// Package intent maps raw message text to a closed set of intents.
// Classification is pure and total: every input resolves to exactly one
// intent, with control keywords checked before the stage-aware
// slot-value fallback. Keyword ties resolve by fixed priority:
// cancel > confirm > order-status > start-order > inquiry > greeting.
package intent

import (
	"regexp"
	"strings"

	statex "github.com/kornthana/orderdesk-agent/engine/state"
)

type Intent string

const (
	IntentCancel      Intent = "cancel"
	IntentConfirm     Intent = "confirm"
	IntentStartOrder  Intent = "start_order"
	IntentOrderStatus Intent = "order_status"
	IntentInquiry     Intent = "inquiry"
	IntentGreeting    Intent = "greeting"
	IntentSlotValue   Intent = "provide_slot_value"
	IntentUnknown     Intent = "unknown"
)

var (
	cancelWords     = wordSet("cancel", "stop", "abort", "nevermind", "quit")
	confirmWords    = wordSet("confirm", "confirmed")
	affirmWords     = wordSet("yes", "yep", "yeah", "ok", "okay", "correct", "right", "sure")
	orderWords      = wordSet("order", "buy", "purchase")
	statusWords     = wordSet("status", "track", "tracking")
	inquiryWords    = wordSet("help", "support", "faq", "question", "hours", "open", "contact", "phone", "email", "delivery", "shipping", "payment", "price", "cost", "return", "refund", "products", "catalog")
	greetingWords   = wordSet("hello", "hi", "hey", "greetings")
	greetingPhrases = []string{"good morning", "good afternoon", "good evening"}
	startPhrases    = []string{"start order", "new order", "place an order", "i want to order", "i want to buy"}

	orderIDPattern = regexp.MustCompile(`(?i)\bord-[0-9a-z]+\b`)
)

// Classify resolves text to an intent given the current dialogue stage.
// The same literal text can classify differently by stage: "2" is a slot
// value while a slot is being collected and unknown while idle.
func Classify(text string, stage statex.Stage) Intent {
	normalized := normalize(text)
	if normalized == "" {
		return IntentUnknown
	}
	words := strings.Fields(normalized)

	switch {
	case hasAny(words, cancelWords):
		return IntentCancel
	case hasAny(words, confirmWords):
		return IntentConfirm
	case stage == statex.StageConfirming && hasAny(words, affirmWords):
		return IntentConfirm
	case hasAny(words, statusWords), orderIDPattern.MatchString(normalized):
		return IntentOrderStatus
	case hasAny(words, orderWords), hasPhrase(normalized, startPhrases):
		return IntentStartOrder
	case hasAny(words, inquiryWords):
		return IntentInquiry
	case hasAny(words, greetingWords), hasPhrase(normalized, greetingPhrases):
		return IntentGreeting
	case stage == statex.StageAwaitingSlot:
		// Anything else while collecting a slot is the customer
		// answering the prompt; validity is the machine's call.
		return IntentSlotValue
	default:
		return IntentUnknown
	}
}

// ExtractOrderID pulls an order reference like ORD-1A2B3C out of the
// text, uppercased, or returns "".
func ExtractOrderID(text string) string {
	match := orderIDPattern.FindString(text)
	return strings.ToUpper(match)
}

func normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(text))), " ")
}

func hasAny(words []string, set map[string]struct{}) bool {
	for _, w := range words {
		w = strings.Trim(w, ".,!?:;\"'")
		if _, ok := set[w]; ok {
			return true
		}
	}
	return false
}

func hasPhrase(normalized string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(normalized, p) {
			return true
		}
	}
	return false
}

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
