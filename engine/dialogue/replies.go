package dialogue

import (
	"fmt"
	"strings"
)

const (
	replyCancelled  = "No problem, I have cancelled this order. Message me again whenever you are ready."
	replyEscalation = "I am having trouble understanding that. I have handed this conversation to a colleague who will follow up with you shortly."
	replyGreeting   = "Hello! I can help you place an order or answer questions about hours, delivery, payment, and returns. Just reply \"order\" to get started."
	replyIdleHelp   = "I can help you place an order or answer common questions. Reply \"order\" to start an order, or ask me about hours, delivery, payment, or returns."
	replyConfirmNag = "We are almost done. Reply \"confirm\" to place the order or \"cancel\" to discard it."
	replyTransient  = "Sorry, something went wrong on our side. Please try again in a moment."
)

func (m *Machine) summaryReply(draft map[string]string) string {
	var b strings.Builder
	b.WriteString("Here is your order:\n")
	for _, s := range m.cfg.Slots {
		fmt.Fprintf(&b, "- %s: %s\n", s.Name, draft[s.Name])
	}
	b.WriteString("Reply \"confirm\" to place it or \"cancel\" to discard it.")
	return b.String()
}

func (m *Machine) slotReprompt(spec SlotSpec, reason string) string {
	reply := reason
	if hint := strings.TrimSpace(spec.Hint); hint != "" {
		reply += " " + hint
	}
	return reply
}

// clarification names the currently expected input for the stage the
// customer is in, per the unknown-intent row of the transition table.
func (m *Machine) clarification(spec SlotSpec, confirming bool) string {
	if confirming {
		return replyConfirmNag
	}
	if spec.Name != "" {
		return fmt.Sprintf("Sorry, I did not catch that. %s", spec.Prompt)
	}
	return replyIdleHelp
}

func completionReply(orderID string) string {
	return fmt.Sprintf("Thank you! Your order %s has been placed. We will message you when it ships.", orderID)
}

func alreadyOrderingReply(prompt string) string {
	return fmt.Sprintf("We already have an order in progress. %s", prompt)
}
