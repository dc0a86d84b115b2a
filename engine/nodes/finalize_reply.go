package conversationnode

import (
	"fmt"
	"strings"

	contractx "github.com/kornthana/orderdesk-agent/engine/contract"
)

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", ErrIncompleteState)
	}

	reply := contractx.OutboundReply{CustomerID: in.Message.CustomerID}
	if in.Dropped {
		reply.Dropped = true
		return GraphOutput{Reply: reply, Intent: in.Intent}, nil
	}

	reply.Text = strings.TrimSpace(in.Outcome.Reply)
	if reply.Text == "" {
		return GraphOutput{}, fmt.Errorf("%w: transition produced no reply", ErrIncompleteState)
	}
	if in.Order != nil {
		reply.OrderID = in.Order.ID
	}
	return GraphOutput{Reply: reply, Intent: in.Intent}, nil
}
