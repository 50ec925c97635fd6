package tradepublisherv1

import (
	"encoding/json"

	orderbookv1 "github.com/sm-nvws/limit-order-book/internal/domain/orderbook/v1"
)

// TradeEvent is the wire payload published for each ledger record.
// The buyer-first orientation of the ledger is preserved on the wire.
type TradeEvent struct {
	Pair  string            `json:"pair"`
	Trade orderbookv1.Trade `json:"trade"`
}

// ToBytes serializes the event for publishing.
func ToBytes(event *TradeEvent) []byte {
	buf, _ := json.Marshal(event)
	return buf
}
