package orderbookv1

// PriceLevel is the FIFO queue of resting orders sharing one price on one side.
// Time priority is insertion order. A PriceLevel never persists empty inside a
// SideBook: the owning book deletes the entry in the same operation that
// emptied it.
//
// PriceLevel carries no lock of its own; the book serializes all access under
// a single guard.
type PriceLevel struct {
	Price  Price    `json:"price"`
	Orders []*Order `json:"orders"`
}

// NewPriceLevel creates an empty level at the given price.
func NewPriceLevel(price Price) *PriceLevel {
	return &PriceLevel{
		Price:  price,
		Orders: make([]*Order, 0),
	}
}

// Append adds an order to the back of the queue.
func (l *PriceLevel) Append(order *Order) {
	order.Level = l
	l.Orders = append(l.Orders, order)
}

// Front returns the earliest-inserted live order, or nil if the level is empty.
func (l *PriceLevel) Front() *Order {
	if len(l.Orders) == 0 {
		return nil
	}
	return l.Orders[0]
}

// PopFront removes and returns the earliest-inserted order,
// or nil if the level is empty.
func (l *PriceLevel) PopFront() *Order {
	if len(l.Orders) == 0 {
		return nil
	}
	order := l.Orders[0]
	l.Orders = l.Orders[1:]
	order.Level = nil
	return order
}

// Remove removes the order with the given id, preserving the relative order of
// the remaining elements. The scan is linear; resting depth per price is
// bounded by the book's depth limit. Returns the removed order, or nil if the
// id is not present at this level.
func (l *PriceLevel) Remove(orderID string) *Order {
	for i, o := range l.Orders {
		if o.ID == orderID {
			l.Orders = append(l.Orders[:i], l.Orders[i+1:]...)
			o.Level = nil
			return o
		}
	}
	return nil
}

// IsEmpty checks if the level has no orders.
func (l *PriceLevel) IsEmpty() bool {
	return len(l.Orders) == 0
}

// OrderCount returns the number of resting orders at this level.
func (l *PriceLevel) OrderCount() int {
	return len(l.Orders)
}

// TotalQuantity returns the total resting quantity at this level.
func (l *PriceLevel) TotalQuantity() Quantity {
	var total Quantity
	for _, o := range l.Orders {
		total += o.Qty
	}
	return total
}
