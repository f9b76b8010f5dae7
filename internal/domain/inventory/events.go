package inventory

import "time"

// StockAdjustedEvent is emitted after every committed stock adjustment.
type StockAdjustedEvent struct {
	ProductID     string
	Delta         int
	StockQuantity int
	OccurredAt    time.Time
}

func (StockAdjustedEvent) EventName() string { return "inventory.stock_adjusted" }

func (e StockAdjustedEvent) AggregateID() string { return e.ProductID }

func NewStockAdjustedEvent(p *Product, delta int) StockAdjustedEvent {
	return StockAdjustedEvent{
		ProductID:     p.ID,
		Delta:         delta,
		StockQuantity: p.StockQuantity,
		OccurredAt:    time.Now().UTC(),
	}
}
