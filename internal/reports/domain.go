// Package reports aggregates read-only figures for dashboards.
package reports

// ChannelSales is revenue grouped by sales channel, RETURNED orders excluded.
type ChannelSales struct {
	ChannelID      int64   `json:"channel_id"`
	ChannelName    string  `json:"channel_name"`
	Orders         int64   `json:"orders"`
	Revenue        float64 `json:"revenue"`
	RevenueDisplay string  `json:"revenue_display"`
}

// Dashboard is the aggregate overview of the operation.
type Dashboard struct {
	NetSales               float64        `json:"net_sales"`
	NetSalesDisplay        string         `json:"net_sales_display"`
	OrderCount             int64          `json:"order_count"`
	PendingPurchaseOrders  int64          `json:"pending_purchase_orders"`
	ActiveProductionOrders int64          `json:"active_production_orders"`
	Channels               []ChannelSales `json:"channels"`
}

// LowStockItem is a stockable entity at or under the alert threshold.
type LowStockItem struct {
	Kind   string `json:"kind"`
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	OnHand int64  `json:"on_hand"`
}
