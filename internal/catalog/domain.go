// Package catalog manages the master data behind the inventory: suppliers,
// raw materials, resale products, manufactured products with their variants,
// and the bill of materials linking products to materials.
package catalog

import "github.com/inventia-erp/inventia/internal/bom"

// Supplier is a purchasing counterparty.
type Supplier struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Contact string `json:"contact"`
}

// RawMaterial is a purchasable input consumed by production.
type RawMaterial struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	UnitCost    float64 `json:"unit_cost"`
	Unit        string  `json:"unit"`
	OnHand      int64   `json:"on_hand"`
	SupplierID  int64   `json:"supplier_id"`
}

// ResaleProduct is bought and sold without transformation.
type ResaleProduct struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	PurchaseCost float64   `json:"purchase_cost"`
	SalePrice    float64   `json:"sale_price"`
	OnHand       int64     `json:"on_hand"`
	SupplierID   int64     `json:"supplier_id"`
	Supplier     *Supplier `json:"supplier,omitempty"`
	ListingID    *string   `json:"listing_id,omitempty"`
}

// ManufacturedProduct is produced in-house; stock lives on its variants.
type ManufacturedProduct struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	SalePrice   float64 `json:"sale_price"`
}

// Variant is a size/color combination of a manufactured product.
type Variant struct {
	ID        int64   `json:"id"`
	ProductID int64   `json:"product_id"`
	Size      string  `json:"size"`
	Color     string  `json:"color"`
	OnHand    int64   `json:"on_hand"`
	ListingID *string `json:"listing_id,omitempty"`
}

// BOMLine re-exports the resolver's line type for catalog CRUD.
type BOMLine = bom.Line
