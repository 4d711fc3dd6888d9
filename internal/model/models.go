package model

// All lists every persisted model in dependency order for AutoMigrate.
func All() []any {
	return []any{
		&User{},
		&Product{},
		&StockFamily{},
		&StockFamilyMember{},
		&InventoryMovement{},
		&StockAdjustment{},
		&Bundle{},
		&BundleProduct{},
		&Customer{},
		&CustomerTransaction{},
		&Shift{},
		&Sale{},
		&SaleItem{},
	}
}
