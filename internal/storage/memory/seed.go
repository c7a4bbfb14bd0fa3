package memory

import (
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/storeorders/internal/domain"
)

// SeedDemo наполняет справочник данными для локального запуска.
func SeedDemo(d *Directory) {
	d.PutUser(domain.User{ID: "user-demo", Name: "Demo Customer", Email: "demo@example.com", Role: "customer"})
	d.PutUser(domain.User{ID: "admin-demo", Name: "Demo Admin", Email: "admin@example.com", Role: "admin"})

	d.PutProduct(domain.Product{ID: "prod-kettle", Name: "Kettle", Description: "Electric kettle 1.7L", Price: decimal.RequireFromString("39.90")})
	d.PutProduct(domain.Product{ID: "prod-mug", Name: "Mug", Description: "Ceramic mug", Price: decimal.RequireFromString("7.50")})
	d.PutProduct(domain.Product{ID: "prod-tea", Name: "Green tea", Description: "Loose leaf, 100g", Price: decimal.RequireFromString("12.00")})

	d.PutAddress(domain.Address{
		ID:         "addr-demo",
		UserID:     "user-demo",
		FullName:   "Demo Customer",
		Line1:      "1 Main Street",
		City:       "Springfield",
		PostalCode: "12345",
		Country:    "US",
		Phone:      "+1-555-0100",
	})
}
