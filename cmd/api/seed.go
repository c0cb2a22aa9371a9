package main

import (
	"github.com/dejobratic/orderdesk/internal/orders/adapters/memory"
	"github.com/dejobratic/orderdesk/internal/orders/domain"
)

// seedCatalog gives the in-memory backend a few customers, routes and
// products to order against.
func seedCatalog(repo *memory.Repository) {
	for _, c := range []domain.Customer{
		{Name: "Acme Corp", Address: "1 Main St", Email: "ops@acme.test"},
		{Name: "Globex", Address: "9 Side Rd", Email: "hq@globex.test"},
		{Name: "Initech", Address: "4 Park Ave", Email: "orders@initech.test"},
	} {
		repo.AddCustomer(c)
	}
	for _, r := range []domain.Route{
		{Name: "North loop"},
		{Name: "Harbour run"},
	} {
		repo.AddRoute(r)
	}
	for _, p := range []domain.Product{
		{Name: "Cordless drill", Code: "DR-1"},
		{Name: "Wood screws 4x40", Code: "SC-440"},
		{Name: "Safety gloves", Code: "GL-2"},
	} {
		repo.AddProduct(p)
	}
}
