package checkout

import (
	"strings"

	"github.com/joao-fontenele/posflow/internal/domain"
)

// FilterProducts keeps products whose name or description contains term as
// typed, ignoring case. An empty term returns products unchanged.
func FilterProducts(products []domain.Product, term string) []domain.Product {
	term = strings.ToLower(term)
	if term == "" {
		return products
	}

	filtered := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), term) ||
			strings.Contains(strings.ToLower(p.Description), term) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}
