package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joao-fontenele/posflow/internal/domain"
)

func TestFilterProducts(t *testing.T) {
	catalog := []domain.Product{
		{ID: "1", Name: "Espresso", Description: "Double shot"},
		{ID: "2", Name: "Croissant", Description: "Butter pastry"},
		{ID: "3", Name: "Bottled Water"},
	}

	tests := []struct {
		name string
		term string
		want []string
	}{
		{name: "empty term keeps catalog", term: "", want: []string{"1", "2", "3"}},
		{name: "spaces are part of the term", term: " ", want: []string{"1", "2", "3"}},
		{name: "leading space must match", term: " water", want: []string{"3"}},
		{name: "leading space rules out word starts", term: " espresso", want: []string{}},
		{name: "matches name ignoring case", term: "ESPRESSO", want: []string{"1"}},
		{name: "matches description", term: "pastry", want: []string{"2"}},
		{name: "substring across products", term: "t", want: []string{"1", "2", "3"}},
		{name: "no match", term: "tea", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterProducts(catalog, tt.term)
			ids := make([]string, 0, len(got))
			for _, p := range got {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}
