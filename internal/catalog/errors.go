package catalog

import (
	"errors"
	"sort"
	"strings"

	"github.com/joao-fontenele/posflow/internal/domain"
)

var (
	ErrProductNotFound = domain.ErrProductNotFound
	ErrImageTooLarge   = errors.New("image exceeds size limit")
	ErrNotAnImage      = errors.New("file is not an image")
)

// ValidationError collects every invalid field of a product form. Nothing is
// written when it is returned.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid product: " + strings.Join(parts, "; ")
}
