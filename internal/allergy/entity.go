// AngelaMos | 2026
// entity.go

package allergy

import (
	"strings"
)

type Allergy struct {
	ID   string `db:"id"`
	Name string `db:"name"`
}

// Normalize is the canonical form allergy names are stored and compared in.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
