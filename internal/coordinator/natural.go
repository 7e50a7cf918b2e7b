package coordinator

import (
	"strings"

	"github.com/maruel/natural"
)

// NaturalLess orders strings case-insensitively, comparing digit runs by numeric value.
func NaturalLess(left string, right string) bool {
	return natural.Less(strings.ToLower(left), strings.ToLower(right))
}
