// Package geocode prepares, submits and reads back batch geocoding jobs.
package geocode

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/doormap/internal/model"
)

// BatchHeader is the first line of every batch body.
const BatchHeader = "recId|searchText|country"

// Locality is the fixed suffix appended to every search text.
type Locality struct {
	District string `mapstructure:"district"`
	City     string `mapstructure:"city"`
	Country  string `mapstructure:"country"`
}

var streetTypes = map[string]string{
	"CADDE":  "Caddesi",
	"SOKAK":  "Sokak",
	"BULVAR": "Bulvarı",
}

// StreetType maps a registry address type to the word used in a postal
// address. Unknown types come back unchanged with ok=false.
func StreetType(addressType string) (string, bool) {
	if v, ok := streetTypes[strings.ToUpper(addressType)]; ok {
		return v, true
	}
	return addressType, false
}

// BuildBatchBody renders doors as a pipe-delimited batch body. Record ids are
// 1-based positions, so result rows can be joined back by order. The second
// return value lists the address types that had no mapping, once each.
func BuildBatchBody(doors []model.PlacedDoor, loc Locality) (string, []string) {
	var b strings.Builder
	b.WriteString(BatchHeader)

	var unknown []string
	seen := make(map[string]bool)
	for i, d := range doors {
		st, ok := StreetType(d.AddressType)
		if !ok && !seen[d.AddressType] {
			seen[d.AddressType] = true
			unknown = append(unknown, d.AddressType)
			zap.L().Warn("unknown address type, using raw value",
				zap.String("address_type", d.AddressType),
				zap.String("door_id", d.ID),
			)
		}

		b.WriteByte('\n')
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteByte('|')
		b.WriteString(searchText(d, st, loc))
		b.WriteByte('|')
		b.WriteString(loc.Country)
	}
	return b.String(), unknown
}

func searchText(d model.PlacedDoor, streetType string, loc Locality) string {
	parts := []string{d.Street, streetType, d.DoorNo, d.Neighborhood, loc.District, loc.City}
	return strings.Join(parts, " ")
}
