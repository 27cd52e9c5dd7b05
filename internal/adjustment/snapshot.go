package adjustment

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

const (
	unknownID      = "unknown"
	unknownAddress = "Unknown Address"
)

// Snapshot is the normalized feature set of a single property. Zero numeric
// values mean "unknown"; Calculate treats them accordingly.
type Snapshot struct {
	ID         string
	Address    string
	SquareFeet float64
	Bedrooms   float64
	Bathrooms  float64
	HasPool    bool
	Garage     float64
	YearBuilt  float64
	LotSize    float64
	Price      float64
}

// FromRecord normalizes a raw upstream property record. Field values may be
// numbers, numeric strings, or missing entirely; anything unparseable
// coerces to 0. Identity and address fall through preference chains down to
// literal placeholders so the result is always renderable.
func FromRecord(rec map[string]any) Snapshot {
	if rec == nil {
		return Snapshot{ID: unknownID, Address: unknownAddress}
	}

	return Snapshot{
		ID:         firstString(rec, unknownID, "ListingId", "ListingKey", "Id", "id"),
		Address:    orDefault(RecordAddress(rec), unknownAddress),
		SquareFeet: firstNumber(rec, "LivingArea", "SquareFeet"),
		Bedrooms:   toNumber(rec["BedroomsTotal"]),
		Bathrooms:  toNumber(rec["BathroomsTotal"]),
		HasPool:    poolPresence(rec["PoolFeatures"]),
		Garage:     toNumber(rec["GarageSpaces"]),
		YearBuilt:  toNumber(rec["YearBuilt"]),
		LotSize:    firstNumber(rec, "LotSizeSquareFeet", "LotSizeArea"),
		Price:      firstNumber(rec, "ClosePrice", "SoldPrice", "ListPrice"),
	}
}

// RecordAddress extracts the display address from a raw record, or "" when
// the record carries no address fields. Callers that need a renderable
// string get the placeholder through FromRecord instead.
func RecordAddress(rec map[string]any) string {
	if addr := firstString(rec, "", "UnparsedAddress", "Address"); addr != "" {
		return addr
	}
	street := toString(rec["StreetAddress"])
	city := toString(rec["City"])
	switch {
	case street != "" && city != "":
		return street + ", " + city
	default:
		return street
	}
}

// poolPresence derives the pool boolean: any feature value other than
// "none"/"no"/empty counts as a pool. Unexpected shapes mean no pool.
func poolPresence(v any) bool {
	switch features := v.(type) {
	case nil:
		return false
	case string:
		return poolValue(features)
	case []string:
		for _, f := range features {
			if poolValue(f) {
				return true
			}
		}
		return false
	case []any:
		for _, f := range features {
			if s, ok := f.(string); ok && poolValue(s) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func poolValue(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "no":
		return false
	default:
		return true
	}
}

// firstNumber returns the first key that coerces to a non-zero number.
func firstNumber(rec map[string]any, keys ...string) float64 {
	for _, key := range keys {
		if n := toNumber(rec[key]); n != 0 {
			return n
		}
	}
	return 0
}

func firstString(rec map[string]any, fallback string, keys ...string) string {
	for _, key := range keys {
		if s := toString(rec[key]); s != "" {
			return s
		}
	}
	return fallback
}

func toString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// Number coerces an arbitrary record value to a float64, treating anything
// unparseable as 0. Formatted strings such as "$385,000" parse cleanly.
func Number(v any) float64 {
	return toNumber(v)
}

// toNumber is the parse-or-zero boundary coercion: it never fails, and
// anything unparseable (or non-finite) becomes 0.
func toNumber(v any) float64 {
	var n float64
	switch value := v.(type) {
	case nil:
		return 0
	case float64:
		n = value
	case float32:
		n = float64(value)
	case int:
		n = float64(value)
	case int32:
		n = float64(value)
	case int64:
		n = float64(value)
	case uint:
		n = float64(value)
	case uint64:
		n = float64(value)
	case json.Number:
		parsed, err := value.Float64()
		if err != nil {
			return 0
		}
		n = parsed
	case string:
		cleaned := strings.NewReplacer(",", "", "$", "").Replace(strings.TrimSpace(value))
		parsed, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0
		}
		n = parsed
	default:
		return 0
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return n
}
