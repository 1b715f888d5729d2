package domain

// SecurityType classifies a position for concentration-cap purposes
type SecurityType string

const (
	SecurityTypeStock  SecurityType = "Stock"
	SecurityTypeETF    SecurityType = "ETF"
	SecurityTypeCrypto SecurityType = "Crypto"
)

// AllocationRules holds the per-type and per-group concentration caps.
// The engine treats these as opaque numeric limits; how they are edited
// or stored is not its concern.
type AllocationRules struct {
	MaxPerStock   float64 `json:"max_per_stock"`
	MaxPerETF     float64 `json:"max_per_etf"`
	MaxPerCrypto  float64 `json:"max_per_crypto"`
	MaxPerSector  float64 `json:"max_per_sector"`
	MaxPerCountry float64 `json:"max_per_country"`
}

// DefaultRules returns the caps used when nothing is configured yet
func DefaultRules() AllocationRules {
	return AllocationRules{
		MaxPerStock:   5.0,
		MaxPerETF:     10.0,
		MaxPerCrypto:  5.0,
		MaxPerSector:  25.0,
		MaxPerCountry: 10.0,
	}
}

// CapFor returns the percentage cap and rule name for a security type.
// Unknown types get a zero cap, which excludes them from target math.
func (r AllocationRules) CapFor(t SecurityType) (float64, string) {
	switch t {
	case SecurityTypeStock:
		return r.MaxPerStock, "maxPerStock"
	case SecurityTypeETF:
		return r.MaxPerETF, "maxPerETF"
	case SecurityTypeCrypto:
		return r.MaxPerCrypto, "maxPerCrypto"
	default:
		return 0, "unknown_type"
	}
}

// DeviationStatus classifies an allocation deviation (current - target,
// as a fraction) for display purposes.
func DeviationStatus(deviation float64) string {
	if deviation < -0.02 {
		return "underweight"
	} else if deviation > 0.02 {
		return "overweight"
	}
	return "balanced"
}
