// market/instruments.go
package market

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultPipLocation is the pip exponent for most FX pairs (1 pip = 0.0001).
const DefaultPipLocation = -4

// JPYPipLocation is the pip exponent for JPY quoted pairs (1 pip = 0.01).
const JPYPipLocation = -2

type InstrumentMeta struct {
	Name          string
	BaseCurrency  string
	QuoteCurrency string
	PipLocation   int
}

var Instruments = map[string]InstrumentMeta{
	"EUR_USD": {Name: "EUR_USD", BaseCurrency: "EUR", QuoteCurrency: "USD", PipLocation: -4},
	"GBP_USD": {Name: "GBP_USD", BaseCurrency: "GBP", QuoteCurrency: "USD", PipLocation: -4},
	"AUD_USD": {Name: "AUD_USD", BaseCurrency: "AUD", QuoteCurrency: "USD", PipLocation: -4},
	"NZD_USD": {Name: "NZD_USD", BaseCurrency: "NZD", QuoteCurrency: "USD", PipLocation: -4},
	"USD_CAD": {Name: "USD_CAD", BaseCurrency: "USD", QuoteCurrency: "CAD", PipLocation: -4},
	"USD_CHF": {Name: "USD_CHF", BaseCurrency: "USD", QuoteCurrency: "CHF", PipLocation: -4},
	"EUR_GBP": {Name: "EUR_GBP", BaseCurrency: "EUR", QuoteCurrency: "GBP", PipLocation: -4},
	"USD_JPY": {Name: "USD_JPY", BaseCurrency: "USD", QuoteCurrency: "JPY", PipLocation: -2},
	"EUR_JPY": {Name: "EUR_JPY", BaseCurrency: "EUR", QuoteCurrency: "JPY", PipLocation: -2},
	"GBP_JPY": {Name: "GBP_JPY", BaseCurrency: "GBP", QuoteCurrency: "JPY", PipLocation: -2},
	"AUD_JPY": {Name: "AUD_JPY", BaseCurrency: "AUD", QuoteCurrency: "JPY", PipLocation: -2},
}

// NormalizeInstrument maps "eur/usd", "EUR-USD", "EURUSD" and "EUR_USD"
// to the canonical "EUR_USD" form. Anything else is upper-cased and
// returned with separators unified.
func NormalizeInstrument(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.NewReplacer("/", "_", "-", "_", " ", "").Replace(s)
	if len(s) == 6 && !strings.Contains(s, "_") && isLetters(s) {
		s = s[:3] + "_" + s[3:]
	}
	return s
}

// PipTable resolves the pip location of an instrument. Instruments in
// Instruments use their own PipLocation; unknown JPY quoted pairs use
// JPYLocation; everything else falls back to DefaultLocation.
type PipTable struct {
	DefaultLocation int
	JPYLocation     int
}

func DefaultPipTable() PipTable {
	return PipTable{DefaultLocation: DefaultPipLocation, JPYLocation: JPYPipLocation}
}

func (pt PipTable) Location(instrument string) int {
	if instrument == "" {
		return pt.DefaultLocation
	}
	name := NormalizeInstrument(instrument)
	if meta, ok := Instruments[name]; ok {
		return meta.PipLocation
	}
	if strings.HasSuffix(name, "_JPY") {
		return pt.JPYLocation
	}
	return pt.DefaultLocation
}

// PipSize returns 10^Location(instrument) as an exact decimal.
func (pt PipTable) PipSize(instrument string) decimal.Decimal {
	return PipSize(pt.Location(instrument))
}

// PipSize returns the pip size for a given pip location.
func PipSize(loc int) decimal.Decimal {
	return decimal.New(1, int32(loc))
}

func isLetters(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
