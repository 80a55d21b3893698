package securities

import (
	"regexp"
	"strings"

	"github.com/fujitaka/MultiAssetOFX/internal/domain"
)

// Code shape patterns. Classification is purely lexical; no lookup is
// performed against any market reference data.
var (
	// Japanese equities carry a four digit code plus a market suffix
	// (.T Tokyo, .O Osaka, .N Nagoya, .F Fukuoka, .S Sapporo)
	jpStockPattern = regexp.MustCompile(`^\d{4}\.(T|O|N|F|S)$`)

	// Japanese mutual funds are accepted in three historical formats
	fundISINPattern    = regexp.MustCompile(`^JP[0-9A-Z]{10}$`)
	fundAssocPattern   = regexp.MustCompile(`^[0-9A-Z]{8}$`)
	fundNumericPattern = regexp.MustCompile(`^\d{6,8}$`)

	// US equities/ETFs: leading letter, up to 10 chars total
	usStockPattern = regexp.MustCompile(`^[A-Z][A-Z0-9.\-]{0,9}$`)
)

// cryptoTickers are recognized only when the classifier is built with crypto
// support enabled; otherwise they fall through to the US equity rule.
var cryptoTickers = map[string]bool{
	"BTC": true,
	"ETH": true,
}

// IsFundISIN reports whether code is a mutual fund ISIN (JP followed by ten
// alphanumeric characters). This is the only fund code format the NAV data
// source can be queried with.
func IsFundISIN(code string) bool {
	return fundISINPattern.MatchString(code)
}

// IsFundCode reports whether code matches any of the accepted mutual fund
// formats: ISIN, eight character association code, or legacy numeric code.
func IsFundCode(code string) bool {
	return fundISINPattern.MatchString(code) ||
		fundAssocPattern.MatchString(code) ||
		fundNumericPattern.MatchString(code)
}

// Normalize uppercases and trims a user-typed code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Classifier maps raw security codes to instrument types.
type Classifier struct {
	cryptoEnabled bool
}

// NewClassifier creates a classifier. With cryptoEnabled, the literal tickers
// BTC and ETH classify as CRYPTO ahead of every other rule.
func NewClassifier(cryptoEnabled bool) *Classifier {
	return &Classifier{cryptoEnabled: cryptoEnabled}
}

// Classify maps a normalized code to its instrument type. Pure and total:
// same input, same output, no I/O. Rule order matters; an eight character
// alphanumeric code classifies as a mutual fund even though it also matches
// the US ticker shape.
func (c *Classifier) Classify(code string) domain.InstrumentType {
	if c.cryptoEnabled && cryptoTickers[code] {
		return domain.InstrumentCrypto
	}

	if jpStockPattern.MatchString(code) {
		return domain.InstrumentJPStock
	}

	if IsFundCode(code) {
		return domain.InstrumentJPFund
	}

	if usStockPattern.MatchString(code) {
		return domain.InstrumentUSStock
	}

	return domain.InstrumentInvalid
}

// ParseList splits a comma separated user input into normalized codes,
// dropping empty segments. Order is preserved.
func ParseList(input string) []string {
	parts := strings.Split(input, ",")
	codes := make([]string, 0, len(parts))
	for _, p := range parts {
		if code := Normalize(p); code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}
