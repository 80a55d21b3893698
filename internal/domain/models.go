package domain

import (
	"strconv"
	"strings"
	"time"
)

// Currency represents a currency tag on a resolved price
type Currency string

const (
	CurrencyJPY Currency = "JPY"
	CurrencyUSD Currency = "USD"
	// CurrencyNone is the sentinel carried by records that could not be priced
	CurrencyNone Currency = "none"
)

// InstrumentType represents the classified type of a security code
type InstrumentType string

const (
	InstrumentJPStock InstrumentType = "JP_STOCK"
	InstrumentUSStock InstrumentType = "US_STOCK"
	InstrumentJPFund  InstrumentType = "JP_MUTUALFUND"
	InstrumentCrypto  InstrumentType = "CRYPTO"
	InstrumentInvalid InstrumentType = "INVALID"
)

// PriceNoData is the sentinel price carried by records that could not be priced
const PriceNoData = "no data"

// PriceQuery identifies a single price lookup: one code, one calendar date.
// Date carries no time-of-day meaning; callers normalize it to midnight UTC.
type PriceQuery struct {
	Code string         `json:"code"`
	Type InstrumentType `json:"type"`
	Date time.Time      `json:"date"`
}

// PriceRecord is the uniform result of resolving a PriceQuery. Every resolution
// path produces one: success, expected no-data, and failure alike.
//
// Invariant: Error non-empty implies Price == PriceNoData and Currency ==
// CurrencyNone; Error empty implies Price parses as a positive decimal and
// Currency is JPY or USD. Warning is non-fatal and may accompany a success
// (a latest-NAV value that was not filtered to the requested date).
type PriceRecord struct {
	Code     string         `json:"code"`
	Type     InstrumentType `json:"type"`
	Name     string         `json:"name"`
	Price    string         `json:"price"`
	Currency Currency       `json:"currency"`
	Error    string         `json:"error,omitempty"`
	Warning  string         `json:"warning,omitempty"`
}

// NewErrorRecord builds a record for a failed resolution. Name falls back to
// the code when no better display name is known.
func NewErrorRecord(code string, typ InstrumentType, name, errText string) PriceRecord {
	if name == "" {
		name = code
	}
	return PriceRecord{
		Code:     code,
		Type:     typ,
		Name:     name,
		Price:    PriceNoData,
		Currency: CurrencyNone,
		Error:    errText,
	}
}

// IsExportable reports whether the record qualifies for OFX export:
// error-free and carrying a real price.
func (r PriceRecord) IsExportable() bool {
	if r.Error != "" {
		return false
	}
	return r.Price != "" && r.Price != PriceNoData
}

// PriceValue parses the record's price string as a float, tolerating comma
// separators. Returns 0 for sentinel or unparseable prices.
func (r PriceRecord) PriceValue() float64 {
	if !r.IsExportable() {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(r.Price, ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}
