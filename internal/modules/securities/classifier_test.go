package securities

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fujitaka/MultiAssetOFX/internal/domain"
)

func TestClassifyJapaneseStocks(t *testing.T) {
	c := NewClassifier(false)

	tests := []struct {
		name string
		code string
		want domain.InstrumentType
	}{
		{
			name: "Tokyo listing",
			code: "7203.T",
			want: domain.InstrumentJPStock,
		},
		{
			name: "Osaka listing",
			code: "4755.O",
			want: domain.InstrumentJPStock,
		},
		{
			name: "Nagoya listing",
			code: "9201.N",
			want: domain.InstrumentJPStock,
		},
		{
			name: "Fukuoka listing",
			code: "2917.F",
			want: domain.InstrumentJPStock,
		},
		{
			name: "Sapporo listing",
			code: "1377.S",
			want: domain.InstrumentJPStock,
		},
		{
			name: "unknown market suffix",
			code: "7203.X",
			want: domain.InstrumentInvalid,
		},
		{
			name: "three digit code",
			code: "720.T",
			want: domain.InstrumentInvalid,
		},
		{
			name: "five digit code",
			code: "72030.T",
			want: domain.InstrumentInvalid,
		},
		{
			name: "missing suffix is a legacy fund code shape",
			code: "720312",
			want: domain.InstrumentJPFund,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.code))
		})
	}
}

func TestClassifyMutualFunds(t *testing.T) {
	c := NewClassifier(false)

	tests := []struct {
		name string
		code string
		want domain.InstrumentType
	}{
		{
			name: "ISIN form",
			code: "JP90C000A1B2",
			want: domain.InstrumentJPFund,
		},
		{
			name: "ISIN form all digits after prefix",
			code: "JP1234567890",
			want: domain.InstrumentJPFund,
		},
		{
			name: "association code",
			code: "0131103C",
			want: domain.InstrumentJPFund,
		},
		{
			name: "association code all digits",
			code: "64311081",
			want: domain.InstrumentJPFund,
		},
		{
			name: "eight letters classify as fund by rule order",
			code: "ABCDEFGH",
			want: domain.InstrumentJPFund,
		},
		{
			name: "legacy six digit code",
			code: "123456",
			want: domain.InstrumentJPFund,
		},
		{
			name: "legacy seven digit code",
			code: "1234567",
			want: domain.InstrumentJPFund,
		},
		{
			name: "five digits is not a fund code",
			code: "12345",
			want: domain.InstrumentInvalid,
		},
		{
			name: "nine digits is not a fund code",
			code: "123456789",
			want: domain.InstrumentInvalid,
		},
		{
			name: "lowercase ISIN is not normalized here",
			code: "jp1234567890",
			want: domain.InstrumentInvalid,
		},
		{
			name: "ISIN with wrong country prefix",
			code: "US1234567890",
			want: domain.InstrumentInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.code))
		})
	}
}

func TestClassifyUSStocks(t *testing.T) {
	c := NewClassifier(false)

	tests := []struct {
		name string
		code string
		want domain.InstrumentType
	}{
		{
			name: "plain ticker",
			code: "AAPL",
			want: domain.InstrumentUSStock,
		},
		{
			name: "single letter",
			code: "F",
			want: domain.InstrumentUSStock,
		},
		{
			name: "class share with dot",
			code: "BRK.B",
			want: domain.InstrumentUSStock,
		},
		{
			name: "class share with dash",
			code: "BRK-B",
			want: domain.InstrumentUSStock,
		},
		{
			name: "ten characters",
			code: "ABCDEFGHIJ",
			want: domain.InstrumentUSStock,
		},
		{
			name: "eleven characters",
			code: "ABCDEFGHIJK",
			want: domain.InstrumentInvalid,
		},
		{
			name: "leading digit",
			code: "1APL",
			want: domain.InstrumentInvalid,
		},
		{
			name: "BTC falls through to US stock when crypto disabled",
			code: "BTC",
			want: domain.InstrumentUSStock,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.code))
		})
	}
}

func TestClassifyInvalid(t *testing.T) {
	c := NewClassifier(false)

	tests := []struct {
		name string
		code string
	}{
		{name: "empty string", code: ""},
		{name: "punctuation", code: "INVALIDCODE!"},
		{name: "whitespace inside", code: "72 03.T"},
		{name: "lowercase ticker", code: "aapl"},
		{name: "unicode", code: "トヨタ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, domain.InstrumentInvalid, c.Classify(tt.code))
		})
	}
}

func TestClassifyCryptoToggle(t *testing.T) {
	enabled := NewClassifier(true)
	disabled := NewClassifier(false)

	assert.Equal(t, domain.InstrumentCrypto, enabled.Classify("BTC"))
	assert.Equal(t, domain.InstrumentCrypto, enabled.Classify("ETH"))
	assert.Equal(t, domain.InstrumentUSStock, disabled.Classify("BTC"))
	assert.Equal(t, domain.InstrumentUSStock, disabled.Classify("ETH"))

	// The toggle must not leak into unrelated rules
	assert.Equal(t, domain.InstrumentJPStock, enabled.Classify("7203.T"))
	assert.Equal(t, domain.InstrumentJPFund, enabled.Classify("JP1234567890"))
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := NewClassifier(false)

	codes := []string{"7203.T", "AAPL", "JP1234567890", "0131103C", "", "INVALIDCODE!"}
	for _, code := range codes {
		first := c.Classify(code)
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, c.Classify(code), "code %q", code)
		}
	}
}

func TestIsFundISIN(t *testing.T) {
	tests := []struct {
		name string
		code string
		want bool
	}{
		{
			name: "valid ISIN",
			code: "JP90C000A1B2",
			want: true,
		},
		{
			name: "association code is not an ISIN",
			code: "0131103C",
			want: false,
		},
		{
			name: "legacy numeric is not an ISIN",
			code: "1234567",
			want: false,
		},
		{
			name: "too long",
			code: "JP1234567890A",
			want: false,
		},
		{
			name: "too short",
			code: "JP123456789",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsFundISIN(tt.code))
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "7203.T", Normalize("  7203.t "))
	assert.Equal(t, "AAPL", Normalize("aapl"))
	assert.Equal(t, "", Normalize("   "))
}

func TestParseList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "mixed list",
			input: "7203.t, aapl ,JP1234567890",
			want:  []string{"7203.T", "AAPL", "JP1234567890"},
		},
		{
			name:  "empty segments dropped",
			input: ",7203.T,,AAPL,",
			want:  []string{"7203.T", "AAPL"},
		},
		{
			name:  "only separators",
			input: " , , ",
			want:  []string{},
		},
		{
			name:  "order preserved",
			input: "MSFT,AAPL,GOOG",
			want:  []string{"MSFT", "AAPL", "GOOG"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseList(tt.input))
		})
	}
}
