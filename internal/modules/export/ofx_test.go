package export

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/fujitaka/MultiAssetOFX/internal/domain"
)

var exportDate = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

func jpStock() domain.PriceRecord {
	return domain.PriceRecord{
		Code:     "7203.T",
		Type:     domain.InstrumentJPStock,
		Name:     "Toyota Motor Corporation",
		Price:    "2500.00",
		Currency: domain.CurrencyJPY,
	}
}

func usStock() domain.PriceRecord {
	return domain.PriceRecord{
		Code:     "AAPL",
		Type:     domain.InstrumentUSStock,
		Name:     "Apple Inc.",
		Price:    "185.50",
		Currency: domain.CurrencyUSD,
	}
}

func jpFund() domain.PriceRecord {
	return domain.PriceRecord{
		Code:     "JP90C0001QM4",
		Type:     domain.InstrumentJPFund,
		Name:     "ひふみプラス",
		Price:    "12345",
		Currency: domain.CurrencyJPY,
	}
}

func TestGenerate(t *testing.T) {
	generator := NewGenerator(zerolog.Nop())

	t.Run("document framing", func(t *testing.T) {
		doc := generator.Generate([]domain.PriceRecord{jpStock()}, exportDate, "00000")

		assert.True(t, strings.HasPrefix(doc, `<?xml version="1.0" encoding="UTF-8"?>`))
		assert.Contains(t, doc, `<?OFX OFXHEADER="200" VERSION="200" SECURITY="NONE" OLDFILEUID="NONE" NEWFILEUID="NONE"?>`)
		assert.Contains(t, doc, "OFXHEADER:100")
		assert.Contains(t, doc, "DATA:OFXSGML")
		assert.Contains(t, doc, "CHARSET:UNICODE")
		assert.Contains(t, doc, "<DTSERVER>20240115000000[+9:JST]</DTSERVER>")
		assert.Contains(t, doc, "<LANGUAGE>JPN</LANGUAGE>")
		assert.Contains(t, doc, "<ORG>PURSE/0.9</ORG>")
		assert.Contains(t, doc, "<DTASOF>20240115000000[+9:JST]</DTASOF>")
		assert.Contains(t, doc, "<BROKERID>SecuOFX</BROKERID>")
		assert.Contains(t, doc, "<ACCTID>00000</ACCTID>")
		assert.True(t, strings.HasSuffix(doc, "</OFX>\n"))
	})

	t.Run("JP stock position strips the market suffix", func(t *testing.T) {
		doc := generator.Generate([]domain.PriceRecord{jpStock()}, exportDate, "00000")

		assert.Contains(t, doc, "<POSSTOCK><INVPOS><SECID><UNIQUEID>7203</UNIQUEID><UNIQUEIDTYPE>JP:SIC</UNIQUEIDTYPE></SECID>")
		assert.Contains(t, doc, "<UNITPRICE>2500.00</UNITPRICE>")
		assert.Contains(t, doc, "<DTPRICEASOF>20240115000000[+9:JST]</DTPRICEASOF>")
		assert.Contains(t, doc, "<HELDINACCT>CASH</HELDINACCT>")
		assert.Contains(t, doc, "<POSTYPE>LONG</POSTYPE>")
		assert.Contains(t, doc, "<UNITS>0</UNITS>")
		assert.Contains(t, doc, "<MKTVAL>0</MKTVAL>")
		assert.Contains(t, doc, "<STOCKINFO><SECINFO><SECID><UNIQUEID>7203</UNIQUEID>")
		assert.Contains(t, doc, "<SECNAME>Toyota Motor Corporation</SECNAME>")
	})

	t.Run("fund position divides the NAV by ten thousand", func(t *testing.T) {
		doc := generator.Generate([]domain.PriceRecord{jpFund()}, exportDate, "00000")

		assert.Contains(t, doc, "<POSMF><INVPOS><SECID><UNIQUEID>JP90C0001QM4</UNIQUEID><UNIQUEIDTYPE>JP:ITAJ</UNIQUEIDTYPE></SECID>")
		assert.Contains(t, doc, "<UNITPRICE>1.2345</UNITPRICE>")
		assert.Contains(t, doc, "<MFINFO><SECINFO><SECID><UNIQUEID>JP90C0001QM4</UNIQUEID>")
		assert.Contains(t, doc, "<SECNAME>ひふみプラス</SECNAME>")
	})

	t.Run("fund NAV with thousands separators", func(t *testing.T) {
		fund := jpFund()
		fund.Price = "12,345"
		doc := generator.Generate([]domain.PriceRecord{fund}, exportDate, "00000")
		assert.Contains(t, doc, "<UNITPRICE>1.2345</UNITPRICE>")
	})

	t.Run("US stock position", func(t *testing.T) {
		doc := generator.Generate([]domain.PriceRecord{usStock()}, exportDate, "00000")

		assert.Contains(t, doc, "<POSSTOCK><INVPOS><SECID><UNIQUEID>AAPL</UNIQUEID><UNIQUEIDTYPE>NASDAQ</UNIQUEIDTYPE></SECID>")
		assert.Contains(t, doc, "<UNITPRICE>185.50</UNITPRICE>")
	})

	t.Run("CURDEF is JPY for mixed statements", func(t *testing.T) {
		doc := generator.Generate([]domain.PriceRecord{usStock(), jpStock()}, exportDate, "00000")
		assert.Contains(t, doc, "<CURDEF>JPY</CURDEF>")
	})

	t.Run("CURDEF is USD only when every position is USD", func(t *testing.T) {
		doc := generator.Generate([]domain.PriceRecord{usStock()}, exportDate, "00000")
		assert.Contains(t, doc, "<CURDEF>USD</CURDEF>")
	})

	t.Run("display names are XML escaped", func(t *testing.T) {
		stock := usStock()
		stock.Code = "T"
		stock.Name = "AT&T Inc. <T>"
		doc := generator.Generate([]domain.PriceRecord{stock}, exportDate, "00000")
		assert.Contains(t, doc, "<SECNAME>AT&amp;T Inc. &lt;T&gt;</SECNAME>")
	})

	t.Run("custom account id", func(t *testing.T) {
		doc := generator.Generate([]domain.PriceRecord{jpStock()}, exportDate, "12345678")
		assert.Contains(t, doc, "<ACCTID>12345678</ACCTID>")
	})

	t.Run("every record appears in both lists", func(t *testing.T) {
		records := []domain.PriceRecord{jpStock(), usStock(), jpFund()}
		doc := generator.Generate(records, exportDate, "00000")

		assert.Equal(t, 2, strings.Count(doc, "<POSSTOCK>"))
		assert.Equal(t, 1, strings.Count(doc, "<POSMF>"))
		assert.Equal(t, 2, strings.Count(doc, "<STOCKINFO>"))
		assert.Equal(t, 1, strings.Count(doc, "<MFINFO>"))
		assert.Equal(t, 1, strings.Count(doc, "<INVPOSLIST>"))
		assert.Equal(t, 1, strings.Count(doc, "<SECLIST>"))
	})
}

func TestFilename(t *testing.T) {
	generator := NewGenerator(zerolog.Nop())

	t.Run("batch statement", func(t *testing.T) {
		name := generator.Filename([]domain.PriceRecord{jpStock(), usStock()}, exportDate)
		assert.Equal(t, "SecuOFX_20240115.ofx", name)
	})

	t.Run("single security statement", func(t *testing.T) {
		name := generator.Filename([]domain.PriceRecord{jpStock()}, exportDate)
		assert.Equal(t, "SecuOFX_20240115_7203.T.ofx", name)
	})
}
