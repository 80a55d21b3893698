// Package export renders resolved price records into OFX investment
// statements and bundles them for download. The document layout follows
// the OFX 2 XML framing with an SGML-style header comment, which is what
// the consuming accounting tools expect.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fujitaka/MultiAssetOFX/internal/domain"
)

const ofxHeader = `<?xml version="1.0" encoding="UTF-8"?>
<?OFX OFXHEADER="200" VERSION="200" SECURITY="NONE" OLDFILEUID="NONE" NEWFILEUID="NONE"?>
<!--
OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:UTF-8
CHARSET:UNICODE
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE
-->
<OFX>
<SIGNONMSGSRSV1><SONRS><STATUS><CODE>0</CODE><SEVERITY>INFO</SEVERITY></STATUS><DTSERVER>%s</DTSERVER><LANGUAGE>JPN</LANGUAGE><FI><ORG>PURSE/0.9</ORG></FI></SONRS></SIGNONMSGSRSV1>
`

const statementStart = `<INVSTMTMSGSRSV1>
<INVSTMTTRNRS>
<TRNUID>0</TRNUID>
<STATUS><CODE>0</CODE><SEVERITY>INFO</SEVERITY></STATUS>
<INVSTMTRS>
<DTASOF>%s</DTASOF>
<CURDEF>%s</CURDEF>
<INVACCTFROM><BROKERID>SecuOFX</BROKERID><ACCTID>%s</ACCTID></INVACCTFROM>
`

const statementEnd = `<INVBAL><AVAILCASH>0</AVAILCASH><MARGINBALANCE>0</MARGINBALANCE><SHORTBALANCE>0</SHORTBALANCE></INVBAL>
</INVSTMTRS>
</INVSTMTTRNRS>
</INVSTMTMSGSRSV1>
`

const securityListStart = `<SECLISTMSGSRSV1>
<SECLISTTRNRS>
<TRNUID>0</TRNUID>
<STATUS><CODE>0</CODE><SEVERITY>INFO</SEVERITY></STATUS>
</SECLISTTRNRS>
`

const positionEntry = `<%[1]s><INVPOS><SECID><UNIQUEID>%[2]s</UNIQUEID><UNIQUEIDTYPE>%[3]s</UNIQUEIDTYPE></SECID><HELDINACCT>CASH</HELDINACCT><POSTYPE>LONG</POSTYPE><UNITS>0</UNITS><UNITPRICE>%[4]s</UNITPRICE><MKTVAL>0</MKTVAL><DTPRICEASOF>%[5]s</DTPRICEASOF></INVPOS></%[1]s>
`

const securityInfo = `<%[1]s><SECINFO><SECID><UNIQUEID>%[2]s</UNIQUEID><UNIQUEIDTYPE>%[3]s</UNIQUEIDTYPE></SECID><SECNAME>%[4]s</SECNAME></SECINFO></%[1]s>
`

// Generator renders OFX documents from exportable price records.
type Generator struct {
	log zerolog.Logger
}

// NewGenerator creates a new OFX generator.
func NewGenerator(log zerolog.Logger) *Generator {
	return &Generator{
		log: log.With().Str("component", "export").Logger(),
	}
}

// Generate renders one OFX document. The caller passes exportable records
// only; error records have no position to state.
func (g *Generator) Generate(records []domain.PriceRecord, date time.Time, accountID string) string {
	stamp := ofxTimestamp(date)
	currency := primaryCurrency(records)

	var b strings.Builder
	fmt.Fprintf(&b, ofxHeader, stamp)
	fmt.Fprintf(&b, statementStart, stamp, currency, accountID)

	b.WriteString("<INVPOSLIST>\n")
	for _, record := range records {
		id, idType := secID(record)
		fmt.Fprintf(&b, positionEntry, positionTag(record.Type), id, idType, unitPrice(record), stamp)
	}
	b.WriteString("</INVPOSLIST>\n")
	b.WriteString(statementEnd)

	b.WriteString(securityListStart)
	b.WriteString("<SECLIST>\n")
	for _, record := range records {
		id, idType := secID(record)
		fmt.Fprintf(&b, securityInfo, infoTag(record.Type), id, idType, escapeName(record.Name))
	}
	b.WriteString("</SECLIST>\n")
	b.WriteString("</SECLISTMSGSRSV1>\n")
	b.WriteString("</OFX>\n")

	g.log.Debug().Int("positions", len(records)).Str("curdef", string(currency)).Msg("Generated OFX document")
	return b.String()
}

// Filename returns the download name for a statement: the shared batch
// name, or a per-code name when the statement holds a single security.
func (g *Generator) Filename(records []domain.PriceRecord, date time.Time) string {
	stamp := date.Format("20060102")
	if len(records) == 1 {
		return fmt.Sprintf("SecuOFX_%s_%s.ofx", stamp, records[0].Code)
	}
	return fmt.Sprintf("SecuOFX_%s.ofx", stamp)
}

// ofxTimestamp renders an OFX date-time pinned to JST, the statement's
// home timezone.
func ofxTimestamp(date time.Time) string {
	return date.Format("20060102") + "000000[+9:JST]"
}

// primaryCurrency picks the statement CURDEF: USD only when every
// position is USD, JPY otherwise.
func primaryCurrency(records []domain.PriceRecord) domain.Currency {
	for _, record := range records {
		if record.Currency != domain.CurrencyUSD {
			return domain.CurrencyJPY
		}
	}
	return domain.CurrencyUSD
}

var marketSuffixReplacer = strings.NewReplacer(".T", "", ".O", "", ".N", "", ".F", "", ".S", "")

// secID maps a record to its OFX security identifier. Japanese stocks are
// identified by bare securities code (market suffix stripped), funds by
// ISIN, everything else by ticker.
func secID(record domain.PriceRecord) (uniqueID, uniqueIDType string) {
	switch record.Type {
	case domain.InstrumentJPStock:
		return marketSuffixReplacer.Replace(record.Code), "JP:SIC"
	case domain.InstrumentJPFund:
		return record.Code, "JP:ITAJ"
	default:
		return record.Code, "NASDAQ"
	}
}

func positionTag(typ domain.InstrumentType) string {
	if typ == domain.InstrumentJPFund {
		return "POSMF"
	}
	return "POSSTOCK"
}

func infoTag(typ domain.InstrumentType) string {
	if typ == domain.InstrumentJPFund {
		return "MFINFO"
	}
	return "STOCKINFO"
}

// unitPrice renders the position price. Fund NAVs are quoted per 10,000
// units and are divided down; equity closes keep two decimal places.
func unitPrice(record domain.PriceRecord) string {
	raw := strings.ReplaceAll(record.Price, ",", "")
	value, err := decimal.NewFromString(raw)
	if err != nil {
		value = decimal.Zero
	}

	if record.Type == domain.InstrumentJPFund {
		return value.Div(decimal.NewFromInt(10000)).String()
	}
	return value.StringFixed(2)
}

var nameEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escapeName(name string) string {
	return nameEscaper.Replace(name)
}
