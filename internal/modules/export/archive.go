package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/fujitaka/MultiAssetOFX/internal/domain"
)

// archiveCurrencies fixes the member order inside the zip.
var archiveCurrencies = []domain.Currency{domain.CurrencyJPY, domain.CurrencyUSD}

// ArchiveFilename returns the download name for a currency archive.
func ArchiveFilename(date time.Time) string {
	return "SecuOFX_" + date.Format("20060102") + ".zip"
}

// BuildCurrencyArchive splits the records by currency, renders one OFX
// statement per currency, and packs them into a zip. Currencies with no
// records get no member.
func (g *Generator) BuildCurrencyArchive(records []domain.PriceRecord, date time.Time, accountID string) ([]byte, error) {
	groups := make(map[domain.Currency][]domain.PriceRecord)
	for _, record := range records {
		groups[record.Currency] = append(groups[record.Currency], record)
	}

	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)

	stamp := date.Format("20060102")
	members := 0
	for _, currency := range archiveCurrencies {
		group := groups[currency]
		if len(group) == 0 {
			continue
		}

		name := fmt.Sprintf("SecuOFX_%s_%s.ofx", stamp, currency)
		member, err := writer.Create(name)
		if err != nil {
			return nil, fmt.Errorf("failed to create archive member %s: %w", name, err)
		}
		if _, err := io.WriteString(member, g.Generate(group, date, accountID)); err != nil {
			return nil, fmt.Errorf("failed to write archive member %s: %w", name, err)
		}
		members++
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}

	g.log.Debug().Int("members", members).Str("date", stamp).Msg("Built currency archive")
	return buf.Bytes(), nil
}
