package export

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fujitaka/MultiAssetOFX/internal/domain"
)

func readArchive(t *testing.T, data []byte) map[string]string {
	t.Helper()

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	members := make(map[string]string, len(reader.File))
	for _, file := range reader.File {
		rc, err := file.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		members[file.Name] = string(content)
	}
	return members
}

func TestBuildCurrencyArchive(t *testing.T) {
	generator := NewGenerator(zerolog.Nop())

	t.Run("one member per currency, JPY first", func(t *testing.T) {
		records := []domain.PriceRecord{usStock(), jpStock(), jpFund()}

		data, err := generator.BuildCurrencyArchive(records, exportDate, "00000")
		require.NoError(t, err)

		reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		require.NoError(t, err)
		require.Len(t, reader.File, 2)
		assert.Equal(t, "SecuOFX_20240115_JPY.ofx", reader.File[0].Name)
		assert.Equal(t, "SecuOFX_20240115_USD.ofx", reader.File[1].Name)

		members := readArchive(t, data)

		jpy := members["SecuOFX_20240115_JPY.ofx"]
		assert.Contains(t, jpy, "<CURDEF>JPY</CURDEF>")
		assert.Contains(t, jpy, "<UNIQUEID>7203</UNIQUEID>")
		assert.Contains(t, jpy, "<UNIQUEID>JP90C0001QM4</UNIQUEID>")
		assert.NotContains(t, jpy, "AAPL")

		usd := members["SecuOFX_20240115_USD.ofx"]
		assert.Contains(t, usd, "<CURDEF>USD</CURDEF>")
		assert.Contains(t, usd, "<UNIQUEID>AAPL</UNIQUEID>")
		assert.NotContains(t, usd, "7203")
	})

	t.Run("single currency yields a single member", func(t *testing.T) {
		data, err := generator.BuildCurrencyArchive([]domain.PriceRecord{usStock()}, exportDate, "00000")
		require.NoError(t, err)

		members := readArchive(t, data)
		require.Len(t, members, 1)
		assert.Contains(t, members, "SecuOFX_20240115_USD.ofx")
	})

	t.Run("archive filename", func(t *testing.T) {
		assert.Equal(t, "SecuOFX_20240115.zip", ArchiveFilename(exportDate))
	})
}
