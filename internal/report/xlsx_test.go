package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteSpreadsheet(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSpreadsheet(&buf, sampleViews()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, header, rows[0])
	assert.Equal(t, []string{"1", "Manhattan", "Brooklyn", "Winter Parka", "Outerwear", "18", "19.43", "Pending", "StoreTransfer", "2026-03-01T09:00:00Z"}, rows[1])
	require.GreaterOrEqual(t, len(rows[2]), 9)
	assert.Equal(t, []string{"2", "Brooklyn", "Online", "Winter Parka", "Outerwear", "30", "0.00", "Approved", "OnlineSale"}, rows[2][:9])
}

func TestWriteSpreadsheetEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSpreadsheet(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Equal(t, [][]string{header}, rows)
}
