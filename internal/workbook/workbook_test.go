package workbook

import (
	"testing"
	"time"

	"github.com/JonMunkholm/payorsync/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDataset() *core.Dataset {
	ds := core.NewDataset()
	ds.AddSheet("GroupSurchargeDetail", [][]string{
		{"PAYORAGREECODE", "BILLINGGROUPCODE", "SURCHARGEMULTIPLIER"},
		{"A1", "B1", "1.2"},
		{"A2", "B2", "1.0"},
	})
	ds.AddSheet("Notes", [][]string{
		{"free text"},
	})
	ds.AddSheet("ItemSurcharge", [][]string{
		{"PAYORAGREECODE", "ORDERITEMCODE", "SURCHARGEMULTIPLIER"},
		{"A1", "I9", "2"},
	})
	return ds
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	c := New()
	in := sampleDataset()

	data, err := c.Encode(in)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	out, err := c.DecodeBytes(data)
	require.NoError(t, err)

	assert.Equal(t, in.SheetNames, out.SheetNames)
	for _, name := range in.SheetNames {
		assert.Equal(t, in.Sheet(name).Rows, out.Sheet(name).Rows, "sheet %s", name)
	}
}

func TestEncodeFirstSheetNamedLikeDefault(t *testing.T) {
	c := New()
	ds := core.NewDataset()
	ds.AddSheet("Sheet1", [][]string{{"h"}, {"v"}})
	ds.AddSheet("Other", [][]string{{"h"}})

	data, err := c.Encode(ds)
	require.NoError(t, err)

	out, err := c.DecodeBytes(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sheet1", "Other"}, out.SheetNames)
}

func TestEncodeEmptyDataset(t *testing.T) {
	c := New()

	_, err := c.Encode(nil)
	assert.ErrorIs(t, err, core.ErrWorkbookWrite)

	_, err = c.Encode(core.NewDataset())
	assert.ErrorIs(t, err, core.ErrWorkbookWrite)
}

func TestDecodeGarbage(t *testing.T) {
	_, err := New().DecodeBytes([]byte("this is not a spreadsheet"))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrUnreadableWorkbook)
	assert.Equal(t, "WB001", core.MapError(err).Code)
}

func TestDecodeDateCells(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"PAYORAGREECODE", "ACTIVEFROM", "SURCHARGEMULTIPLIER"}))
	require.NoError(t, f.SetCellValue(sheet, "A2", "A1"))
	require.NoError(t, f.SetCellValue(sheet, "B2", time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, f.SetCellValue(sheet, "C2", 1.25))

	custom := "dd/mm/yyyy"
	styleID, err := f.NewStyle(&excelize.Style{CustomNumFmt: &custom})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle(sheet, "B2", "B2", styleID))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	ds, err := New().Decode(buf)
	require.NoError(t, err)

	rows := ds.Sheet(sheet).Rows
	require.Len(t, rows, 2)
	assert.Equal(t, "A1", rows[1][0])
	assert.Equal(t, "2024-03-05", rows[1][1])
	assert.Equal(t, "1.25", rows[1][2])
}

func TestIsDateFormatCode(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"yyyy-mm-dd", true},
		{"dd/mm/yyyy", true},
		{"m/d/yy h:mm", true},
		{"0.00", false},
		{"#,##0", false},
		{`"day "0`, false},
		{"[Red]0.00", false},
		{"h:mm:ss", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, isDateFormatCode(tt.code))
		})
	}
}

func TestIsDateStyle(t *testing.T) {
	custom := "0.000"
	assert.False(t, isDateStyle(nil))
	assert.True(t, isDateStyle(&excelize.Style{NumFmt: 14}))
	assert.False(t, isDateStyle(&excelize.Style{NumFmt: 2}))
	assert.False(t, isDateStyle(&excelize.Style{NumFmt: 14, CustomNumFmt: &custom}))
}
