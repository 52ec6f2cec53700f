package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/gear6io/airbus/db"
	"github.com/gear6io/airbus/db/table"
	"github.com/gear6io/airbus/pkg/errors"
	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ordersResult() *db.Result {
	return &db.Result{
		Block:   "orders",
		QueryID: "q-1",
		Table: &table.Table{
			Columns: []string{"id", "name", "total"},
			Rows: [][]any{
				{int64(1), "alice", 12.5},
				{int64(2), nil, 3.0},
			},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name        string
		interactive bool
		want        Format
		wantErr     bool
	}{
		{name: "", interactive: true, want: FormatTable},
		{name: "", interactive: false, want: FormatCSV},
		{name: "JSON", want: FormatJSON},
		{name: " arrow ", want: FormatArrow},
		{name: "table", want: FormatTable},
		{name: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.name, tt.interactive)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.HasCode(err, ErrInvalidFormat))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	w := NewResultWriter(FormatCSV, &buf, "")

	require.NoError(t, w.Write(ordersResult()))
	require.NoError(t, w.Write(&db.Result{Block: "ddl", Table: table.Empty()}))

	assert.Equal(t, "# orders\nid,name,total\n1,alice,12.5\n2,,3\n\n# ddl\n", buf.String())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	w := NewResultWriter(FormatJSON, &buf, "")

	require.NoError(t, w.Write(ordersResult()))

	// Keys follow column order, not alphabetical order
	assert.Equal(t,
		`{"block":"orders","query_id":"q-1","columns":["id","name","total"],"rows":[{"id":1,"name":"alice","total":12.5},{"id":2,"name":null,"total":3}]}`+"\n",
		buf.String())
}

func TestWriteTable(t *testing.T) {
	pterm.DisableStyling()
	defer pterm.EnableStyling()

	var buf bytes.Buffer
	w := NewResultWriter(FormatTable, &buf, "")

	require.NoError(t, w.Write(ordersResult()))
	require.NoError(t, w.Write(&db.Result{Block: "ddl", Table: table.Empty()}))

	out := buf.String()
	assert.Contains(t, out, "[orders] 2 rows")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "NULL")
	assert.Contains(t, out, "[ddl] 0 rows\n(no result set)")
}

func TestWriteArrow(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	var buf bytes.Buffer
	w := NewResultWriter(FormatArrow, &buf, dir)

	res := ordersResult()
	res.Block = "daily orders"
	require.NoError(t, w.Write(res))

	path := filepath.Join(dir, "daily_orders.arrow")
	assert.Equal(t, "daily orders\t2 rows\t"+path+"\n", buf.String())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	reader, err := ipc.NewReader(f)
	require.NoError(t, err)
	defer reader.Release()

	require.True(t, reader.Next())
	rec := reader.Record()
	assert.Equal(t, int64(2), rec.NumRows())
	assert.Equal(t, "name", rec.Schema().Field(1).Name)
}

func TestKindsLine(t *testing.T) {
	assert.Equal(t, "id integer, name text, total float", kindsLine(ordersResult().Table))
}

func TestFormatCell(t *testing.T) {
	assert.Equal(t, "NULL", formatCell(nil, "NULL"))
	assert.Equal(t, "", formatCell(nil, ""))
	assert.Equal(t, "42", formatCell(int64(42), ""))
	assert.Equal(t, "0.1", formatCell(0.1, ""))
	assert.Equal(t, "true", formatCell(true, ""))
	assert.Equal(t, "[1 2]", formatCell([]int{1, 2}, ""))
}
