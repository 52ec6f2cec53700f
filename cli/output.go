package cli

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gear6io/airbus/db"
	"github.com/gear6io/airbus/db/table"
	"github.com/gear6io/airbus/pkg/errors"
	"github.com/pterm/pterm"
	"golang.org/x/term"
)

// Format is a result rendering
type Format string

const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatArrow Format = "arrow"
)

// ParseFormat validates name; an empty name is table on a terminal and csv otherwise
func ParseFormat(name string, interactive bool) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case "":
		if interactive {
			return FormatTable, nil
		}
		return FormatCSV, nil
	case FormatTable, FormatCSV, FormatJSON, FormatArrow:
		return f, nil
	default:
		return "", errors.Newf(ErrInvalidFormat, "unknown output format %q, expected table, csv, json or arrow", name)
	}
}

// isTerminal reports whether w is an interactive terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// ResultWriter renders block results one after another
type ResultWriter struct {
	format  Format
	out     io.Writer
	dir     string
	written int
}

// NewResultWriter writes to out; arrow files go to dir
func NewResultWriter(format Format, out io.Writer, dir string) *ResultWriter {
	if dir == "" {
		dir = "."
	}
	return &ResultWriter{format: format, out: out, dir: dir}
}

// Write renders one result
func (w *ResultWriter) Write(res *db.Result) error {
	var err error
	switch w.format {
	case FormatCSV:
		err = w.writeCSV(res)
	case FormatJSON:
		err = w.writeJSON(res)
	case FormatArrow:
		err = w.writeArrow(res)
	default:
		err = w.writeTable(res)
	}
	if err != nil {
		return errors.New(ErrOutputFailed, "failed to write result", err).AddContext("block", res.Block)
	}
	w.written++
	return nil
}

func (w *ResultWriter) writeTable(res *db.Result) error {
	if w.written > 0 {
		fmt.Fprintln(w.out)
	}
	fmt.Fprintf(w.out, "[%s] %d rows\n", res.Block, res.Table.RowCount())
	if res.Table.IsEmpty() {
		_, err := fmt.Fprintln(w.out, "(no result set)")
		return err
	}

	data := pterm.TableData{res.Table.Columns}
	for _, row := range res.Table.Rows {
		line := make([]string, len(row))
		for i, cell := range row {
			line[i] = formatCell(cell, "NULL")
		}
		data = append(data, line)
	}

	rendered, err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w.out, rendered)
	return err
}

// writeCSV prefixes each block with a "# name" line when more than one block is written
func (w *ResultWriter) writeCSV(res *db.Result) error {
	if w.written > 0 {
		fmt.Fprintln(w.out)
	}
	fmt.Fprintf(w.out, "# %s\n", res.Block)

	cw := csv.NewWriter(w.out)
	if !res.Table.IsEmpty() {
		if err := cw.Write(res.Table.Columns); err != nil {
			return err
		}
	}
	for _, row := range res.Table.Rows {
		line := make([]string, len(row))
		for i, cell := range row {
			line[i] = formatCell(cell, "")
		}
		if err := cw.Write(line); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type jsonResult struct {
	Block   string       `json:"block"`
	QueryID string       `json:"query_id,omitempty"`
	Columns []string     `json:"columns"`
	Rows    []orderedRow `json:"rows"`
}

// orderedRow marshals as an object with keys in column order
type orderedRow struct {
	columns []string
	cells   []any
}

func (r orderedRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.cells[i])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// writeJSON emits one JSON document per line
func (w *ResultWriter) writeJSON(res *db.Result) error {
	out := jsonResult{
		Block:   res.Block,
		QueryID: res.QueryID,
		Columns: res.Table.Columns,
		Rows:    make([]orderedRow, len(res.Table.Rows)),
	}
	for i, row := range res.Table.Rows {
		out.Rows[i] = orderedRow{columns: res.Table.Columns, cells: row}
	}
	return json.NewEncoder(w.out).Encode(out)
}

// writeArrow writes <dir>/<block>.arrow and reports the path
func (w *ResultWriter) writeArrow(res *db.Result) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return err
	}
	path := filepath.Join(w.dir, fileName(res.Block)+".arrow")

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := res.Table.WriteIPC(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	_, err = fmt.Fprintf(w.out, "%s\t%d rows\t%s\n", res.Block, res.Table.RowCount(), path)
	return err
}

// fileName keeps block names safe as file names
func fileName(block string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, block)
}

func formatCell(v any, null string) string {
	switch c := v.(type) {
	case nil:
		return null
	case string:
		return c
	case int64:
		return strconv.FormatInt(c, 10)
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(c)
	default:
		return fmt.Sprint(c)
	}
}

// kindsLine summarizes column types, shown with --show-schema
func kindsLine(t *table.Table) string {
	kinds := t.Kinds()
	parts := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		parts[i] = col + " " + kinds[i].String()
	}
	return strings.Join(parts, ", ")
}
