package dictlist

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/roach88/recordkit/internal/osutil"
	"github.com/roach88/recordkit/internal/record"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readRecords loads the records stored at path. A missing file yields no
// records and no error. The format is validated before the file is checked.
func readRecords(op, path string, f Format) ([]record.Record, error) {
	format, err := resolveFormat(op, path, f)
	if err != nil {
		return nil, err
	}

	ok, err := osutil.Exists(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: read %s: %w", op, path, err)
	}

	var records []record.Record
	switch format {
	case FormatNative:
		records, err = decodeNative(data)
	case FormatCSV:
		records, err = decodeCSV(data)
	case FormatJSON:
		records, err = decodeJSON(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: decode %s: %w", op, path, err)
	}
	return records, nil
}

// writeRecords stores records at path, creating parent directories.
// An empty slice writes nothing.
func writeRecords(op, path string, f Format, records []record.Record) error {
	format, err := resolveFormat(op, path, f)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	if err := osutil.EnsureParent(path); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	var buf bytes.Buffer
	switch format {
	case FormatNative:
		err = encodeNative(&buf, records)
	case FormatCSV:
		err = encodeCSV(&buf, records)
	case FormatJSON:
		err = encodeJSON(&buf, records)
	}
	if err != nil {
		return fmt.Errorf("%s: encode %s: %w", op, path, err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("%s: write %s: %w", op, path, err)
	}
	return nil
}

func encodeNative(w io.Writer, records []record.Record) error {
	rows := make([]map[string]any, len(records))
	for i, r := range records {
		rows[i] = r.ToMap()
	}

	enc := msgpack.GetEncoder()
	defer msgpack.PutEncoder(enc)
	enc.Reset(w)
	enc.SetSortMapKeys(true)
	return enc.Encode(rows)
}

func decodeNative(data []byte) ([]record.Record, error) {
	dec := msgpack.GetDecoder()
	defer msgpack.PutDecoder(dec)
	dec.Reset(bytes.NewReader(data))
	dec.UseLooseInterfaceDecoding(true)

	var rows []map[string]any
	if err := dec.Decode(&rows); err != nil {
		return nil, err
	}

	records := make([]record.Record, len(rows))
	for i, row := range rows {
		r, err := record.From(row)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		records[i] = r
	}
	return records, nil
}

// csvHeader returns the union of keys in first-seen order. Keys of one
// record are visited in sorted order so the header is deterministic.
func csvHeader(records []record.Record) []string {
	seen := make(map[string]bool)
	var header []string
	for _, r := range records {
		for _, k := range r.SortedKeys() {
			if !seen[k] {
				seen[k] = true
				header = append(header, k)
			}
		}
	}
	return header
}

func encodeCSV(w io.Writer, records []record.Record) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}

	header := csvHeader(records)
	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for _, r := range records {
		for i, k := range header {
			if v, ok := r[k]; ok && v != nil {
				row[i] = v.String()
			} else {
				row[i] = ""
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func decodeCSV(data []byte) ([]record.Record, error) {
	cr := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	cr.FieldsPerRecord = -1

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, nil
	}

	header := rows[0]
	records := make([]record.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		r := make(record.Record, len(header))
		for i, k := range header {
			if i < len(row) && row[i] != "" {
				r[k] = record.String(row[i])
			}
		}
		records = append(records, r)
	}
	return records, nil
}

func encodeJSON(w io.Writer, records []record.Record) error {
	if records == nil {
		records = []record.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "\t")
	return enc.Encode(records)
}

func decodeJSON(data []byte) ([]record.Record, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var records []record.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}
