// Package dbf reads dBase table files: a 32 byte header, a run of 32 byte
// field descriptors closed by 0x0D, then fixed width records prefixed with a
// one byte deletion flag.
package dbf

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/shiftdb/shiftdb/internal/record"
	"github.com/shiftdb/shiftdb/internal/schema"
	"github.com/shiftdb/shiftdb/internal/types"
)

const (
	headerLen        = 32
	descriptorLen    = 32
	headerTerminator = 0x0D
	recordDeleted    = '*'
)

// sample size for encoding detection, in records
const encodingSampleRecords = 64

type header struct {
	version     byte
	recordCount int
	dataOffset  int
	recordLen   int
}

// FileField is one column as the file itself declares it.
type FileField struct {
	Name     string
	Type     byte
	Length   int
	Decimals int

	// offset within a record, past the deletion flag
	offset int
}

// column pairs a catalog field with the file column backing it. The file
// column is nil when the file does not carry the field.
type column struct {
	name string
	typ  types.FieldType
	file *FileField
}

// Reader decodes one table file against its catalog descriptor. The catalog
// decides which fields are read and what they decode to; the file's own
// descriptors only supply the byte layout. Columns in the file that the
// catalog does not declare are skipped.
type Reader struct {
	table   *schema.Table
	data    []byte
	header  header
	fields  []FileField
	columns []column
	text    *textDecoder
	slot    int
}

func NewReader(data []byte, table *schema.Table) (*Reader, error) {
	r := &Reader{table: table, data: data}

	if err := r.parseHeader(); err != nil {
		return nil, err
	}
	if err := r.parseDescriptors(); err != nil {
		return nil, err
	}
	if err := r.resolveColumns(); err != nil {
		return nil, err
	}

	r.text = detectEncoding(r.encodingSample())
	return r, nil
}

func (r *Reader) parseHeader() error {
	if len(r.data) < headerLen {
		return decodeError(r.table.Name, 0, "file is %d bytes, shorter than the %d byte header", len(r.data), headerLen)
	}

	r.header = header{
		version:     r.data[0],
		recordCount: int(binary.LittleEndian.Uint32(r.data[4:8])),
		dataOffset:  int(binary.LittleEndian.Uint16(r.data[8:10])),
		recordLen:   int(binary.LittleEndian.Uint16(r.data[10:12])),
	}

	if r.header.dataOffset < headerLen+1 || r.header.dataOffset > len(r.data) {
		return decodeError(r.table.Name, 8, "header size %d is inconsistent with a %d byte file", r.header.dataOffset, len(r.data))
	}
	if r.header.recordLen < 1 {
		return decodeError(r.table.Name, 10, "record length %d", r.header.recordLen)
	}
	if need := r.header.dataOffset + r.header.recordCount*r.header.recordLen; len(r.data) < need {
		return decodeError(r.table.Name, r.header.dataOffset,
			"record region truncated: %d records of %d bytes need %d bytes, file has %d",
			r.header.recordCount, r.header.recordLen, need, len(r.data))
	}
	return nil
}

func (r *Reader) parseDescriptors() error {
	field_offset := 1 // deletion flag
	for off := headerLen; ; off += descriptorLen {
		if off >= r.header.dataOffset {
			return decodeError(r.table.Name, off, "field descriptors not terminated before record data")
		}
		if r.data[off] == headerTerminator {
			break
		}
		if off+descriptorLen > r.header.dataOffset {
			return decodeError(r.table.Name, off, "field descriptor overruns the header")
		}

		desc := r.data[off : off+descriptorLen]
		field := FileField{
			Name:     strings.ToUpper(string(trimRaw(desc[0:11]))),
			Type:     desc[11],
			Length:   int(desc[16]),
			Decimals: int(desc[17]),
			offset:   field_offset,
		}
		field_offset += field.Length
		r.fields = append(r.fields, field)
	}

	if field_offset > r.header.recordLen {
		return decodeError(r.table.Name, 10, "declared fields span %d bytes but records are %d bytes", field_offset, r.header.recordLen)
	}
	return nil
}

func (r *Reader) resolveColumns() error {
	by_name := map[string]*FileField{}
	for i := range r.fields {
		by_name[r.fields[i].Name] = &r.fields[i]
	}

	for _, name := range r.table.FieldNames() {
		field, _ := r.table.Field(name)
		col := column{name: name, typ: field.Type, file: by_name[name]}
		if col.file == nil && r.required(name) {
			return decodeError(r.table.Name, headerLen, "required field %s is missing from the file", name)
		}
		r.columns = append(r.columns, col)
	}
	return nil
}

func (r *Reader) required(name string) bool {
	for _, required := range r.table.Required {
		if strings.ToUpper(required) == name {
			return true
		}
	}
	return false
}

// encodingSample gathers the text bytes of the first records so the decoder
// can be picked before any record is converted.
func (r *Reader) encodingSample() []byte {
	sample := []byte{}
	count := r.header.recordCount
	if count > encodingSampleRecords {
		count = encodingSampleRecords
	}
	for slot := 0; slot < count; slot++ {
		rec := r.recordBytes(slot)
		for _, col := range r.columns {
			if col.file == nil || col.typ != types.FieldTypeCharacter {
				continue
			}
			sample = append(sample, rec[col.file.offset:col.file.offset+col.file.Length]...)
		}
	}
	return sample
}

func (r *Reader) recordBytes(slot int) []byte {
	start := r.header.dataOffset + slot*r.header.recordLen
	return r.data[start : start+r.header.recordLen]
}

// Count returns the record count the header declares, deleted rows included.
func (r *Reader) Count() int { return r.header.recordCount }

// Fields returns the columns as the file declares them, in file order.
func (r *Reader) Fields() []FileField { return r.fields }

// Encoding returns the name of the text encoding in use.
func (r *Reader) Encoding() string { return r.text.name }

// Advisory returns a non-fatal decoding warning, or "" when decoding is
// clean.
func (r *Reader) Advisory() string { return r.text.advisory }

// Next returns the next active record, skipping deleted rows, and io.EOF
// after the last one. The record position is the row's slot in the file, so
// deleted rows leave gaps but never shift their neighbors.
func (r *Reader) Next() (record.Record, error) {
	for ; r.slot < r.header.recordCount; r.slot++ {
		rec := r.recordBytes(r.slot)
		if rec[0] == recordDeleted {
			continue
		}

		values := record.Values{}
		for _, col := range r.columns {
			values.Set(col.name, r.convertValue(col, rec))
		}

		out := record.Record{Table: r.table.Name, Pos: r.slot, Values: values}
		r.slot++
		return out, nil
	}
	return record.Record{}, io.EOF
}

// ReadAll materializes every remaining active record.
func (r *Reader) ReadAll() ([]record.Record, error) {
	records := []record.Record{}
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
}

// Decode reads a whole table file eagerly. The advisory, if any, applies to
// every returned record.
func Decode(data []byte, table *schema.Table) (records []record.Record, advisory string, err error) {
	reader, err := NewReader(data, table)
	if err != nil {
		return nil, "", err
	}
	records, err = reader.ReadAll()
	if err != nil {
		return nil, "", err
	}
	return records, reader.Advisory(), nil
}

// DecodeError reports a structurally invalid table file. Bad values inside
// an otherwise well formed record never raise it; they decode to nil.
type DecodeError struct {
	Table  string
	Offset int
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %s (offset %d)", e.Table, e.Reason, e.Offset)
}

func decodeError(table string, offset int, format string, args ...any) *DecodeError {
	return &DecodeError{Table: table, Offset: offset, Reason: fmt.Sprintf(format, args...)}
}
