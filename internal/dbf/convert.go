package dbf

import (
	"bytes"
	"strconv"
	"strings"
	"time"

	"github.com/shiftdb/shiftdb/internal/types"
)

// convertValue turns one raw field region into the typed value the catalog
// declares. Values that do not parse become nil rather than failing the
// record; only structural problems fail a decode.
func (r *Reader) convertValue(col column, rec []byte) any {
	if col.file == nil {
		return nil
	}
	raw := rec[col.file.offset : col.file.offset+col.file.Length]

	switch col.typ {
	case types.FieldTypeCharacter:
		return r.text.clean(raw)

	case types.FieldTypeNumeric, types.FieldTypeFloat:
		return convertNumber(col, raw)

	case types.FieldTypeDate:
		return convertDate(raw)

	case types.FieldTypeLogical:
		return convertLogical(raw)

	case types.FieldTypeMemo:
		// The record only stores a block pointer into a companion memo
		// file, which the loader does not read.
		return nil
	}

	return r.text.clean(raw)
}

// Numbers are stored as right aligned ASCII. A field declared Numeric still
// decodes to float64 when the file says it carries decimals.
func convertNumber(col column, raw []byte) any {
	s := string(trimRaw(raw))
	if s == "" {
		return nil
	}

	if col.typ == types.FieldTypeFloat || col.file.Type == 'F' || col.file.Decimals > 0 {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		return f
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return n
}

// Dates are stored as YYYYMMDD text; blank or junk regions decode to nil.
func convertDate(raw []byte) any {
	s := string(trimRaw(raw))
	if s == "" {
		return nil
	}
	day, err := time.Parse("20060102", s)
	if err != nil {
		return nil
	}
	return day
}

func convertLogical(raw []byte) any {
	s := strings.ToUpper(string(trimRaw(raw)))
	switch s {
	case "", "?":
		return nil
	case "T", "Y", "1", "TRUE":
		return true
	}
	return false
}

func trimRaw(raw []byte) []byte {
	return bytes.Trim(raw, " \x00")
}
