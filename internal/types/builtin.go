package types

var VALID_FIELD_TYPES = []FieldType{
	FieldTypeCharacter, FieldTypeNumeric, FieldTypeFloat,
	FieldTypeDate, FieldTypeLogical, FieldTypeMemo,
}

// FieldType is the semantic type of a table column. The names follow the
// dBase type letters: C, N, F, D, L and M.
type FieldType string

const (
	FieldTypeCharacter FieldType = "Character"
	FieldTypeNumeric   FieldType = "Numeric"
	FieldTypeFloat     FieldType = "Float"
	FieldTypeDate      FieldType = "Date"
	FieldTypeLogical   FieldType = "Logical"
	FieldTypeMemo      FieldType = "Memo"
)

func (t FieldType) IsValid() bool {
	for _, valid := range VALID_FIELD_TYPES {
		if t == valid {
			return true
		}
	}
	return false
}

// FieldTypeFromByte maps a raw field descriptor type byte to its FieldType.
func FieldTypeFromByte(b byte) (FieldType, bool) {
	switch b {
	case 'C':
		return FieldTypeCharacter, true
	case 'N':
		return FieldTypeNumeric, true
	case 'F':
		return FieldTypeFloat, true
	case 'D':
		return FieldTypeDate, true
	case 'L':
		return FieldTypeLogical, true
	case 'M':
		return FieldTypeMemo, true
	}
	return "", false
}

// Numeric reports whether values of this type decode to int64 or float64.
func (t FieldType) Numeric() bool {
	return t == FieldTypeNumeric || t == FieldTypeFloat
}
