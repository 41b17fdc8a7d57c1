package dbf

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Candidate encodings for text fields, in priority order. German planner
// installations wrote cp1252 almost exclusively; the DOS codepages cover
// tables that passed through older export tools. A nil charmap means UTF-8.
var encodingCandidates = []struct {
	name string
	cm   *charmap.Charmap
}{
	{"cp1252", charmap.Windows1252},
	{"cp850", charmap.CodePage850},
	{"iso-8859-1", charmap.ISO8859_1},
	{"cp437", charmap.CodePage437},
	{"utf-8", nil},
}

// Umlauts mangled by a cyrillic codepage round trip.
var umlautRepairs = strings.NewReplacer(
	"ь", "ü", "д", "ä", "ц", "ö",
	"Ь", "Ü", "Д", "Ä", "Ц", "Ö",
	"Я", "ß", "ќ", "ü", "Ђ", "Ä",
)

type textDecoder struct {
	name     string
	dec      *encoding.Decoder
	advisory string
}

// detectEncoding picks the first candidate whose decode of the sample is
// clean. When none is, text is still read, permissively, as cp1252, and the
// fallback is reported as an advisory instead of failing the table.
func detectEncoding(sample []byte) *textDecoder {
	for _, candidate := range encodingCandidates {
		if candidate.cm == nil {
			if utf8.Valid(sample) && cleanlyDecoded(string(sample)) {
				return &textDecoder{name: candidate.name}
			}
			continue
		}
		decoded, err := candidate.cm.NewDecoder().Bytes(sample)
		if err == nil && cleanlyDecoded(string(decoded)) {
			return &textDecoder{name: candidate.name, dec: candidate.cm.NewDecoder()}
		}
	}

	return &textDecoder{
		name:     "cp1252",
		dec:      charmap.Windows1252.NewDecoder(),
		advisory: "no candidate encoding decodes cleanly; text fields read permissively as cp1252",
	}
}

// cleanlyDecoded reports whether decoded text is free of replacement and
// control characters. NUL and whitespace pass, they are padding.
func cleanlyDecoded(s string) bool {
	for _, r := range s {
		switch {
		case r == utf8.RuneError:
			return false
		case r == 0 || r == '\t' || r == '\n' || r == '\r':
			continue
		case r < 0x20 || (0x7F <= r && r <= 0x9F):
			return false
		}
	}
	return true
}

// clean decodes one raw text region: NUL bytes dropped, mangled umlauts
// repaired, padding trimmed.
func (d *textDecoder) clean(raw []byte) string {
	s := string(raw)
	if d.dec != nil {
		if decoded, err := d.dec.Bytes(raw); err == nil {
			s = string(decoded)
		}
	}
	s = strings.ReplaceAll(s, "\x00", "")
	s = umlautRepairs.Replace(s)
	return strings.TrimSpace(s)
}
