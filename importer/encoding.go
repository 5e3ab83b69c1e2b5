package importer

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeText decodes raw upload bytes into text. UTF-8 is tried first; when
// the result carries replacement artifacts the bytes are re-decoded as
// Windows-1252, then ISO-8859-1, in that fixed order. The first decoding
// without artifacts wins. DecodeText never fails: if every candidate carries
// artifacts the UTF-8 reading is returned as-is.
func DecodeText(data []byte) string {
	data = bytes.TrimPrefix(data, utf8BOM)

	utf8Text := string(bytes.ToValidUTF8(data, []byte(string(utf8.RuneError))))
	if utf8.Valid(data) && !strings.ContainsRune(utf8Text, utf8.RuneError) {
		return utf8Text
	}

	for _, cm := range []*charmap.Charmap{charmap.Windows1252, charmap.ISO8859_1} {
		decoded, err := cm.NewDecoder().Bytes(data)
		if err != nil {
			continue
		}
		if text := string(decoded); !strings.ContainsRune(text, utf8.RuneError) {
			return text
		}
	}

	return utf8Text
}
