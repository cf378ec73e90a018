package cfbf

import (
	"unicode/utf16"

	"golang.org/x/text/encoding/unicode"
)

// utf16LEEncoder is shared by every name encode: directory entries
// (directory_writer.go) and name validation (document.go). Grounded on
// tkuchiki-go-xls/writer.go's encodeString, which builds exactly this
// encoder for BIFF8 string fields.
var utf16LEEncoder = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()

// utf16LEBytes encodes s as UTF-16LE, without a terminating NUL.
func utf16LEBytes(s string) ([]byte, error) {
	return utf16LEEncoder.String(s)
}

// decodeName decodes a directory entry's raw 32-uint16 name field back to
// a Go string, given the on-disk name length in bytes (including the
// NUL terminator). Grounded on richardlehane-mscfb/directory.go's name
// decode (utf16.Decode over the non-NUL prefix), extended to reject
// unpaired surrogates instead of silently replacing them: utf16.Decode
// maps those to U+FFFD, which would hide a malformed name behind a
// plausible-looking string.
func decodeName(raw [32]uint16, nameLen uint16) (string, error) {
	if nameLen < 2 {
		return "", nil
	}
	n := int(nameLen/2) - 1 // exclude the NUL terminator
	if n < 0 {
		return "", nil
	}
	if n > len(raw) {
		n = len(raw)
	}
	units := raw[:n]
	if !validUTF16(units) {
		return "", newError(KindInvalidName, "directory entry name contains an unpaired UTF-16 surrogate")
	}
	return string(utf16.Decode(units)), nil
}

// validUTF16 reports whether units is a well-formed UTF-16 sequence: every
// high surrogate (0xD800-0xDBFF) is immediately followed by a low
// surrogate (0xDC00-0xDFFF), and no low surrogate appears unpaired.
func validUTF16(units []uint16) bool {
	for i := 0; i < len(units); i++ {
		u := units[i]
		switch {
		case u >= 0xD800 && u <= 0xDBFF:
			if i+1 >= len(units) || units[i+1] < 0xDC00 || units[i+1] > 0xDFFF {
				return false
			}
			i++
		case u >= 0xDC00 && u <= 0xDFFF:
			return false
		}
	}
	return true
}
