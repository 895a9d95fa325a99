// Package encoding converts the EUC-KR strings found in zone files.
package encoding

import (
	"bytes"
	"strings"

	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

// EUCKRToUTF8 decodes EUC-KR bytes. Undecodable input is returned unchanged.
func EUCKRToUTF8(data []byte) string {
	out, _, err := transform.Bytes(korean.EUCKR.NewDecoder(), data)
	if err != nil {
		return string(data)
	}
	return string(out)
}

// UTF8ToEUCKR encodes s as EUC-KR. Unencodable input is returned unchanged.
func UTF8ToEUCKR(s string) []byte {
	out, _, err := transform.Bytes(korean.EUCKR.NewEncoder(), []byte(s))
	if err != nil {
		return []byte(s)
	}
	return out
}

// FixedStringToUTF8 decodes a NUL-padded EUC-KR field.
func FixedStringToUTF8(field []byte) string {
	if i := bytes.IndexByte(field, 0); i >= 0 {
		field = field[:i]
	}
	return EUCKRToUTF8(field)
}

// UTF8ToFixedString encodes s into a NUL-padded EUC-KR field of size bytes,
// truncating if needed.
func UTF8ToFixedString(s string, size int) []byte {
	field := make([]byte, size)
	copy(field, UTF8ToEUCKR(s))
	return field
}

// NormalizePath lowercases a game path and turns backslashes into slashes,
// so texture names that differ only in spelling compare equal.
func NormalizePath(p string) string {
	return strings.ToLower(strings.ReplaceAll(p, "\\", "/"))
}
