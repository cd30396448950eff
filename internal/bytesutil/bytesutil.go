// This file is part of superboot
// SPDX-License-Identifier: GPL-3.0-only

// Package bytesutil provides the narrow-string and line-tokenization
// primitives the config parsers and extent-tree reader build on, plus
// wide/narrow transcoding for paths and titles that must round-trip
// through the firmware's UTF-16 convention.
package bytesutil

import (
	"bytes"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// NarrowToWide encodes a narrow string into UTF-16LE bytes suitable for
// writing to a file the firmware convention expects to be wide text, e.g.
// the shim fallback BOOT*.CSV.
func NarrowToWide(s string) ([]byte, error) {
	return utf16le.NewEncoder().Bytes([]byte(s))
}

// WideBytesToNarrow decodes raw UTF-16LE bytes into a narrow Go string.
func WideBytesToNarrow(b []byte) (string, error) {
	out, err := utf16le.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(bytes.TrimRight(out, "\x00")), nil
}

// NormalizeSeparators rewrites forward slashes to backslashes, the
// firmware's native path separator, and ensures a single leading
// backslash.
func NormalizeSeparators(path string) string {
	path = strings.ReplaceAll(path, "/", "\\")
	if !strings.HasPrefix(path, "\\") {
		path = "\\" + path
	}
	return path
}

// ToDriverPath rewrites backslashes to forward slashes, the convention
// built-in drivers use internally.
func ToDriverPath(path string) string {
	return strings.ReplaceAll(path, "\\", "/")
}

// SplitLines splits text on '\n', keeping empty trailing segments out, the
// way every line-oriented config parser in this package wants its input.
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// TrimTrailingSpace trims trailing spaces and tabs, matching the on-disk
// config formats' convention of ignoring trailing whitespace on values.
func TrimTrailingSpace(s string) string {
	return strings.TrimRight(s, " \t")
}

// Interpolate expands $name and ${name} references in s using lookup.
// Unknown variables expand to the empty string.
func Interpolate(s string, lookup func(name string) (string, bool)) string {
	var out strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '$' || i+1 >= len(s) {
			out.WriteByte(c)
			continue
		}
		if s[i+1] == '{' {
			end := strings.IndexByte(s[i+2:], '}')
			if end < 0 {
				out.WriteByte(c)
				continue
			}
			name := s[i+2 : i+2+end]
			if v, ok := lookup(name); ok {
				out.WriteString(v)
			}
			i += 2 + end
			continue
		}
		j := i + 1
		for j < len(s) && isNameByte(s[j]) {
			j++
		}
		if j == i+1 {
			out.WriteByte(c)
			continue
		}
		name := s[i+1 : j]
		if v, ok := lookup(name); ok {
			out.WriteString(v)
		}
		i = j - 1
	}
	return out.String()
}

func isNameByte(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}
