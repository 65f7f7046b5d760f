package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// The config file is a flat two-level YAML mapping:
//
//	section:
//	  key: value
//
// parseSections reads that shape without pulling in a YAML dependency; the
// typed assignment in config.go rejects unknown sections and keys.

type scalar string

// sectionMap is section -> key -> raw scalar.
type sectionMap map[string]map[string]scalar

func parseSections(r io.Reader) (sectionMap, error) {
	out := sectionMap{}
	scanner := bufio.NewScanner(r)

	var current string
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()

		// strip comments
		if i := strings.IndexByte(raw, '#'); i >= 0 {
			raw = raw[:i]
		}
		line := strings.TrimRight(raw, " \t\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		// top-level section header (no leading whitespace)
		if line[0] != ' ' && line[0] != '\t' {
			name, ok := strings.CutSuffix(strings.TrimSpace(line), ":")
			if !ok || name == "" {
				return nil, fmt.Errorf("line %d: expected a section header like 'database:'", lineNo)
			}
			if _, dup := out[name]; dup {
				return nil, fmt.Errorf("line %d: duplicate section %q", lineNo, name)
			}
			current = name
			out[current] = map[string]scalar{}
			continue
		}

		// indented "key: value" inside the current section
		if current == "" {
			return nil, fmt.Errorf("line %d: key without a section", lineNo)
		}
		trim := strings.TrimSpace(line)
		colon := strings.IndexByte(trim, ':')
		if colon <= 0 {
			return nil, fmt.Errorf("line %d: expected 'key: value'", lineNo)
		}
		key := strings.TrimSpace(trim[:colon])
		val := strings.TrimSpace(trim[colon+1:])
		if _, dup := out[current][key]; dup {
			return nil, fmt.Errorf("line %d: duplicate key %q in section %q", lineNo, key, current)
		}
		out[current][key] = scalar(unquote(val))
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// str returns the scalar as a plain string.
func (s scalar) str() string { return string(s) }

// toInt parses the scalar into *dst, naming the key in the error.
func (s scalar) toInt(dst *int, name string) error {
	n, err := strconv.Atoi(string(s))
	if err != nil {
		return fmt.Errorf("%s must be an integer: %w", name, err)
	}
	*dst = n
	return nil
}

// unquote removes surrounding "..." or '...' from YAML-like scalars so values
// such as jwt.secret_key are not stored with extra quotes.
func unquote(s string) string {
	n := len(s)
	if n >= 2 && ((s[0] == '"' && s[n-1] == '"') || (s[0] == '\'' && s[n-1] == '\'')) {
		if unq, err := strconv.Unquote(s); err == nil {
			return unq
		}
		return s[1 : n-1]
	}
	return s
}
