package signature

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"unicode/utf16"
)

// ErrMalformedPayload indicates the raw body is not a valid JSON document.
var ErrMalformedPayload = errors.New("malformed payload")

// Canonicalize parses raw JSON and re-renders it in canonical form: keys
// sorted lexicographically at every nesting level, no whitespace between
// tokens, ASCII-only strings with non-ASCII characters escaped as
// \uXXXX. The canonical bytes are the exact signing input on both the
// sending and receiving side, so two structurally equal payloads must
// always come out byte-identical regardless of original key order or
// formatting.
func Canonicalize(raw []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	// Keep number lexemes as-is instead of round-tripping through float64.
	dec.UseNumber()

	var payload interface{}
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	// Trailing garbage after the document is also malformed.
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after JSON document", ErrMalformedPayload)
	}

	var buf bytes.Buffer
	if err := writeCanonical(&buf, payload); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v interface{}) error {
	switch t := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeCanonicalString(buf, k)
			buf.WriteByte(':')
			if err := writeCanonical(buf, t[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case []interface{}:
		buf.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case json.Number:
		buf.WriteString(t.String())
	case string:
		writeCanonicalString(buf, t)
	case bool:
		if t {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case nil:
		buf.WriteString("null")
	default:
		return fmt.Errorf("unsupported value of type %T", t)
	}
	return nil
}

// writeCanonicalString renders a JSON string as the provider does: ", \
// and the usual control shortcuts escaped, every other character outside
// printable ASCII escaped as lowercase \uXXXX (characters beyond the
// basic multilingual plane as a UTF-16 surrogate pair). Notably & < >
// are NOT escaped, unlike encoding/json's default HTML-safe output.
func writeCanonicalString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			switch {
			case r >= 0x20 && r <= 0x7e:
				buf.WriteByte(byte(r))
			case r > 0xffff:
				hi, lo := utf16.EncodeRune(r)
				fmt.Fprintf(buf, `\u%04x\u%04x`, hi, lo)
			default:
				fmt.Fprintf(buf, `\u%04x`, r)
			}
		}
	}
	buf.WriteByte('"')
}
