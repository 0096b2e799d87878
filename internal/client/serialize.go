package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Serialize renders a response body the way a browser would show
// JSON.stringify of the parsed response. A JSON body is parsed and
// re-emitted: numbers in their shortest ECMAScript form, strings with
// escapes resolved, duplicate keys collapsed to the last value. Anything
// else, including an empty body, becomes a JSON string literal.
func Serialize(body []byte) (string, error) {
	var sb strings.Builder
	if !json.Valid(body) {
		writeString(&sb, string(body))
		return sb.String(), nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return "", fmt.Errorf("decode body: %w", err)
	}
	writeValue(&sb, v)
	return sb.String(), nil
}

// object keeps keys in first-seen order; a repeated key overwrites the
// value in place.
type object struct {
	keys []string
	vals map[string]any
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}

	switch delim {
	case '{':
		obj := &object{vals: make(map[string]any)}
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return nil, err
			}
			k, _ := kt.(string)
			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			if _, seen := obj.vals[k]; !seen {
				obj.keys = append(obj.keys, k)
			}
			obj.vals[k] = v
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil
	case '[':
		arr := []any{}
		for dec.More() {
			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil
	}
	return nil, fmt.Errorf("unexpected delimiter %q", delim)
}

func writeValue(sb *strings.Builder, v any) {
	switch v := v.(type) {
	case *object:
		sb.WriteByte('{')
		for i, k := range v.ordered() {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeString(sb, k)
			sb.WriteByte(':')
			writeValue(sb, v.vals[k])
		}
		sb.WriteByte('}')
	case []any:
		sb.WriteByte('[')
		for i, e := range v {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeValue(sb, e)
		}
		sb.WriteByte(']')
	case string:
		writeString(sb, v)
	case json.Number:
		sb.WriteString(formatNumber(v))
	case bool:
		sb.WriteString(strconv.FormatBool(v))
	default:
		sb.WriteString("null")
	}
}

// ordered lists array-index keys first in ascending numeric order, then the
// remaining keys in insertion order, matching JavaScript property order.
func (o *object) ordered() []string {
	var index, rest []string
	for _, k := range o.keys {
		if isArrayIndex(k) {
			index = append(index, k)
		} else {
			rest = append(rest, k)
		}
	}
	sort.Slice(index, func(i, j int) bool {
		a, _ := strconv.ParseUint(index[i], 10, 32)
		b, _ := strconv.ParseUint(index[j], 10, 32)
		return a < b
	})
	return append(index, rest...)
}

func isArrayIndex(k string) bool {
	if k == "" || (len(k) > 1 && k[0] == '0') {
		return false
	}
	n, err := strconv.ParseUint(k, 10, 32)
	return err == nil && n < math.MaxUint32
}

// formatNumber applies Number.prototype.toString to a parsed JSON number.
func formatNumber(n json.Number) string {
	f, _ := strconv.ParseFloat(string(n), 64)
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return "null"
	}
	if f == 0 {
		return "0"
	}

	sign := ""
	if f < 0 {
		sign = "-"
		f = -f
	}
	mant, exp, _ := strings.Cut(strconv.FormatFloat(f, 'e', -1, 64), "e")
	digits := strings.Replace(mant, ".", "", 1)
	e, _ := strconv.Atoi(exp)
	k, p := len(digits), e+1

	switch {
	case k <= p && p <= 21:
		return sign + digits + strings.Repeat("0", p-k)
	case 0 < p && p <= 21:
		return sign + digits[:p] + "." + digits[p:]
	case -6 < p && p <= 0:
		return sign + "0." + strings.Repeat("0", -p) + digits
	}

	out := digits[:1]
	if k > 1 {
		out += "." + digits[1:]
	}
	if p-1 < 0 {
		return sign + out + "e-" + strconv.Itoa(1-p)
	}
	return sign + out + "e+" + strconv.Itoa(p-1)
}

// writeString quotes s with the escapes JSON.stringify uses: the short forms
// for quote, backslash and \b \f \n \r \t, \u00xx for other control
// characters, and everything else verbatim.
func writeString(sb *strings.Builder, s string) {
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(sb, `\u%04x`, r)
			} else {
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('"')
}
