// Package flatten collapses a JSON document into an ordered list of
// compound keys and scalar values.
//
// Nested object keys and array positions are joined with Separator, so
//
//	{"result": [{"name": "Falcon 9", "provider": {"id": 1}}]}
//
// becomes
//
//	result_0_name        Falcon 9
//	result_0_provider_id 1
//
// Key order follows the document. Record grouping downstream depends on the
// keys of one array element being contiguous, which a map would not keep.
package flatten

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Separator joins path segments in flattened keys.
const Separator = "_"

// ErrInvalidJSON is returned when the input is not a single valid JSON document.
var ErrInvalidJSON = errors.New("invalid json")

// Pair is one flattened key and its rendered scalar value.
type Pair struct {
	Key   string
	Value string
}

// Pairs is a flattened document in document order.
type Pairs []Pair

// Get returns the value stored under key.
func (p Pairs) Get(key string) (string, bool) {
	for _, pair := range p {
		if pair.Key == key {
			return pair.Value, true
		}
	}
	return "", false
}

// Map returns the pairs as a lookup map.
func (p Pairs) Map() map[string]string {
	m := make(map[string]string, len(p))
	for _, pair := range p {
		m[pair.Key] = pair.Value
	}
	return m
}

// Flatten decodes data and returns its flattened form.
//
// Scalars are rendered as strings: strings verbatim, numbers as their JSON
// literal, booleans as true/false and null as the empty string. Empty objects
// and arrays are kept as "{}" and "[]".
func Flatten(data []byte) (Pairs, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	f := &flattener{dec: dec}
	if err := f.value(""); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after document", ErrInvalidJSON)
	}

	return f.pairs, nil
}

type flattener struct {
	dec   *json.Decoder
	pairs Pairs
}

func (f *flattener) value(prefix string) error {
	tok, err := f.dec.Token()
	if err != nil {
		return err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return f.object(prefix)
		case '[':
			return f.array(prefix)
		default:
			return fmt.Errorf("unexpected delimiter %q", t)
		}
	case json.Number:
		f.emit(prefix, t.String())
	case string:
		f.emit(prefix, t)
	case bool:
		f.emit(prefix, strconv.FormatBool(t))
	case nil:
		f.emit(prefix, "")
	default:
		return fmt.Errorf("unexpected token %v", tok)
	}
	return nil
}

func (f *flattener) object(prefix string) error {
	n := 0
	for f.dec.More() {
		tok, err := f.dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("object key is %T, not string", tok)
		}
		if err := f.value(join(prefix, key)); err != nil {
			return err
		}
		n++
	}

	// closing brace
	if _, err := f.dec.Token(); err != nil {
		return err
	}

	if n == 0 {
		f.emit(prefix, "{}")
	}
	return nil
}

func (f *flattener) array(prefix string) error {
	n := 0
	for f.dec.More() {
		if err := f.value(join(prefix, strconv.Itoa(n))); err != nil {
			return err
		}
		n++
	}

	if _, err := f.dec.Token(); err != nil {
		return err
	}

	if n == 0 {
		f.emit(prefix, "[]")
	}
	return nil
}

// emit records a scalar. A bare top-level scalar has no key and is dropped.
func (f *flattener) emit(key, value string) {
	if key == "" {
		return
	}
	f.pairs = append(f.pairs, Pair{Key: key, Value: value})
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + Separator + key
}
