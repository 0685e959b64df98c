package records

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Sternrassler/launch-export/pkg/flatten"
)

const (
	// ResultPrefix marks flattened keys that belong to a result record.
	ResultPrefix = "result" + flatten.Separator

	// NA fills a column the record has no value for.
	NA = "NA"

	// scalarField names the field of a result element that is a bare scalar.
	scalarField = "value"
)

// ErrRecordOrder is returned when the keys of one record are not contiguous
// or record indices go backwards.
var ErrRecordOrder = errors.New("result keys out of record order")

// Record is one element of the result array.
type Record struct {
	Index  int
	Fields []string
	Values map[string]string
}

// Schema is the ordered column set of an endpoint.
type Schema []string

// Row is one record aligned to a Schema.
type Row []string

// Parse groups the result keys of a flattened page into records, in index
// order. Keys outside the result array (last_page, count, ...) are ignored.
// A page without result keys yields no records.
func Parse(pairs flatten.Pairs) ([]Record, error) {
	var out []Record
	var cur *Record

	for _, pair := range pairs {
		index, field, ok := splitKey(pair.Key)
		if !ok {
			continue
		}

		if cur == nil || index != cur.Index {
			if cur != nil && index < cur.Index {
				return nil, fmt.Errorf("%w: record %d after record %d (key %q)", ErrRecordOrder, index, cur.Index, pair.Key)
			}
			out = append(out, Record{Index: index, Values: make(map[string]string)})
			cur = &out[len(out)-1]
		}

		if _, dup := cur.Values[field]; !dup {
			cur.Fields = append(cur.Fields, field)
		}
		cur.Values[field] = pair.Value
	}

	return out, nil
}

// splitKey extracts the record index and field path from a result key.
// "result_3_pad_location_name" yields (3, "pad_location_name").
func splitKey(key string) (int, string, bool) {
	rest, ok := strings.CutPrefix(key, ResultPrefix)
	if !ok {
		return 0, "", false
	}

	digits, field, hasField := strings.Cut(rest, flatten.Separator)
	index, err := strconv.Atoi(digits)
	if err != nil || index < 0 || digits == "" || digits[0] == '+' {
		return 0, "", false
	}

	if !hasField || field == "" {
		field = scalarField
	}
	return index, field, true
}

// InferSchema returns the field list of the record with the most fields.
// The earliest record wins a tie.
func InferSchema(recs []Record) Schema {
	var best []string
	for _, rec := range recs {
		if len(rec.Fields) > len(best) {
			best = rec.Fields
		}
	}

	schema := make(Schema, len(best))
	copy(schema, best)
	return schema
}

// BuildRows aligns each record to schema. Columns the record lacks get NA.
func BuildRows(recs []Record, schema Schema) []Row {
	rows := make([]Row, 0, len(recs))
	for _, rec := range recs {
		row := make(Row, len(schema))
		for i, col := range schema {
			if v, ok := rec.Values[col]; ok {
				row[i] = v
			} else {
				row[i] = NA
			}
		}
		rows = append(rows, row)
	}
	return rows
}
