// Copyright (C) 2026 groundlink contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package decoder implements the binary decoder runtime (C2): a
// spec-driven interpreter that converts a packet's raw payload into
// typed DecodedRows by executing a PacketSchema against it. It never
// performs I/O and raises only InputError/SchemaError; a buffer that
// ends inside an instance stops decoding with neither an error nor a
// warning, and that partial instance is dropped.
package decoder

import (
	"encoding/hex"
	"fmt"
)

// Warning is a non-fatal event surfaced during decode (queue-ID
// mismatch, segment-length mismatch) — the caller decides
// whether to log it, count it, or route it to a dead-letter sink.
type Warning struct {
	Instance int
	Message  string
}

// Decode runs schema against buf and returns the rows it could
// produce. A mismatched segment length is a Warning, and a buffer that
// ends inside an instance stops decoding without an error. It returns
// an InputError when buf is too short for skip_bytes or the common
// header, and a SchemaError for a schema that fails to validate or
// breaks down while decoding.
func Decode(schema *PacketSchema, mappings map[string]map[int]string, buf []byte) ([]*Row, []Warning, error) {
	if err := schema.Validate(); err != nil {
		return nil, nil, err
	}

	r := &byteReader{buf: buf}
	var warnings []Warning

	if err := r.skip(schema.CommonHeader.SkipBytes); err != nil {
		return nil, nil, &InputError{Reason: "buffer shorter than common_header.skip_bytes"}
	}

	header := &Row{}
	for _, f := range schema.CommonHeader.Fields {
		if err := readField(r, f, mappings, header); err != nil {
			if err == errTruncated {
				return nil, nil, &InputError{Reason: "buffer truncated while reading common header"}
			}
			return nil, nil, err
		}
	}

	if schema.ExpectedQueueID != nil {
		if qid, ok := header.Get("Queue_ID"); ok {
			if asInt(qid) != int64(*schema.ExpectedQueueID) {
				warnings = append(warnings, Warning{Message: fmt.Sprintf(
					"Queue_ID mismatch: expected %d, got %v", *schema.ExpectedQueueID, qid)})
			}
		}
	}

	nInst, ok := header.Get("Number_of_Instances")
	if !ok {
		return nil, nil, &SchemaError{Reason: "common_header did not produce Number_of_Instances"}
	}
	n := int(asInt(nInst))
	if n <= 0 {
		return []*Row{}, warnings, nil
	}

	rows := make([]*Row, 0, n)
	for i := 0; i < n; i++ {
		row, w, truncated, err := decodeInstance(r, schema, mappings, header, i)
		if err != nil {
			return nil, nil, err
		}
		warnings = append(warnings, w...)
		if truncated {
			break
		}
		rows = append(rows, row)
	}

	return rows, warnings, nil
}

// DecodeHex is Decode over a hex-encoded payload, per spec §4.2 step 1
// ("Normalize input to bytes; reject odd-length hex with InputError").
func DecodeHex(schema *PacketSchema, mappings map[string]map[int]string, payload string) ([]*Row, []Warning, error) {
	if len(payload)%2 != 0 {
		return nil, nil, &InputError{Reason: "odd-length hex payload"}
	}
	buf, err := hex.DecodeString(payload)
	if err != nil {
		return nil, nil, &InputError{Reason: fmt.Sprintf("invalid hex payload: %v", err)}
	}
	return Decode(schema, mappings, buf)
}

// decodeInstance reads one instance (fixed or variable-length) and
// reports whether the buffer was exhausted part-way through it.
func decodeInstance(r *byteReader, schema *PacketSchema, mappings map[string]map[int]string, header *Row, idx int) (row *Row, warnings []Warning, truncated bool, err error) {
	row = header.Clone()

	if schema.SegmentHasVarLen {
		for _, f := range schema.SegmentBase {
			if ferr := readField(r, f, mappings, row); ferr != nil {
				if ferr == errTruncated {
					return nil, warnings, true, nil
				}
				return nil, warnings, false, ferr
			}
		}

		countVal, ok := row.Get(schema.VarArray.CountFrom)
		if !ok {
			return nil, warnings, false, &SchemaError{Reason: fmt.Sprintf("var_array.count_from %q not found in segment_base", schema.VarArray.CountFrom)}
		}
		count := int(asInt(countVal))

		ft, ferr := ParseFieldType(schema.VarArray.Item.Type)
		if ferr != nil {
			return nil, warnings, false, ferr
		}

		for k := 1; k <= count; k++ {
			value, _, rerr := r.readTyped(ft)
			if rerr != nil {
				if rerr == errTruncated {
					return nil, warnings, true, nil
				}
				return nil, warnings, false, rerr
			}
			name := fmt.Sprintf("%s%d", schema.VarArray.Item.NamePrefix, k)
			row.Set(name, applyScale(value, schema.VarArray.Item.Scale))
		}
		return row, warnings, false, nil
	}

	start := r.pos
	segLen := *schema.SegmentLenBytes

	for _, f := range schema.Segment {
		if ferr := readField(r, f, mappings, row); ferr != nil {
			if ferr == errTruncated {
				return nil, warnings, true, nil
			}
			return nil, warnings, false, ferr
		}
	}

	consumed := r.pos - start
	if consumed != segLen {
		warnings = append(warnings, Warning{
			Instance: idx,
			Message:  fmt.Sprintf("segment length mismatch: declared %d, consumed %d", segLen, consumed),
		})
		// Resync to the declared segment boundary so the next
		// instance starts where the schema says it must, per spec
		// §4.2 step 6 and the decoder state machine in §4.10.
		r.pos = start + segLen
		if r.pos > len(r.buf) {
			return row, warnings, true, nil
		}
	}

	return row, warnings, false, nil
}

// readField executes the read -> map -> transform -> scale pipeline
// for one field descriptor and appends its column(s) to row.
func readField(r *byteReader, f FieldDef, mappings map[string]map[int]string, row *Row) error {
	ft, err := ParseFieldType(f.Type)
	if err != nil {
		return err
	}

	value, raw, err := r.readTyped(ft)
	if err != nil {
		return err
	}

	if f.MapName != "" {
		label, merr := applyMapping(mappings, f.MapName, value)
		if merr != nil {
			return merr
		}
		row.Set(f.Name, value)
		row.Set(f.Name+"_Name", label)
	} else {
		scalar, merge, terr := applyTransform(f.Transform, value, raw)
		if terr != nil {
			return terr
		}
		if merge != nil {
			for k, v := range merge {
				row.Set(k, v)
			}
		} else {
			row.Set(f.Name, applyScale(scalar, f.Scale))
		}
	}

	return nil
}

func asInt(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case uint64:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}
