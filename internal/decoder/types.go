// Copyright (C) 2026 groundlink contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package decoder

import (
	"fmt"
	"strconv"
	"strings"
)

// FieldKind is the closed set of wire types a field pipeline can read.
// Representing it as a sum type (kind + width) instead of a bare
// string lets the reader switch exhaustively instead of falling
// through to an "unsupported type" string-compare chain.
type FieldKind int

const (
	KindUint8 FieldKind = iota
	KindUint16LE
	KindUint32LE
	KindUint64LE
	KindInt8
	KindInt16LE
	KindFloat32LE
	KindFloat64LE
	KindBytes
)

// FieldType is a parsed wire-type descriptor, e.g. "UINT16_LE" or
// "BYTES_32" (width carried alongside the kind for the BYTES_n family).
type FieldType struct {
	Kind  FieldKind
	Width int // byte width; meaningful for all kinds, required for BYTES
}

// ParseFieldType resolves a raw schema string against the closed set
// of wire types. BYTES_n is the only parameterized member.
func ParseFieldType(raw string) (FieldType, error) {
	switch raw {
	case "UINT8":
		return FieldType{Kind: KindUint8, Width: 1}, nil
	case "UINT16_LE":
		return FieldType{Kind: KindUint16LE, Width: 2}, nil
	case "UINT32_LE":
		return FieldType{Kind: KindUint32LE, Width: 4}, nil
	case "UINT64_LE":
		return FieldType{Kind: KindUint64LE, Width: 8}, nil
	case "INT8":
		return FieldType{Kind: KindInt8, Width: 1}, nil
	case "INT16_LE":
		return FieldType{Kind: KindInt16LE, Width: 2}, nil
	case "FLOAT32_LE":
		return FieldType{Kind: KindFloat32LE, Width: 4}, nil
	case "FLOAT64_LE":
		return FieldType{Kind: KindFloat64LE, Width: 8}, nil
	}
	if strings.HasPrefix(raw, "BYTES_") {
		n, err := strconv.Atoi(strings.TrimPrefix(raw, "BYTES_"))
		if err != nil || n <= 0 {
			return FieldType{}, &SchemaError{Reason: fmt.Sprintf("invalid BYTES_n type %q", raw)}
		}
		return FieldType{Kind: KindBytes, Width: n}, nil
	}
	return FieldType{}, &SchemaError{Reason: fmt.Sprintf("unsupported field type %q", raw)}
}

// Transform is the closed set of post-read value transforms.
type Transform string

const (
	TransformNone                   Transform = ""
	TransformEpoch32ToUTC           Transform = "EPOCH32_TO_UTC_DATETIME"
	TransformEpoch64ToUTC           Transform = "EPOCH64_TO_UTC_DATETIME"
	TransformTempU8InvalidAsInt8    Transform = "TEMP_U8_255_INVALID_AS_INT8"
	TransformADCSStatePacked7To12   Transform = "ADCS_STATE_PACKED_7_12"
	TransformADCSStateValidityByte  Transform = "ADCS_STATE_VALIDITY_BYTE_13"
	TransformADCSStateFlagsByte     Transform = "ADCS_STATE_FLAGS_BYTE_14"
)

func validTransform(t Transform) bool {
	switch t {
	case TransformNone, TransformEpoch32ToUTC, TransformEpoch64ToUTC,
		TransformTempU8InvalidAsInt8, TransformADCSStatePacked7To12,
		TransformADCSStateValidityByte, TransformADCSStateFlagsByte:
		return true
	}
	return false
}

// FieldDef is one declarative field descriptor, shared by common
// headers and fixed segments.
type FieldDef struct {
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Scale     *float64  `json:"scale,omitempty"`
	Transform Transform `json:"transform,omitempty"`
	MapName   string    `json:"map_name,omitempty"`
}

// ItemDef describes one element of a variable-length repeated segment.
type ItemDef struct {
	NamePrefix string   `json:"name_prefix"`
	Type       string   `json:"type"`
	Scale      *float64 `json:"scale,omitempty"`
}

// VarArray describes the variable-length tail of a segment: count_from
// names a field already read in segment_base whose value gives the
// repeat count.
type VarArray struct {
	CountFrom string  `json:"count_from"`
	Item      ItemDef `json:"item"`
}

// CommonHeader is read once per packet, ahead of all instances, and
// its fields are copied into every produced row.
type CommonHeader struct {
	SkipBytes int        `json:"skip_bytes"`
	Fields    []FieldDef `json:"fields"`
}

// PacketSchema is the declarative description of one telemetry packet
// (spec §3 "PacketSchema"). Segment is used for fixed-length
// instances; SegmentBase+VarArray for variable-length ones — exactly
// one of the two modes applies, selected by SegmentHasVarLen.
type PacketSchema struct {
	Name              string     `json:"name"`
	ExpectedQueueID   *int       `json:"expected_queue_id,omitempty"`
	CommonHeader      CommonHeader `json:"common_header"`
	Segment           []FieldDef `json:"segment,omitempty"`
	SegmentBase       []FieldDef `json:"segment_base,omitempty"`
	VarArray          *VarArray  `json:"var_array,omitempty"`
	SegmentLenBytes   *int       `json:"segment_len_bytes,omitempty"`
	SegmentHasVarLen  bool       `json:"segment_has_variable_length,omitempty"`
}

// Validate checks structural invariants of the schema: a UINT16_LE
// Number_of_Instances in the common header, known field types and
// transforms, and what the segment mode chosen by SegmentHasVarLen
// needs. A schema that also carries the other mode's fields is not
// rejected.
func (s *PacketSchema) Validate() error {
	hasHeaderCount := false
	for _, f := range s.CommonHeader.Fields {
		if f.Name == "Number_of_Instances" {
			hasHeaderCount = true
			if f.Type != "UINT16_LE" {
				return &SchemaError{Reason: "Number_of_Instances must be UINT16_LE"}
			}
		}
		if _, err := ParseFieldType(f.Type); err != nil {
			return err
		}
		if !validTransform(f.Transform) {
			return &SchemaError{Reason: fmt.Sprintf("unknown transform %q", f.Transform)}
		}
	}
	if !hasHeaderCount {
		return &SchemaError{Reason: "common_header is missing mandatory Number_of_Instances field"}
	}

	if s.SegmentHasVarLen {
		if s.VarArray == nil {
			return &SchemaError{Reason: "segment_has_variable_length requires var_array"}
		}
		if _, err := ParseFieldType(s.VarArray.Item.Type); err != nil {
			return err
		}
		for _, f := range s.SegmentBase {
			if _, err := ParseFieldType(f.Type); err != nil {
				return err
			}
		}
	} else {
		if s.SegmentLenBytes == nil {
			return &SchemaError{Reason: "fixed-length segment requires segment_len_bytes"}
		}
		for _, f := range s.Segment {
			if _, err := ParseFieldType(f.Type); err != nil {
				return err
			}
			if !validTransform(f.Transform) {
				return &SchemaError{Reason: fmt.Sprintf("unknown transform %q", f.Transform)}
			}
		}
	}
	return nil
}

// Column is one named value in a DecodedRow; Value is one of int64,
// uint64 (untransformed UINT64_LE), float64, bool, time.Time (UTC),
// string, []byte (untransformed BYTES), or nil.
type Column struct {
	Name  string
	Value interface{}
}

// Row is spec.md's DecodedRow: an ordered mapping preserving
// declaration order, which a plain Go map cannot guarantee (spec §4.2
// "Determinism").
type Row struct {
	Columns []Column
}

// Set appends a named value, preserving insertion order.
func (r *Row) Set(name string, value interface{}) {
	r.Columns = append(r.Columns, Column{Name: name, Value: value})
}

// Get returns the first value stored under name.
func (r *Row) Get(name string) (interface{}, bool) {
	for _, c := range r.Columns {
		if c.Name == name {
			return c.Value, true
		}
	}
	return nil, false
}

// Clone returns an independent copy, used to seed each instance row
// with the shared header columns.
func (r *Row) Clone() *Row {
	cp := make([]Column, len(r.Columns))
	copy(cp, r.Columns)
	return &Row{Columns: cp}
}

// Map flattens the row into a plain map, for JSON serialization onto
// the bus; ordering is lost at that point, which is fine — the wire
// envelope's array-of-rows still preserves row order, and consumers
// address columns by name.
func (r *Row) Map() map[string]interface{} {
	m := make(map[string]interface{}, len(r.Columns))
	for _, c := range r.Columns {
		m[c.Name] = c.Value
	}
	return m
}
