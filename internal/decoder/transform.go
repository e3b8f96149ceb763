// Copyright (C) 2026 groundlink contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package decoder

import (
	"fmt"
	"time"
)

// applyTransform runs the named transform over a field's raw bytes
// and typed value. It returns either a scalar replacement value or a
// set of named sub-fields to merge into the row (bit-unpack family),
// never both.
func applyTransform(t Transform, value interface{}, raw []byte) (scalar interface{}, merge map[string]interface{}, err error) {
	switch t {
	case TransformNone:
		return value, nil, nil

	case TransformEpoch32ToUTC:
		secs, ok := value.(int64)
		if !ok {
			return nil, nil, &SchemaError{Reason: "EPOCH32_TO_UTC_DATETIME requires a 32-bit integer field"}
		}
		return time.Unix(secs, 0).UTC(), nil, nil

	case TransformEpoch64ToUTC:
		u, ok := value.(uint64)
		if !ok {
			return nil, nil, &SchemaError{Reason: "EPOCH64_TO_UTC_DATETIME requires a UINT64_LE field"}
		}
		if u == 0xFFFFFFFFFFFFFFFF {
			return nil, nil, nil
		}
		return time.Unix(int64(u), 0).UTC(), nil, nil

	case TransformTempU8InvalidAsInt8:
		if len(raw) != 1 {
			return nil, nil, &SchemaError{Reason: "TEMP_U8_255_INVALID_AS_INT8 requires a 1-byte field"}
		}
		if raw[0] == 255 {
			return nil, nil, nil
		}
		return int64(int8(raw[0])), nil, nil

	case TransformADCSStatePacked7To12:
		// 6-byte little-endian bitfield: only bits 2-3 (moment-of-
		// inertia index) and bits 4-5 (gain index) are assigned;
		// everything else in the 48-bit block is reserved.
		if len(raw) != 6 {
			return nil, nil, &SchemaError{Reason: "ADCS_STATE_PACKED_7_12 requires a 6-byte field"}
		}
		var packed uint64
		for i := 5; i >= 0; i-- {
			packed = packed<<8 | uint64(raw[i])
		}
		moi := (packed >> 2) & 0x3
		gain := (packed >> 4) & 0x3
		m := map[string]interface{}{
			"Moment_Of_Inertia_Index": int64(moi),
			"Gain_Index":              int64(gain),
			"Packed_7_12_Raw":         int64(packed),
		}
		return nil, m, nil

	case TransformADCSStateValidityByte:
		// Bit 6: time valid, bit 7: attitude valid.
		if len(raw) != 1 {
			return nil, nil, &SchemaError{Reason: "ADCS_STATE_VALIDITY_BYTE_13 requires a 1-byte field"}
		}
		b := raw[0]
		m := map[string]interface{}{
			"Time_Validity_Flag":      (b>>6)&0x1 != 0,
			"Attitude_Validity_Flag":  (b>>7)&0x1 != 0,
			"Validity_Byte_13_Raw":    int64(b),
		}
		return nil, m, nil

	case TransformADCSStateFlagsByte:
		// Bit 0: reference valid, bits 1-4: orbit propagation mode,
		// bit 5: eclipse flag.
		if len(raw) != 1 {
			return nil, nil, &SchemaError{Reason: "ADCS_STATE_FLAGS_BYTE_14 requires a 1-byte field"}
		}
		b := raw[0]
		orbitMode := (b >> 1) & 0xF
		m := map[string]interface{}{
			"Reference_Validity_Flag": b&0x1 != 0,
			"Orbit_Propagation_Mode":  int64(orbitMode),
			"Eclipse_Flag":            (b>>5)&0x1 != 0,
			"Flags_Byte_14_Raw":       int64(b),
		}
		return nil, m, nil
	}

	return nil, nil, &SchemaError{Reason: fmt.Sprintf("unknown transform %q", t)}
}

// applyScale multiplies a numeric scalar by scale, matching the
// pipeline's final "scale" stage. Non-numeric values (nil, time.Time,
// []byte) pass through unscaled.
func applyScale(value interface{}, scale *float64) interface{} {
	if scale == nil || value == nil {
		return value
	}
	switch v := value.(type) {
	case int64:
		return float64(v) * *scale
	case uint64:
		return float64(v) * *scale
	case float64:
		return v * *scale
	default:
		return value
	}
}

// applyMapping looks up an integer field value in a named table and
// returns the label to store as "<field>_Name" (spec invariant 4):
// a present entry is used verbatim, an absent one becomes
// "UNKNOWN_<value>".
func applyMapping(mappings map[string]map[int]string, mapName string, value interface{}) (string, error) {
	table, ok := mappings[mapName]
	if !ok {
		return "", &SchemaError{Reason: fmt.Sprintf("unknown mapping table %q", mapName)}
	}

	var iv int
	switch v := value.(type) {
	case int64:
		iv = int(v)
	case uint64:
		iv = int(v)
	default:
		return "", &SchemaError{Reason: "map_name applies only to integer fields"}
	}

	if label, ok := table[iv]; ok {
		return label, nil
	}
	return fmt.Sprintf("UNKNOWN_%d", iv), nil
}
