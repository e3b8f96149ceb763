// Copyright (C) 2026 groundlink contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package decoder

import (
	"encoding/binary"
	"errors"
	"math"
)

// errTruncated signals that a field read ran past the end of the
// buffer. It never escapes Decode as a raised error — per spec §8
// boundaries, truncation stops the instance loop silently.
var errTruncated = errors.New("decoder: truncated")

type byteReader struct {
	buf []byte
	pos int
}

func (r *byteReader) remaining() int { return len(r.buf) - r.pos }

func (r *byteReader) skip(n int) error {
	if r.remaining() < n {
		return errTruncated
	}
	r.pos += n
	return nil
}

// readN returns the next n raw bytes and advances pos.
func (r *byteReader) readN(n int) ([]byte, error) {
	if r.remaining() < n {
		return nil, errTruncated
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// readTyped reads one field per ft and returns (value, rawBytes, err).
// value is int64, uint64(only for UINT64_LE, since it may exceed
// int64 range), float64, or []byte (for KindBytes).
func (r *byteReader) readTyped(ft FieldType) (interface{}, []byte, error) {
	raw, err := r.readN(ft.Width)
	if err != nil {
		return nil, nil, err
	}

	switch ft.Kind {
	case KindUint8:
		return int64(raw[0]), raw, nil
	case KindUint16LE:
		return int64(binary.LittleEndian.Uint16(raw)), raw, nil
	case KindUint32LE:
		return int64(binary.LittleEndian.Uint32(raw)), raw, nil
	case KindUint64LE:
		return binary.LittleEndian.Uint64(raw), raw, nil
	case KindInt8:
		return int64(int8(raw[0])), raw, nil
	case KindInt16LE:
		return int64(int16(binary.LittleEndian.Uint16(raw))), raw, nil
	case KindFloat32LE:
		bits := binary.LittleEndian.Uint32(raw)
		return float64(math.Float32frombits(bits)), raw, nil
	case KindFloat64LE:
		bits := binary.LittleEndian.Uint64(raw)
		return math.Float64frombits(bits), raw, nil
	case KindBytes:
		return raw, raw, nil
	}
	return nil, nil, &SchemaError{Reason: "unreachable field kind"}
}
