// Copyright (C) 2026 groundlink contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package codec implements the frame codec (C1): pure encrypt/decrypt
// of TC/TM frames exchanged between the mission-control broker and the
// ground-station broker. It never performs I/O.
package codec

import "fmt"

// Wire layout offsets. All multi-byte integers are little-endian
// unless noted; CSP and TC/TM_ID are big-endian per spec.
const (
	offCSP       = 0
	offSOF1      = 4
	offSOF2      = 5
	offCTRL      = 6
	offTimestamp = 7
	offSeq       = 11
	offSatID     = 13
	offGndID     = 14
	offQOS       = 15
	offSAID      = 16
	offDAID      = 17
	offRMID      = 18
	offTCTMID    = 19
	offExtHdrLen = 21
	offExtHdrDat = 22
	offCOID      = 23
	offLen       = 25
	offPayload   = 27

	cspLen     = 4
	timestampL = 4
	seqLen     = 2
	tcTmIDLen  = 2
	coIDLen    = 2
	lenFieldL  = 2
	crcLen     = 1
	authLen    = 32
	eofLen     = 1

	// minFrameLen is the frame size with a zero-length payload.
	minFrameLen = offPayload + crcLen + authLen + eofLen
)

// FrameFormatError is returned for a truncated frame or one whose
// length disagrees with its LEN field. Parse does not check the CSP or
// SOF bytes, so a frame with a wrong magic is not rejected. It is never
// returned for cryptographic failures (decrypt never checks AUTH; the
// caller owns integrity verification if it wants one).
type FrameFormatError struct {
	Reason string
}

func (e *FrameFormatError) Error() string {
	return fmt.Sprintf("frame format error: %s", e.Reason)
}

// Frame is a parsed view over a wire-format byte slice. It does not
// copy the underlying bytes; Payload()/CRC()/AUTH()/etc. return slices
// into buf.
type Frame struct {
	buf []byte
}

// Parse validates buf's length against its declared LEN field and
// returns a Frame view over it. buf is not copied.
func Parse(buf []byte) (*Frame, error) {
	if len(buf) < minFrameLen {
		return nil, &FrameFormatError{Reason: fmt.Sprintf("frame too short: %d bytes", len(buf))}
	}
	payloadLen := int(le16(buf[offLen:]))
	want := offPayload + payloadLen + crcLen + authLen + eofLen
	if len(buf) != want {
		return nil, &FrameFormatError{Reason: fmt.Sprintf("LEN=%d implies frame of %d bytes, got %d", payloadLen, want, len(buf))}
	}
	return &Frame{buf: buf}, nil
}

func (f *Frame) payloadLen() int { return int(le16(f.buf[offLen:])) }

// CSP returns the 4-byte CSP magic.
func (f *Frame) CSP() []byte { return f.buf[offCSP : offCSP+cspLen] }

// Timestamp returns the raw 4 little-endian timestamp bytes.
func (f *Frame) Timestamp() []byte { return f.buf[offTimestamp : offTimestamp+timestampL] }

// Seq returns the raw 2 little-endian sequence-number bytes as stored on the wire.
func (f *Frame) Seq() []byte { return f.buf[offSeq : offSeq+seqLen] }

// SeqUint16 interprets the wire SEQ bytes as little-endian, the way
// every other multi-byte field in the fixed header is interpreted.
func (f *Frame) SeqUint16() uint16 { return le16(f.buf[offSeq:]) }

func (f *Frame) SatID() byte { return f.buf[offSatID] }
func (f *Frame) GndID() byte { return f.buf[offGndID] }
func (f *Frame) SAID() byte  { return f.buf[offSAID] }
func (f *Frame) DAID() byte  { return f.buf[offDAID] }

// TCTMID returns the raw 2 big-endian TC/TM_ID bytes.
func (f *Frame) TCTMID() []byte { return f.buf[offTCTMID : offTCTMID+tcTmIDLen] }

// ExtHdrData returns the single EXT_HDR_DATA byte that selects the key.
func (f *Frame) ExtHdrData() byte { return f.buf[offExtHdrDat] }

// Payload returns the PAYLOAD segment (LEN bytes, excludes CRC).
func (f *Frame) Payload() []byte {
	n := f.payloadLen()
	return f.buf[offPayload : offPayload+n]
}

// CRC returns the single CRC byte immediately following the payload.
func (f *Frame) CRC() []byte {
	off := offPayload + f.payloadLen()
	return f.buf[off : off+crcLen]
}

// EncryptedRegion returns PAYLOAD || CRC, the only bytes a frame codec
// may transform.
func (f *Frame) EncryptedRegion() []byte {
	off := offPayload
	n := f.payloadLen() + crcLen
	return f.buf[off : off+n]
}

// AUTH returns the 32-byte AUTH trailer, never transformed.
func (f *Frame) AUTH() []byte {
	off := offPayload + f.payloadLen() + crcLen
	return f.buf[off : off+authLen]
}

// EOF returns the final EOF byte, never transformed.
func (f *Frame) EOF() byte {
	off := offPayload + f.payloadLen() + crcLen + authLen
	return f.buf[off]
}

// Bytes returns the full underlying frame.
func (f *Frame) Bytes() []byte { return f.buf }

func le16(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}
