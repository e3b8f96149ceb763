// Copyright (C) 2026 groundlink contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"fmt"
)

// Keys holds the two 256-bit AES keys selected by EXT_HDR_DATA.
//
// The spec describes these as "compiled in"; we instead surface them
// through config (see internal/config), the same way the bridge's TLS
// verification flag is surfaced explicitly rather than hardcoded
// (spec Design Notes, open question (c)) — a key baked into the binary
// can't be rotated without a rebuild.
type Keys struct {
	K0 [32]byte
	K1 [32]byte
}

// Codec performs frame encryption/decryption. It holds no connection
// state and is safe for concurrent use.
type Codec struct {
	keys Keys
}

// New returns a Codec using the given key pair.
func New(keys Keys) *Codec {
	return &Codec{keys: keys}
}

func (c *Codec) selectKey(extHdrData byte) []byte {
	if extHdrData == 1 {
		return c.keys.K1[:]
	}
	return c.keys.K0[:]
}

// nonce builds the 14-byte N used to derive the IV, per spec §4.1 as
// confirmed against the ground-station fleet's own nonce construction
// (encryption.py / decryption_tm.py's _derive_tm_nonce):
//
//	N = TS(4) || SEQ(2, wire order) || SA_ID || 0x00 || DA_ID || 0x00 ||
//	    TC/TM_ID(2) || SAT_ID || 0x00
func nonce(f *Frame) [14]byte {
	var n [14]byte
	copy(n[0:4], f.Timestamp())

	seq := f.Seq()
	n[4] = seq[0]
	n[5] = seq[1]

	n[6] = f.SAID()
	n[7] = 0x00
	n[8] = f.DAID()
	n[9] = 0x00
	copy(n[10:12], f.TCTMID())
	n[12] = f.SatID()
	n[13] = 0x00
	return n
}

// iv derives the 16-byte CTR counter from the frame's SEQ parity, per
// spec §4.1: D = SHA-256(N); SEQ even -> D[0:16], SEQ odd -> D[16:32].
// The parity test reads SEQ big-endian, byte-reversed from its
// little-endian wire order.
func iv(f *Frame) [16]byte {
	n := nonce(f)
	d := sha256.Sum256(n[:])

	seq := f.Seq()
	var v [16]byte
	if (uint16(seq[0])<<8|uint16(seq[1]))%2 == 0 {
		copy(v[:], d[0:16])
	} else {
		copy(v[:], d[16:32])
	}
	return v
}

// transform runs AES-256-CTR over the encrypted region (PAYLOAD || CRC)
// in place on a copy of buf and returns the copy. CTR is an involution
// given the same IV, so this single method serves both directions.
func (c *Codec) transform(buf []byte) ([]byte, error) {
	f, err := Parse(buf)
	if err != nil {
		return nil, err
	}

	key := c.selectKey(f.ExtHdrData())
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("frame codec: aes.NewCipher: %w", err)
	}

	v := iv(f)
	stream := cipher.NewCTR(block, v[:])

	out := make([]byte, len(buf))
	copy(out, buf)

	outFrame, err := Parse(out)
	if err != nil {
		return nil, err
	}
	region := outFrame.EncryptedRegion()
	stream.XORKeyStream(region, region)

	return out, nil
}

// Encrypt encrypts a plaintext frame's PAYLOAD||CRC region in place
// (on a copy) and returns the encrypted frame. len(result) == len(frame).
func (c *Codec) Encrypt(frame []byte) ([]byte, error) {
	return c.transform(frame)
}

// Decrypt is the inverse of Encrypt: AES-CTR is a stream cipher, so
// decryption is the identical XOR operation with the identical
// keystream. Decrypt never verifies AUTH; integrity checking, if
// wanted, is the caller's responsibility.
func (c *Codec) Decrypt(frame []byte) ([]byte, error) {
	return c.transform(frame)
}
