// SPDX-License-Identifier: MIT

package store

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/katalvlaran/nufate/cascade"
)

// Record layout, little-endian:
//
//	magic   [4]byte "NFEB"
//	version uint8
//	dim     uint32
//	values  dim × (re, im float64)
//	vectors dim² × (re, im float64), row-major
const (
	magic        = "NFEB"
	version      = 1
	headerLength = len(magic) + 1 + 4

	// maxDim bounds dim so that the payload length 16·(dim + dim²) fits an int.
	maxDim = 1 << 16
)

func encode(b *cascade.Eigenbasis) []byte {
	m := b.Dim()
	buf := make([]byte, 0, headerLength+16*(m+m*m))
	buf = append(buf, magic...)
	buf = append(buf, version)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(m))
	for _, z := range b.Values() {
		buf = appendComplex(buf, z)
	}
	for _, z := range b.Vectors() {
		buf = appendComplex(buf, z)
	}

	return buf
}

func appendComplex(buf []byte, z complex128) []byte {
	buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(real(z)))

	return binary.LittleEndian.AppendUint64(buf, math.Float64bits(imag(z)))
}

func decode(raw []byte) (*cascade.Eigenbasis, error) {
	if len(raw) < headerLength || string(raw[:len(magic)]) != magic {
		return nil, fmt.Errorf("bad header: %w", ErrCorrupt)
	}
	if v := raw[len(magic)]; v != version {
		return nil, fmt.Errorf("record version %d, want %d: %w", v, version, ErrCorrupt)
	}
	m := int(binary.LittleEndian.Uint32(raw[len(magic)+1:]))
	body := raw[headerLength:]
	if m > maxDim {
		return nil, fmt.Errorf("dim %d exceeds %d: %w", m, maxDim, ErrCorrupt)
	}
	if m == 0 || len(body) != 16*(m+m*m) {
		return nil, fmt.Errorf("dim %d with %d payload bytes: %w", m, len(body), ErrCorrupt)
	}

	read := func(n int) []complex128 {
		out := make([]complex128, n)
		for k := range out {
			re := math.Float64frombits(binary.LittleEndian.Uint64(body))
			im := math.Float64frombits(binary.LittleEndian.Uint64(body[8:]))
			out[k] = complex(re, im)
			body = body[16:]
		}

		return out
	}
	values := read(m)
	vectors := read(m * m)

	b, err := cascade.NewEigenbasis(values, vectors)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	return b, nil
}
