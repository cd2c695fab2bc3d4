package maskstore

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/chewxy/math32"
	"github.com/tilevec/tilevec/pkg/mask"
	"github.com/x448/float16"
)

// Mask blobs are stored at half precision to bound disk usage. This is a
// lossy, one-way conversion: callers must not assume exact round-trip of
// prediction confidences.

const blobMagic = 0x54564d4b // "TVMK"
const blobVersion = 1

type blobHeader struct {
	Magic   uint32
	Version uint16
	_       uint16 // reserved
	Height  uint32
	Width   uint32
	Classes uint32
}

// WriteBlob encodes m as a half-precision mask blob.
func WriteBlob(w io.Writer, m *mask.Prob) error {
	hdr := blobHeader{
		Magic:   blobMagic,
		Version: blobVersion,
		Height:  uint32(m.H),
		Width:   uint32(m.W),
		Classes: uint32(m.C),
	}
	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		return err
	}
	payload := make([]uint16, len(m.V))
	for i, v := range m.V {
		payload[i] = float16.Fromfloat32(v).Bits()
	}
	return binary.Write(w, binary.LittleEndian, payload)
}

// ReadBlob decodes a mask blob. Probabilities are clamped to [0,1] after the
// half-float expansion.
func ReadBlob(r io.Reader) (*mask.Prob, error) {
	hdr := blobHeader{}
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("failed to read mask blob header: %w", err)
	}
	if hdr.Magic != blobMagic {
		return nil, fmt.Errorf("invalid mask blob magic %08x", hdr.Magic)
	}
	if hdr.Version != blobVersion {
		return nil, fmt.Errorf("unsupported mask blob version %v", hdr.Version)
	}
	m := mask.NewProb(int(hdr.Height), int(hdr.Width), int(hdr.Classes))
	payload := make([]uint16, len(m.V))
	if err := binary.Read(r, binary.LittleEndian, payload); err != nil {
		return nil, fmt.Errorf("failed to read mask blob payload: %w", err)
	}
	for i, bits := range payload {
		v := float16.Frombits(bits).Float32()
		m.V[i] = math32.Min(1, math32.Max(0, v))
	}
	return m, nil
}
