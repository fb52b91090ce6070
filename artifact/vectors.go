package artifact

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Vector matrix artifact layout (inside a zstd stream):
//
//	magic   [4]byte "VMX1"
//	count   uint32
//	dim     uint32
//	data    count*dim float32, little-endian, row-major
var vectorMagic = [4]byte{'V', 'M', 'X', '1'}

// encodeVectors writes the matrix as a compressed artifact stream.
func encodeVectors(w io.Writer, vectors [][]float32, dim int) error {
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}

	if err := binary.Write(enc, binary.LittleEndian, vectorMagic); err != nil {
		enc.Close()
		return err
	}
	if err := binary.Write(enc, binary.LittleEndian, uint32(len(vectors))); err != nil {
		enc.Close()
		return err
	}
	if err := binary.Write(enc, binary.LittleEndian, uint32(dim)); err != nil {
		enc.Close()
		return err
	}

	for i, vec := range vectors {
		if len(vec) != dim {
			enc.Close()
			return fmt.Errorf("vector %d has width %d, matrix dimension is %d", i, len(vec), dim)
		}
		if err := binary.Write(enc, binary.LittleEndian, vec); err != nil {
			enc.Close()
			return err
		}
	}

	return enc.Close()
}

// decodeVectors reads a compressed vector matrix artifact stream.
func decodeVectors(r io.Reader) ([][]float32, int, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, 0, err
	}
	defer dec.Close()

	var magic [4]byte
	if err := binary.Read(dec, binary.LittleEndian, &magic); err != nil {
		return nil, 0, fmt.Errorf("read vector matrix header: %w", err)
	}
	if magic != vectorMagic {
		return nil, 0, fmt.Errorf("bad vector matrix magic %q", magic)
	}

	var count, dim uint32
	if err := binary.Read(dec, binary.LittleEndian, &count); err != nil {
		return nil, 0, err
	}
	if err := binary.Read(dec, binary.LittleEndian, &dim); err != nil {
		return nil, 0, err
	}

	vectors := make([][]float32, count)
	for i := range vectors {
		vec := make([]float32, dim)
		if err := binary.Read(dec, binary.LittleEndian, vec); err != nil {
			return nil, 0, fmt.Errorf("read vector %d: %w", i, err)
		}
		vectors[i] = vec
	}

	return vectors, int(dim), nil
}
