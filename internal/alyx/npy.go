package alyx

import (
	"fmt"
	"io"

	"github.com/sbinet/npyio"
)

// decodeNPY reads a numpy .npy stream and widens its elements to float64.
func decodeNPY(r io.Reader) (Array, error) {
	rd, err := npyio.NewReader(r)
	if err != nil {
		return Array{}, fmt.Errorf("failed to read npy header: %w", err)
	}

	descr := rd.Header.Descr
	if descr.Fortran && len(descr.Shape) > 1 {
		return Array{}, fmt.Errorf("fortran-ordered npy arrays are not supported (shape %v)", descr.Shape)
	}

	var data []float64
	switch descr.Type {
	case "<f8":
		err = rd.Read(&data)
	case "<f4":
		data, err = readAs[float32](rd)
	case "<i8":
		data, err = readAs[int64](rd)
	case "<i4":
		data, err = readAs[int32](rd)
	case "<i2":
		data, err = readAs[int16](rd)
	case "|i1", "<i1":
		data, err = readAs[int8](rd)
	case "<u8":
		data, err = readAs[uint64](rd)
	case "<u4":
		data, err = readAs[uint32](rd)
	case "<u2":
		data, err = readAs[uint16](rd)
	case "|u1", "<u1":
		data, err = readAs[uint8](rd)
	case "|b1":
		var v []bool
		if err = rd.Read(&v); err == nil {
			data = make([]float64, len(v))
			for i, b := range v {
				if b {
					data[i] = 1
				}
			}
		}
	default:
		return Array{}, fmt.Errorf("unsupported npy dtype %q", descr.Type)
	}
	if err != nil {
		return Array{}, fmt.Errorf("failed to read npy data (%s): %w", descr.Type, err)
	}

	shape := append([]int(nil), descr.Shape...)
	return Array{Shape: shape, Data: data}, nil
}

type number interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~float32
}

func readAs[T number](rd *npyio.Reader) ([]float64, error) {
	var v []T
	if err := rd.Read(&v); err != nil {
		return nil, err
	}
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out, nil
}
