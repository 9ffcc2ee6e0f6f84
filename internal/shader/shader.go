// Package shader loads SPIR-V modules for the triangle pipeline.
package shader

import (
	"encoding/binary"
	"io/fs"

	"github.com/cockroachdb/errors"
)

// Magic is the first word of every SPIR-V module.
const Magic uint32 = 0x07230203

var ErrInvalidSPIRV = errors.New("invalid SPIR-V")

// Bytecode converts a little-endian SPIR-V binary into the words a shader
// module is created from.
func Bytecode(b []byte) ([]uint32, error) {
	if len(b) == 0 {
		return nil, errors.Mark(errors.New("empty shader binary"), ErrInvalidSPIRV)
	}
	if len(b)%4 != 0 {
		return nil, errors.Mark(errors.Newf("shader binary is %d bytes, not a multiple of 4", len(b)), ErrInvalidSPIRV)
	}

	byteCode := make([]uint32, len(b)/4)
	for i := range byteCode {
		byteCode[i] = binary.LittleEndian.Uint32(b[i*4:])
	}

	if byteCode[0] != Magic {
		return nil, errors.Mark(errors.Newf("bad magic %#08x", byteCode[0]), ErrInvalidSPIRV)
	}
	return byteCode, nil
}

// Loader reads the vertex and fragment modules from a file system.
type Loader struct {
	FS       fs.FS
	Vertex   string
	Fragment string
}

func (l Loader) Load() (vertex, fragment []uint32, err error) {
	vertex, err = l.read(l.Vertex)
	if err != nil {
		return nil, nil, err
	}

	fragment, err = l.read(l.Fragment)
	if err != nil {
		return nil, nil, err
	}

	return vertex, fragment, nil
}

func (l Loader) read(name string) ([]uint32, error) {
	b, err := fs.ReadFile(l.FS, name)
	if err != nil {
		return nil, errors.WithHintf(errors.Wrapf(err, "read shader %s", name),
			"check -shaders, or regenerate the embedded blobs with go generate ./shaders")
	}

	code, err := Bytecode(b)
	return code, errors.Wrapf(err, "decode shader %s", name)
}
