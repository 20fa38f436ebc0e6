package ir

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/oklog/ulid/v2"
)

var magic = [4]byte{'m', 'J', 'A', 'M'}

const formatVersion uint16 = 1

func WriteProgramToFile(filename string, p *Program) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := WriteProgram(f, p); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func ReadProgramFromFile(filename string) (*Program, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadProgram(f)
}

// WriteProgram encodes p as an object file:
//
//	magic "mJAM" | version u16 | build id [16]byte | static size u32 |
//	count u32 | count * (op u8, r u8, n i32, d i32)
//
// All integers are little endian.
func WriteProgram(w io.Writer, p *Program) error {
	if _, err := w.Write(magic[:]); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, formatVersion); err != nil {
		return err
	}
	if _, err := w.Write(p.BuildID[:]); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(p.StaticSize)); err != nil {
		return err
	}

	if err := binary.Write(w, binary.LittleEndian, uint32(len(p.Code))); err != nil {
		return err
	}
	for _, in := range p.Code {
		if err := binary.Write(w, binary.LittleEndian, uint8(in.Op)); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, uint8(in.R)); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, int32(in.N)); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, int32(in.D)); err != nil {
			return err
		}
	}

	return nil
}

func ReadProgram(r io.Reader) (*Program, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	if hdr != magic {
		return nil, fmt.Errorf("invalid magic header: %q", string(hdr[:]))
	}

	var version uint16
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, err
	}
	if version != formatVersion {
		return nil, fmt.Errorf("unsupported object file version %d", version)
	}

	p := &Program{}
	var id [16]byte
	if _, err := io.ReadFull(r, id[:]); err != nil {
		return nil, err
	}
	p.BuildID = ulid.ULID(id)

	var staticSize uint32
	if err := binary.Read(r, binary.LittleEndian, &staticSize); err != nil {
		return nil, err
	}
	p.StaticSize = int(staticSize)

	var numInstr uint32
	if err := binary.Read(r, binary.LittleEndian, &numInstr); err != nil {
		return nil, err
	}
	// The count is not trusted for allocation; a short file fails on read.
	p.Code = make([]Instruction, 0, min(numInstr, 1<<12))
	for i := uint32(0); i < numInstr; i++ {
		var op, reg uint8
		var n, d int32
		if err := binary.Read(r, binary.LittleEndian, &op); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, fmt.Errorf("instruction %d of %d: %w", i, numInstr, err)
		}
		if err := binary.Read(r, binary.LittleEndian, &reg); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &d); err != nil {
			return nil, err
		}
		if Op(op) > OpHalt {
			return nil, fmt.Errorf("instruction %d: unknown opcode %d", i, op)
		}
		p.Code = append(p.Code, Instruction{
			Op: Op(op),
			R:  Reg(reg),
			N:  int(n),
			D:  int(d),
		})
	}

	return p, nil
}
