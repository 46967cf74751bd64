package chunk

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
	"github.com/teascript/tea/pkg/value"
)

// Binary chunk dump/undump format (SPEC_FULL.md §6.2). Grounded on the
// teacher's pkg/bytecode/format.go: a fixed magic, a uint32 version, then a
// recursive function record (nullable name, arity triple, upvalue count,
// max-slots, kind, code bytes, line runs, constant pool).
const (
	magicNumber   uint32 = 0x54534352 // "TSCR"
	formatVersion uint32 = 1
)

const (
	constNull byte = iota
	constBool
	constNumber
	constString
	constFunction
)

// Dump writes fn's chunk (and every nested function constant, recursively)
// to w in the on-disk format.
func Dump(fn *value.Function, w io.Writer) error {
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.BigEndian, magicNumber); err != nil {
		return errors.Wrap(err, "writing chunk magic")
	}
	if err := binary.Write(bw, binary.BigEndian, formatVersion); err != nil {
		return errors.Wrap(err, "writing chunk version")
	}
	if err := writeFunction(bw, fn); err != nil {
		return errors.Wrap(err, "writing function record")
	}
	return bw.Flush()
}

func writeFunction(w *bufio.Writer, fn *value.Function) error {
	if err := writeNullableString(w, fn.Name); err != nil {
		return err
	}
	for _, b := range []int{fn.Arity, fn.ArityOptional, fn.UpvalueCount, fn.MaxSlots} {
		if err := binary.Write(w, binary.BigEndian, uint32(b)); err != nil {
			return err
		}
	}
	if err := w.WriteByte(boolByte(fn.IsVariadic)); err != nil {
		return err
	}
	if err := w.WriteByte(byte(fn.Kind)); err != nil {
		return err
	}
	c, ok := fn.Chunk.(*Chunk)
	if !ok || c == nil {
		return errors.New("function has no concrete chunk to serialize")
	}
	if err := binary.Write(w, binary.BigEndian, uint32(len(c.Code))); err != nil {
		return err
	}
	if _, err := w.Write(c.Code); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, uint32(len(c.lineRuns))); err != nil {
		return err
	}
	for _, run := range c.lineRuns {
		if err := binary.Write(w, binary.BigEndian, uint32(run.startOffset)); err != nil {
			return err
		}
		if err := binary.Write(w, binary.BigEndian, uint32(run.line)); err != nil {
			return err
		}
	}
	if err := binary.Write(w, binary.BigEndian, uint32(len(c.Constants))); err != nil {
		return err
	}
	for _, v := range c.Constants {
		if err := writeConstant(w, v); err != nil {
			return err
		}
	}
	return nil
}

func writeConstant(w *bufio.Writer, v value.Value) error {
	switch {
	case v.IsNull():
		return w.WriteByte(constNull)
	case v.IsBool():
		if err := w.WriteByte(constBool); err != nil {
			return err
		}
		return w.WriteByte(boolByte(v.AsBool()))
	case v.IsNumber():
		if err := w.WriteByte(constNumber); err != nil {
			return err
		}
		return binary.Write(w, binary.BigEndian, v.AsNumber())
	case v.IsObject():
		switch o := v.AsObject().(type) {
		case *value.String:
			if err := w.WriteByte(constString); err != nil {
				return err
			}
			return writeBytes(w, o.Chars)
		case *value.Function:
			if err := w.WriteByte(constFunction); err != nil {
				return err
			}
			return writeFunction(w, o)
		}
	}
	return errors.Errorf("constant of type %s cannot be dumped", value.TypeName(v))
}

func writeNullableString(w *bufio.Writer, s *value.String) error {
	if s == nil {
		return binary.Write(w, binary.BigEndian, uint32(0xFFFFFFFF))
	}
	return writeBytes(w, s.Chars)
}

func writeBytes(w *bufio.Writer, b []byte) error {
	if err := binary.Write(w, binary.BigEndian, uint32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// Undump reads a chunk dumped by Dump and reconstructs the function
// prototype tree.
func Undump(r io.Reader) (*value.Function, error) {
	br := bufio.NewReader(r)
	var magic, version uint32
	if err := binary.Read(br, binary.BigEndian, &magic); err != nil {
		return nil, errors.Wrap(err, "reading chunk magic")
	}
	if magic != magicNumber {
		return nil, errors.Errorf("not a teascript chunk (bad magic %#x)", magic)
	}
	if err := binary.Read(br, binary.BigEndian, &version); err != nil {
		return nil, errors.Wrap(err, "reading chunk version")
	}
	if version != formatVersion {
		return nil, errors.Errorf("unsupported chunk format version %d", version)
	}
	return readFunction(br)
}

func readFunction(r *bufio.Reader) (*value.Function, error) {
	name, err := readNullableString(r)
	if err != nil {
		return nil, err
	}
	var arity, arityOpt, upvalueCount, maxSlots uint32
	for _, p := range []*uint32{&arity, &arityOpt, &upvalueCount, &maxSlots} {
		if err := binary.Read(r, binary.BigEndian, p); err != nil {
			return nil, err
		}
	}
	variadicByte, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	kindByte, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	var codeLen uint32
	if err := binary.Read(r, binary.BigEndian, &codeLen); err != nil {
		return nil, err
	}
	code := make([]byte, codeLen)
	if _, err := io.ReadFull(r, code); err != nil {
		return nil, err
	}
	var runCount uint32
	if err := binary.Read(r, binary.BigEndian, &runCount); err != nil {
		return nil, err
	}
	runs := make([]lineRun, runCount)
	for i := range runs {
		var off, line uint32
		if err := binary.Read(r, binary.BigEndian, &off); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.BigEndian, &line); err != nil {
			return nil, err
		}
		runs[i] = lineRun{startOffset: int(off), line: int(line)}
	}
	var constCount uint32
	if err := binary.Read(r, binary.BigEndian, &constCount); err != nil {
		return nil, err
	}
	constants := make([]value.Value, constCount)
	for i := range constants {
		v, err := readConstant(r)
		if err != nil {
			return nil, err
		}
		constants[i] = v
	}
	c := &Chunk{Code: code, Constants: constants, lineRuns: runs}
	fn := &value.Function{
		Name:          name,
		Arity:         int(arity),
		ArityOptional: int(arityOpt),
		UpvalueCount:  int(upvalueCount),
		MaxSlots:      int(maxSlots),
		IsVariadic:    variadicByte != 0,
		Kind:          value.FunctionKind(kindByte),
		Chunk:         c,
	}
	return fn, nil
}

func readConstant(r *bufio.Reader) (value.Value, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return value.Value{}, err
	}
	switch tag {
	case constNull:
		return value.NullVal(), nil
	case constBool:
		b, err := r.ReadByte()
		if err != nil {
			return value.Value{}, err
		}
		return value.BoolVal(b != 0), nil
	case constNumber:
		var f float64
		if err := binary.Read(r, binary.BigEndian, &f); err != nil {
			return value.Value{}, err
		}
		return value.NumberVal(f), nil
	case constString:
		b, err := readBytes(r)
		if err != nil {
			return value.Value{}, err
		}
		return value.ObjectVal(value.Take(b)), nil
	case constFunction:
		fn, err := readFunction(r)
		if err != nil {
			return value.Value{}, err
		}
		return value.ObjectVal(fn), nil
	}
	return value.Value{}, errors.Errorf("unknown constant tag %d", tag)
}

func readNullableString(r *bufio.Reader) (*value.String, error) {
	var l uint32
	if err := binary.Read(r, binary.BigEndian, &l); err != nil {
		return nil, err
	}
	if l == 0xFFFFFFFF {
		return nil, nil
	}
	b := make([]byte, l)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return value.Take(b), nil
}

func readBytes(r *bufio.Reader) ([]byte, error) {
	var l uint32
	if err := binary.Read(r, binary.BigEndian, &l); err != nil {
		return nil, err
	}
	b := make([]byte, l)
	_, err := io.ReadFull(r, b)
	return b, err
}
