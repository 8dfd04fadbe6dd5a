package compiler

import (
	"math"

	"github.com/arborxml/xpath/atomic"
	"github.com/arborxml/xpath/ir"
	"github.com/arborxml/xpath/xerr"
)

// maxPoolIndex bounds every u16 pool reference (§4.F "pool index limit
// 2^16-1 -- enforced as a compiler bug, not a user error").
const maxPoolIndex = math.MaxUint16

// CallTarget is one OpCall pool entry: a builtin lookup key, resolved
// against the registry at run time since the registry is a property of
// the interpreter, not of the compiled program.
type CallTarget struct {
	NamespaceURI string
	LocalName    string
	Arity        int
}

// StepPlan is one OpStep pool entry: a pre-resolved axis and node test,
// ready for the interpreter's axis walker.
type StepPlan struct {
	Axis ir.AxisKind
	Test ir.NodeTest
}

// Proto is one compiled function prototype: a top-level program, a
// user inline function, or one of the synthetic closures the compiler
// generates for for/quantified/simple-map bodies, path predicates and
// partial function application.
type Proto struct {
	Params            []string
	ClosureNames      []string
	BindsContextItem  bool
	NumLocals         int
	Chunk             *Chunk
}

// Chunk is one prototype's bytecode plus the pools its instructions
// index into.
type Chunk struct {
	Code      []byte
	Constants []atomic.Value
	Calls     []CallTarget
	Steps     []StepPlan
	Protos    []*Proto
	SeqTypes  []ir.SeqType
}

func (c *Chunk) addConst(v atomic.Value) (uint16, error) {
	if len(c.Constants) >= maxPoolIndex {
		return 0, xerr.New(xerr.FOER0000, nil, "compiler: constant pool exceeds %d entries", maxPoolIndex)
	}
	c.Constants = append(c.Constants, v)
	return uint16(len(c.Constants) - 1), nil
}

func (c *Chunk) addCall(t CallTarget) (uint16, error) {
	if len(c.Calls) >= maxPoolIndex {
		return 0, xerr.New(xerr.FOER0000, nil, "compiler: call pool exceeds %d entries", maxPoolIndex)
	}
	c.Calls = append(c.Calls, t)
	return uint16(len(c.Calls) - 1), nil
}

func (c *Chunk) addStep(p StepPlan) (uint16, error) {
	if len(c.Steps) >= maxPoolIndex {
		return 0, xerr.New(xerr.FOER0000, nil, "compiler: step pool exceeds %d entries", maxPoolIndex)
	}
	c.Steps = append(c.Steps, p)
	return uint16(len(c.Steps) - 1), nil
}

func (c *Chunk) addProto(p *Proto) (uint16, error) {
	if len(c.Protos) >= maxPoolIndex {
		return 0, xerr.New(xerr.FOER0000, nil, "compiler: proto pool exceeds %d entries", maxPoolIndex)
	}
	c.Protos = append(c.Protos, p)
	return uint16(len(c.Protos) - 1), nil
}

func (c *Chunk) addSeqType(t ir.SeqType) (uint16, error) {
	if len(c.SeqTypes) >= maxPoolIndex {
		return 0, xerr.New(xerr.FOER0000, nil, "compiler: sequence-type pool exceeds %d entries", maxPoolIndex)
	}
	c.SeqTypes = append(c.SeqTypes, t)
	return uint16(len(c.SeqTypes) - 1), nil
}

func (c *Chunk) emitOp(op OpCode) {
	c.Code = append(c.Code, byte(op))
}

func (c *Chunk) emitU16(v uint16) {
	c.Code = append(c.Code, byte(v>>8), byte(v))
}

func (c *Chunk) emitU8(v uint8) {
	c.Code = append(c.Code, v)
}

func (c *Chunk) emitOpU16(op OpCode, v uint16) {
	c.emitOp(op)
	c.emitU16(v)
}

func (c *Chunk) emitOpU8(op OpCode, v uint8) {
	c.emitOp(op)
	c.emitU8(v)
}

// emitJump emits op followed by a placeholder i16 operand and returns
// the operand's byte offset, to be backfilled by patchJump once the
// jump target is known.
func (c *Chunk) emitJump(op OpCode) int {
	c.emitOp(op)
	pos := len(c.Code)
	c.Code = append(c.Code, 0, 0)
	return pos
}

// patchJump backfills the i16 operand at pos so that, once executed, it
// lands the program counter at the chunk's current end. The offset is
// measured from the byte immediately after the 2-byte operand (§4.F).
func (c *Chunk) patchJump(pos int) error {
	offset := len(c.Code) - (pos + 2)
	if offset < math.MinInt16 || offset > math.MaxInt16 {
		return xerr.New(xerr.FOER0000, nil, "compiler: jump offset %d exceeds the i16 range", offset)
	}
	u := uint16(int16(offset))
	c.Code[pos] = byte(u >> 8)
	c.Code[pos+1] = byte(u)
	return nil
}
