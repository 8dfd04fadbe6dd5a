// Package compiler emits bytecode chunks from an ir.Node tree (§4.F of
// the spec): a constant pool, a call-target pool, a step-plan pool and a
// nested-prototype pool, plus the flat instruction stream itself. The
// instruction set favours nested function prototypes over hand-encoded
// loop bodies: for/quantified/simple-map/path-predicate bodies each
// compile to their own Proto invoked through a closure-calling opcode,
// the same mechanism user-written inline functions use. Only the two
// conditional jumps (If, and/or short-circuit) need real jump-patching.
package compiler

// OpCode is one bytecode instruction's opcode.
type OpCode byte

const (
	// OpConst pushes Constants[u16] as a singleton sequence.
	OpConst OpCode = iota
	// OpLoadVar pushes the current frame's local slot u16.
	OpLoadVar
	// OpStoreVar pops the stack top into local slot u16, leaving
	// nothing on the stack (callers that need the value again reload
	// it with OpLoadVar -- matches a `let` clause's "bind, then
	// evaluate body" shape).
	OpStoreVar
	// OpLoadClosure pushes the current frame's captured closure
	// variable u16.
	OpLoadClosure
	// OpContextItem pushes the dynamic context's current item as a
	// singleton sequence, or raises XPDY0002 if there is none.
	OpContextItem
	// OpPosition pushes the current focus position as an integer.
	OpPosition
	// OpLast pushes the current focus size as an integer.
	OpLast
	OpPop
	OpDup
	// OpJump unconditionally adds its i16 operand to the program
	// counter (offset measured from the byte after the operand).
	OpJump
	// OpJumpIfTrue/OpJumpIfFalse pop the stack top, compute its
	// effective boolean value, and jump by the i16 operand if it
	// matches; the popped value is consumed either way.
	OpJumpIfTrue
	OpJumpIfFalse
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpIDiv
	OpMod
	OpNeg
	OpPos
	// OpConcat implements `||`.
	OpConcat
	// OpRange implements `to`.
	OpRange
	// OpCompare applies the u8 CompareOp operand to the two operand
	// sequences.
	OpCompare
	OpUnion
	OpIntersect
	OpExcept
	// OpSeqConcat pops two sequences and pushes their concatenation
	// (the `,` operator and sequence-literal item accumulation).
	OpSeqConcat
	// OpToBoolean pops a sequence, computes its effective boolean
	// value, and pushes it as a boolean singleton (used by and/or
	// after the short-circuit jump falls through).
	OpToBoolean
	// OpMakeClosure pops Protos[u16].ClosureNames-many values (pushed
	// by the compiler immediately before this instruction, in
	// declaration order) and pushes a callable closure over that
	// prototype.
	OpMakeClosure
	// OpCall invokes Calls[u16] (a builtin lookup key) with the u8
	// following arguments already on the stack (pushed left to right),
	// popping them and pushing the single result sequence.
	OpCall
	// OpCallDynamic pops u8 arguments (pushed left to right after the
	// function item), then the function item itself, and pushes the
	// result.
	OpCallDynamic
	// OpForEach pops a source sequence, then the closure pushed before
	// it; flag bit 0 set
	// means the closure also wants the 1-based position as its second
	// argument (a `for $x at $p in ...` binding). Applies the closure
	// to every item, concatenating the results.
	OpForEach
	// OpSimpleMap pops a source sequence, then the closure pushed before
	// it; the closure
	// takes no stack arguments but receives each item as the new
	// dynamic context item (and position/size) while it runs.
	OpSimpleMap
	// OpQuantified pops a source sequence, then the closure pushed
	// before it; u8 flag 0
	// means `some`, 1 means `every`. Applies the closure per item
	// (again via context-item/position/size focus, no stack args),
	// short-circuiting on the first true (some) or false (every).
	OpQuantified
	// OpFilter pops a predicate closure then a candidate node sequence
	// and applies the XPath predicate-truth rule (numeric result
	// compared to 1-based position; anything else via effective
	// boolean value), pushing the filtered sequence.
	OpFilter
	// OpStep pops a source node sequence, walks Steps[u16]'s axis from
	// each source node applying its node test, dedups by identity and
	// sorts into document order, and pushes the result.
	OpStep
	// OpRoot reads the dynamic context item (must be a node; the stack
	// is not popped) and pushes its owning document's root node, for a
	// rooted path's first step.
	OpRoot
	// OpMakeSeq pops u16 stack values (pushed left to right) and pushes
	// their concatenation as one sequence (sequence literals, argument
	// lists materialised as a single value e.g. for array{} content).
	OpMakeSeq
	// OpMakeMap pops 2*u16 values (key, value, key, value, ... pushed
	// left to right) and pushes a constructed map, last duplicate key
	// wins.
	OpMakeMap
	// OpMakeArraySquare pops u16 member sequences and pushes a square-
	// constructor array (one stack value per member).
	OpMakeArraySquare
	// OpMakeArrayCurly pops one sequence and pushes a curly-
	// constructor array (one member per item of that sequence).
	OpMakeArrayCurly
	// OpLookupKey pops a key sequence then a source sequence and
	// applies `?key`/`?(expr)` across every map/array in source.
	OpLookupKey
	// OpLookupWildcard pops a source sequence and applies `?*` across
	// every map/array in source.
	OpLookupWildcard
	OpInstanceOf
	OpTreatAs
	OpCastableAs
	OpCastAs
	// OpFuncRef pushes a first-class function value for Calls[u16]
	// (a named function reference `name#arity`, not invoked).
	OpFuncRef
	OpReturn
)

// CompareOp is a byte-sized comparison operator. OpCompare's operand is
// not encoded through it: the emitter writes uint8(ir.CompareOp) and the
// interpreter converts that byte straight back to ir.CompareOp.
type CompareOp byte
