package chunk

// Opcode is an 8-bit instruction code for the Lattice stack VM. Unlike
// a register machine, operands are drawn from (and results pushed
// onto) a value stack; the 4-byte fixed-width encoding is kept from
// the register-VM ancestor for the same reasons: cheap decode, no
// variable-length instruction scanning.
//
// Encoding: [opcode:8][a:8][b:8][c:8] for the common 3-operand form,
// or [opcode:8][a:8][imm:16] for instructions whose single operand
// needs more than 8 bits (constant/local/global indices, jump
// targets). IsWideImmediate reports which form an opcode uses.
type Opcode uint8

const (
	// ---- Stack manipulation -------------------------------------------------

	// OpConstant pushes Constants[imm8].
	OpConstant Opcode = iota
	// OpConstant16 pushes Constants[imm16].
	OpConstant16
	// OpNil pushes the Nil singleton.
	OpNil
	// OpTrue pushes Bool(true).
	OpTrue
	// OpFalse pushes Bool(false).
	OpFalse
	// OpUnit pushes the Unit singleton.
	OpUnit
	// OpPop discards the top of stack.
	OpPop
	// OpDup duplicates the top of stack.
	OpDup
	// OpSwap exchanges the top two stack slots.
	OpSwap
	// OpLoadInt8 pushes Int(imm8 as signed byte) without a constant-pool
	// round trip.
	OpLoadInt8

	// ---- Arithmetic ----------------------------------------------------------

	// OpAdd pops b, a and pushes a + b (numeric promotion / string concat
	// for the generic form).
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	// OpNeg pops a and pushes -a.
	OpNeg
	// OpAddInt, OpSubInt, OpMulInt are type-specialized fast paths taken
	// when the PIC/peephole stage proves both operands are Int.
	OpAddInt
	OpSubInt
	OpMulInt
	// OpLtInt, OpLteqInt are the Int-specialized comparison fast paths.
	OpLtInt
	OpLteqInt

	// ---- Bitwise ---------------------------------------------------------

	OpAnd
	OpOr
	OpXor
	// OpNot pops a and pushes ^a (Int) or !a (Bool), by receiver kind.
	OpNot
	OpLshift
	OpRshift
	// OpConcat pops b, a (both String) and pushes a ++ b.
	OpConcat

	// ---- Comparison --------------------------------------------------------

	OpEq
	OpNeq
	OpLt
	OpGt
	OpLteq
	OpGteq

	// ---- Variable access ---------------------------------------------------

	OpGetLocal
	OpGetLocal16
	OpSetLocal
	OpSetLocal16
	OpDefineLocal
	OpDefineLocal16
	OpGetGlobal
	OpGetGlobal16
	OpSetGlobal
	OpSetGlobal16
	OpDefineGlobal
	OpDefineGlobal16
	OpGetUpvalue
	OpSetUpvalue
	// OpCloseUpvalue closes the open upvalue aliasing the top stack slot,
	// then pops it.
	OpCloseUpvalue
	// OpIncLocal, OpDecLocal increment/decrement a local Int in place
	// without a push/pop round trip.
	OpIncLocal
	OpDecLocal
	// OpSetLocalPop stores the top of stack into a local slot and pops it
	// (as opposed to OpSetLocal, which leaves the assigned value on the
	// stack as the expression's result).
	OpSetLocalPop

	// ---- Control flow -------------------------------------------------------

	// OpJump sets ip = imm16 unconditionally.
	OpJump
	// OpJumpIfFalse sets ip = imm16 if the popped top-of-stack is falsy.
	OpJumpIfFalse
	// OpJumpIfTrue sets ip = imm16 if the popped top-of-stack is truthy.
	OpJumpIfTrue
	// OpJumpIfNotNil sets ip = imm16 if the top-of-stack (left in place)
	// is not Nil.
	OpJumpIfNotNil
	// OpLoop is the only back-jump form: ip -= imm16.
	OpLoop
	// OpCall invokes the closure sitting directly below its arguments;
	// operand a carries the argument count.
	OpCall
	// OpClosure, OpClosure16 build a Closure value over Constants[imm]
	// (a compiled function prototype), capturing upvalues per the
	// following inline upvalue descriptor bytes.
	OpClosure
	OpClosure16
	// OpReturn pops the return value, closes upvalues, pops the frame,
	// and pushes the return value for the caller.
	OpReturn

	// ---- Iteration ---------------------------------------------------------

	// OpIterInit pops an iterable and pushes an opaque iterator state.
	OpIterInit
	// OpIterNext advances the iterator on top of stack; if exhausted,
	// jumps ip += imm16 (skip offset) instead of pushing a value.
	OpIterNext

	// ---- Construction -------------------------------------------------------

	// OpBuildArray pops imm16 elements and pushes an Array.
	OpBuildArray
	// OpBuildMap pops 2*imm16 elements (key,val interleaved) and pushes a Map.
	OpBuildMap
	// OpBuildTuple pops imm16 elements and pushes a Tuple.
	OpBuildTuple
	// OpBuildStruct pops imm16 field values plus the struct name/field
	// list read from Constants[a] and pushes a Struct.
	OpBuildStruct
	// OpBuildRange pops end, start (and reads an inclusive flag from the
	// a operand) and pushes a Range.
	OpBuildRange
	// OpBuildEnum pops imm16 payload values plus reads enum/variant names
	// from Constants[a] and pushes an Enum.
	OpBuildEnum
	// OpArrayFlatten pops an Array of Arrays and pushes one flattened level.
	OpArrayFlatten

	// ---- Indexing -----------------------------------------------------------

	// OpIndex pops index, receiver and pushes receiver[index].
	OpIndex
	// OpSetIndex pops value, index, receiver and stores receiver[index] = value.
	OpSetIndex
	// OpSetIndexLocal stores into local slot a's indexable at the popped
	// index with the popped value, without first pushing the local.
	OpSetIndexLocal
	// OpGetField pops a Struct/Ref and pushes field Constants[imm16].
	OpGetField
	// OpSetField pops value, receiver and stores receiver.field = value.
	OpSetField

	// ---- Method invocation --------------------------------------------------

	// OpInvoke pops arguments then a receiver and invokes
	// Constants[imm16] as a method name, consulting the PIC slot at this
	// instruction's bytecode offset.
	OpInvoke
	// OpInvokeLocal, OpInvokeLocal16 execute exactly like OpInvoke: the
	// receiver is popped from the stack below the arguments, and no
	// local slot is read.
	OpInvokeLocal
	OpInvokeLocal16
	// OpInvokeGlobal, OpInvokeGlobal16 invoke a global free function
	// (TypeName::method) directly, bypassing method-table lookup.
	OpInvokeGlobal
	OpInvokeGlobal16

	// ---- Exceptions ----------------------------------------------------------

	// OpPushExceptionHandler records {ip = imm16, frame index, stack top}.
	OpPushExceptionHandler
	// OpPopExceptionHandler discards the innermost handler record.
	OpPopExceptionHandler
	// OpThrow pops a value and activates the handler-unwind path.
	OpThrow
	// OpTryUnwrap pops a result value and either unwraps it or activates
	// the handler path, per the surface language's `?` operator.
	OpTryUnwrap

	// ---- Defer ---------------------------------------------------------------

	// OpDeferPush records a pending deferred body occupying the imm16
	// bytes that follow it and jumps past them (the body is only ever
	// reached via OpDeferRun).
	OpDeferPush
	// OpDeferRun runs every deferred body registered at or above the
	// given scope-depth threshold, LIFO.
	OpDeferRun

	// ---- Phase ops -----------------------------------------------------------

	// OpFreeze pops a value, freezes it recursively in place, pushes it back.
	OpFreeze
	// OpThaw pops a value and pushes Thaw(v).
	OpThaw
	// OpClone pops a value and pushes FastClone(v).
	OpClone
	// OpMarkFluid pops a value and pushes a copy with phase forced Fluid
	// (shallow, no recursive thaw).
	OpMarkFluid
	// OpFreezeVar freezes the local/global named by Constants[imm16] in place.
	OpFreezeVar
	OpThawVar
	// OpSublimate pops a value and pushes Sublimate(v).
	OpSublimate
	OpSublimateVar
	// OpFreezeExcept freezes a struct/map except the field/key named by
	// Constants[imm16].
	OpFreezeExcept
	// OpFreezeField freezes a single struct field in place.
	OpFreezeField
	// OpIsCrystal, OpIsFluid push a Bool testing the top-of-stack's phase.
	OpIsCrystal
	OpIsFluid

	// ---- Reactive system -------------------------------------------------

	// OpReact registers a callback closure to fire on every phase change
	// of the named variable.
	OpReact
	OpUnreact
	// OpBond cascades freezes from a dependency variable to a target variable.
	OpBond
	OpUnbond
	// OpSeed attaches a validation contract closure, run at freeze time.
	OpSeed
	OpUnseed

	// ---- Type assertions ----------------------------------------------------

	// OpCheckType asserts the top-of-stack's Kind matches Constants[imm16].
	OpCheckType
	// OpCheckReturnType asserts the current frame's return value matches
	// its declared return type.
	OpCheckReturnType

	// ---- I/O ------------------------------------------------------------

	// OpPrint pops a value and writes it plus a newline to the host's
	// configured writer: a String prints bare, without quotes; any other
	// value prints as repr(v).
	OpPrint

	// ---- Modules --------------------------------------------------------

	// OpImport resolves and loads the module named by Constants[imm16].
	OpImport

	// ---- Concurrency ------------------------------------------------------

	// OpScope runs a scope block: spawn chunks in parallel plus an
	// optional synchronous body.
	OpScope
	// OpSelect runs a select block over N channel arms.
	OpSelect

	// ---- Fast paths --------------------------------------------------------

	// OpAppendStrLocal appends the popped String onto local slot a's
	// String in place (avoids an intermediate Concat + SetLocal pair).
	OpAppendStrLocal

	// ---- Arena --------------------------------------------------------------

	// OpResetEphemeral resets the per-VM bump arena, after the dispatch
	// loop promotes every reachable Ephemeral value.
	OpResetEphemeral

	// OpHalt stops execution; the top of stack (if any) is the program result.
	OpHalt

	// opcodeCount must remain the last constant.
	opcodeCount
)

type opcodeInfo struct {
	name string
	wide bool // true => [op][a][imm16], false => [op][a][b][c]
}

var opcodeTable = [opcodeCount]opcodeInfo{
	OpConstant:   {"CONSTANT", false},
	OpConstant16: {"CONSTANT_16", true},
	OpNil:        {"NIL", false},
	OpTrue:       {"TRUE", false},
	OpFalse:      {"FALSE", false},
	OpUnit:       {"UNIT", false},
	OpPop:        {"POP", false},
	OpDup:        {"DUP", false},
	OpSwap:       {"SWAP", false},
	OpLoadInt8:   {"LOAD_INT8", false},

	OpAdd: {"ADD", false}, OpSub: {"SUB", false}, OpMul: {"MUL", false},
	OpDiv: {"DIV", false}, OpMod: {"MOD", false}, OpNeg: {"NEG", false},
	OpAddInt: {"ADD_INT", false}, OpSubInt: {"SUB_INT", false}, OpMulInt: {"MUL_INT", false},
	OpLtInt: {"LT_INT", false}, OpLteqInt: {"LTEQ_INT", false},

	OpAnd: {"AND", false}, OpOr: {"OR", false}, OpXor: {"XOR", false}, OpNot: {"NOT", false},
	OpLshift: {"LSHIFT", false}, OpRshift: {"RSHIFT", false}, OpConcat: {"CONCAT", false},

	OpEq: {"EQ", false}, OpNeq: {"NEQ", false}, OpLt: {"LT", false}, OpGt: {"GT", false},
	OpLteq: {"LTEQ", false}, OpGteq: {"GTEQ", false},

	OpGetLocal: {"GET_LOCAL", false}, OpGetLocal16: {"GET_LOCAL_16", true},
	OpSetLocal: {"SET_LOCAL", false}, OpSetLocal16: {"SET_LOCAL_16", true},
	OpDefineLocal: {"DEFINE_LOCAL", false}, OpDefineLocal16: {"DEFINE_LOCAL_16", true},
	OpGetGlobal: {"GET_GLOBAL", true}, OpGetGlobal16: {"GET_GLOBAL_16", true},
	OpSetGlobal: {"SET_GLOBAL", true}, OpSetGlobal16: {"SET_GLOBAL_16", true},
	OpDefineGlobal: {"DEFINE_GLOBAL", true}, OpDefineGlobal16: {"DEFINE_GLOBAL_16", true},
	OpGetUpvalue: {"GET_UPVALUE", false}, OpSetUpvalue: {"SET_UPVALUE", false},
	OpCloseUpvalue: {"CLOSE_UPVALUE", false},
	OpIncLocal:     {"INC_LOCAL", false}, OpDecLocal: {"DEC_LOCAL", false},
	OpSetLocalPop: {"SET_LOCAL_POP", false},

	OpJump: {"JUMP", true}, OpJumpIfFalse: {"JUMP_IF_FALSE", true},
	OpJumpIfTrue: {"JUMP_IF_TRUE", true}, OpJumpIfNotNil: {"JUMP_IF_NOT_NIL", true},
	OpLoop: {"LOOP", true}, OpCall: {"CALL", false},
	OpClosure: {"CLOSURE", true}, OpClosure16: {"CLOSURE_16", true},
	OpReturn: {"RETURN", false},

	OpIterInit: {"ITER_INIT", false}, OpIterNext: {"ITER_NEXT", true},

	OpBuildArray: {"BUILD_ARRAY", true}, OpBuildMap: {"BUILD_MAP", true},
	OpBuildTuple: {"BUILD_TUPLE", true}, OpBuildStruct: {"BUILD_STRUCT", true},
	OpBuildRange: {"BUILD_RANGE", false}, OpBuildEnum: {"BUILD_ENUM", true},
	OpArrayFlatten: {"ARRAY_FLATTEN", false},

	OpIndex: {"INDEX", false}, OpSetIndex: {"SET_INDEX", false},
	OpSetIndexLocal: {"SET_INDEX_LOCAL", false},
	OpGetField:      {"GET_FIELD", true}, OpSetField: {"SET_FIELD", true},

	OpInvoke: {"INVOKE", true}, OpInvokeLocal: {"INVOKE_LOCAL", true},
	OpInvokeLocal16: {"INVOKE_LOCAL_16", true}, OpInvokeGlobal: {"INVOKE_GLOBAL", true},
	OpInvokeGlobal16: {"INVOKE_GLOBAL_16", true},

	OpPushExceptionHandler: {"PUSH_EXCEPTION_HANDLER", true},
	OpPopExceptionHandler:  {"POP_EXCEPTION_HANDLER", false},
	OpThrow:                {"THROW", false}, OpTryUnwrap: {"TRY_UNWRAP", false},

	OpDeferPush: {"DEFER_PUSH", true}, OpDeferRun: {"DEFER_RUN", false},

	OpFreeze: {"FREEZE", false}, OpThaw: {"THAW", false}, OpClone: {"CLONE", false},
	OpMarkFluid: {"MARK_FLUID", false}, OpFreezeVar: {"FREEZE_VAR", true},
	OpThawVar: {"THAW_VAR", true}, OpSublimate: {"SUBLIMATE", false},
	OpSublimateVar: {"SUBLIMATE_VAR", true}, OpFreezeExcept: {"FREEZE_EXCEPT", true},
	OpFreezeField: {"FREEZE_FIELD", true}, OpIsCrystal: {"IS_CRYSTAL", false},
	OpIsFluid: {"IS_FLUID", false},

	OpReact: {"REACT", true}, OpUnreact: {"UNREACT", true},
	OpBond: {"BOND", true}, OpUnbond: {"UNBOND", true},
	OpSeed: {"SEED", true}, OpUnseed: {"UNSEED", true},

	OpCheckType: {"CHECK_TYPE", true}, OpCheckReturnType: {"CHECK_RETURN_TYPE", false},

	OpPrint: {"PRINT", false},

	OpImport: {"IMPORT", true},

	OpScope: {"SCOPE", true}, OpSelect: {"SELECT", true},

	OpAppendStrLocal: {"APPEND_STR_LOCAL", false},

	OpResetEphemeral: {"RESET_EPHEMERAL", false},

	OpHalt: {"HALT", false},
}

// String returns the opcode's mnemonic, used by Disassemble and error messages.
func (op Opcode) String() string {
	if int(op) >= len(opcodeTable) {
		return "UNKNOWN"
	}
	return opcodeTable[op].name
}

// IsWideImmediate reports whether op uses the [op:8][a:8][imm:16] form.
func (op Opcode) IsWideImmediate() bool {
	if int(op) >= len(opcodeTable) {
		return false
	}
	return opcodeTable[op].wide
}
