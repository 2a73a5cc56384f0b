// Package vm implements the Lattice dispatch loop (spec.md §4.8): a
// fetch-decode-execute loop over fixed-width 4-byte instructions,
// wired to every runtime package built so far (value, intern, arena,
// gc, env, chunk, pic, builtin, channel, concurrency, phase).
// Grounded on the teacher's lang/vm/vm.go (New/Run shape, sentinel
// errors, optional gas metering) generalized from a register machine
// to a stack machine, and on lang/vm/memory.go's allocation-tracking
// idiom for the GC root scan.
package vm

import (
	"fmt"
	"io"
	"os"

	lru "github.com/hashicorp/golang-lru"

	"github.com/ajokela/lattice-sub005/lang/arena"
	"github.com/ajokela/lattice-sub005/lang/chunk"
	"github.com/ajokela/lattice-sub005/lang/env"
	"github.com/ajokela/lattice-sub005/lang/gc"
	"github.com/ajokela/lattice-sub005/lang/intern"
	"github.com/ajokela/lattice-sub005/lang/phase"
	"github.com/ajokela/lattice-sub005/lang/value"
)

// Options configures a VM. The zero value is usable: output goes to
// os.Stdout, the GC stays disabled, and gas metering is unlimited.
type Options struct {
	Out      io.Writer
	GC       bool
	GCStress bool
	GasLimit uint64 // 0 means unlimited

	// ImportChunk loads the compiled chunk for a module name (spec.md
	// §4.8 OP_IMPORT). The compiler/module-resolution stage is out of
	// scope for this package (see lang/compiler); nil rejects every
	// import with ErrModuleNotConfigured.
	ImportChunk func(name string) (*chunk.Chunk, error)
}

// stackCapacity is the value stack's fixed backing capacity. Unlike a
// general-purpose Go slice, this stack must never reallocate once
// running: open upvalues hold a *value.Value pointing directly into
// it, and a reallocating append would silently dangle those pointers.
// Pre-sizing to a generous fixed capacity is the idiomatic fix (the
// same constraint the teacher's register VM sidesteps by addressing
// registers by index rather than by pointer).
const stackCapacity = 64 * 1024

// ErrStackOverflow is returned when a push would exceed stackCapacity.
var ErrStackOverflow = fmt.Errorf("vm: stack overflow")

// methodCacheSize bounds the cross-call-site TypeName::method resolution
// cache (dispatch step 4, spec.md §4.9): an LRU is the idiomatic choice
// once the cache must survive across many distinct call sites rather
// than the one-call-site PIC.
const methodCacheSize = 512

// VM executes one Lattice program. Not safe for concurrent use from
// multiple goroutines against the same *VM; spawned child bodies each
// run their own VM (see concurrencyops.go).
type VM struct {
	stack  []value.Value
	frames []*Frame

	globals *env.Environment
	intern  *intern.Table
	arena   *arena.Arena
	gc      *gc.GC
	reactive *phase.Runtime

	handlers []handlerFrame
	defers   []deferEntry

	openUpvalues map[int]*value.Upvalue

	out         io.Writer
	gasUsed     uint64
	gasLimit    uint64
	importChunk func(name string) (*chunk.Chunk, error)

	methodCache *lru.ARCCache
}

// New constructs a VM ready to run entry (typically a module's
// top-level chunk or a REPL statement group).
func New(opts Options) (*VM, error) {
	a, err := arena.New()
	if err != nil {
		return nil, fmt.Errorf("vm: init arena: %w", err)
	}
	cache, err := lru.NewARC(methodCacheSize)
	if err != nil {
		return nil, fmt.Errorf("vm: init method cache: %w", err)
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	g := gc.New()
	g.SetEnabled(opts.GC)
	g.SetStress(opts.GCStress)
	vm := &VM{
		stack:        make([]value.Value, 0, stackCapacity),
		globals:      env.New(),
		intern:       intern.Global(),
		arena:        a,
		gc:           g,
		reactive:     phase.New(),
		openUpvalues: make(map[int]*value.Upvalue),
		out:          out,
		gasLimit:     opts.GasLimit,
		importChunk:  opts.ImportChunk,
		methodCache:  cache,
	}
	return vm, nil
}

// Close releases the VM's arena mapping. Call once the VM is no longer
// needed.
func (vm *VM) Close() error { return vm.arena.Close() }

// Globals exposes the top-level environment, e.g. so a host can bind
// native functions before Run.
func (vm *VM) Globals() *env.Environment { return vm.globals }

// ErrModuleNotConfigured is returned by OP_IMPORT when the VM was built
// without an ImportChunk hook.
var ErrModuleNotConfigured = fmt.Errorf("vm: module imports are not configured")

// Run executes entry to completion (an OpHalt, a top-level OpReturn
// with no caller frame, or an unhandled error) and returns the final
// top-of-stack value, if any.
func (vm *VM) Run(entry *chunk.Chunk) (value.Value, error) {
	vm.pushFrame(entry, 0, nil)
	for len(vm.frames) > 0 {
		result, done, err := vm.step()
		if err != nil {
			if handled := vm.unwindToHandler(err); handled {
				continue
			}
			return value.Value{}, err
		}
		if done {
			return result, nil
		}
	}
	return value.Unit, nil
}

// frame returns the currently executing frame.
func (vm *VM) frame() *Frame { return vm.frames[len(vm.frames)-1] }

func (vm *VM) push(v value.Value) { vm.stack = append(vm.stack, v) }

func (vm *VM) pop() value.Value {
	n := len(vm.stack) - 1
	v := vm.stack[n]
	vm.stack = vm.stack[:n]
	return v
}

func (vm *VM) popN(n int) []value.Value {
	start := len(vm.stack) - n
	out := append([]value.Value(nil), vm.stack[start:]...)
	vm.stack = vm.stack[:start]
	return out
}

func (vm *VM) peek(offset int) value.Value {
	return vm.stack[len(vm.stack)-1-offset]
}

func (vm *VM) top() *value.Value {
	return &vm.stack[len(vm.stack)-1]
}

// trackIfComposite registers v with the collector if it owns a
// GC-managed backing payload (spec.md §4.4), then runs a collection
// when the adaptive threshold says to.
func (vm *VM) trackIfComposite(v value.Value) {
	if p := compositePayload(v); p != nil {
		vm.gc.Track(p)
		if vm.gc.ShouldCollect() {
			vm.gc.Collect(vm)
		}
	}
}

func compositePayload(v value.Value) interface{} {
	switch v.Kind {
	case value.KindArray, value.KindMap, value.KindSet, value.KindTuple,
		value.KindStruct, value.KindEnum, value.KindBuffer, value.KindRef:
		return v.Ref()
	default:
		return nil
	}
}

// ScanRoots implements gc.RootScanner: every stack slot, every global
// binding, every open upvalue, and every pending deferred closure's
// captured frame are roots.
func (vm *VM) ScanRoots(mark func(payload interface{})) {
	visited := make(map[interface{}]bool)
	for _, v := range vm.stack {
		markValue(v, mark, visited)
	}
	vm.globals.IterateValues(func(v value.Value) { markValue(v, mark, visited) })
	for _, uv := range vm.openUpvalues {
		markValue(uv.Get(), mark, visited)
	}
	for _, f := range vm.frames {
		for _, uv := range f.Upvalues {
			markValue(uv.Get(), mark, visited)
		}
	}
}

func markValue(v value.Value, mark func(interface{}), visited map[interface{}]bool) {
	p := compositePayload(v)
	if p == nil {
		return
	}
	if visited[p] {
		return
	}
	visited[p] = true
	mark(p)
	switch v.Kind {
	case value.KindArray:
		for _, e := range value.ArrayOf(v).Elems {
			markValue(e, mark, visited)
		}
	case value.KindTuple:
		for _, e := range value.TupleOf(v).Elems {
			markValue(e, mark, visited)
		}
	case value.KindMap:
		for _, e := range value.MapOf(v).Entries() {
			markValue(e.Key, mark, visited)
			markValue(e.Val, mark, visited)
		}
	case value.KindSet:
		for _, e := range value.SetOf(v).Items() {
			markValue(e, mark, visited)
		}
	case value.KindStruct:
		for _, f := range value.StructOf(v).FieldValues {
			markValue(f, mark, visited)
		}
	case value.KindEnum:
		for _, p := range value.EnumOf(v).Payload {
			markValue(p, mark, visited)
		}
	case value.KindRef:
		markValue(value.RefOf(v).Inner, mark, visited)
	}
}

// builtinInvoke adapts the VM's call machinery to builtin.Invoke, so
// built-in methods like `map`/`filter`/`reduce` can call back into
// user closures.
func (vm *VM) builtinInvoke(closure value.Value, args []value.Value) (value.Value, error) {
	return vm.callValue(closure, args)
}

// loadConstant implements spec.md §4.2's "constants loaded from the
// chunk's constant pool ... are opportunistically interned": a short
// string constant is canonicalized through the process-wide intern
// table on load, rather than carried as its own standalone payload.
func (vm *VM) loadConstant(c value.Value) value.Value {
	if c.Kind == value.KindString && c.Region == value.RegionNone && len(c.Str()) <= intern.Threshold {
		return value.InternedString(vm.intern.Intern(c.Str()))
	}
	return c
}

// stringOpResult implements spec.md §4.2/§4.3 for the result of a
// string-producing operation (CONCAT, string ADD, APPEND_STR_LOCAL): a
// short result is opportunistically interned outright; a longer one is
// staged through the per-statement bump arena as Ephemeral, to be
// promoted to a real heap string or dropped at the next
// OP_RESET_EPHEMERAL rather than malloc'd immediately.
func (vm *VM) stringOpResult(s string) value.Value {
	if len(s) <= intern.Threshold {
		return value.InternedString(vm.intern.Intern(s))
	}
	return value.EphemeralString(vm.arena.Strdup(s))
}
