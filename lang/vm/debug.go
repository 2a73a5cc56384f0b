package vm

import (
	"fmt"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"
)

// StackTrace renders the current call stack, innermost frame first:
// chunk name, instruction pointer, and (when LATTICE_DEBUG=1) a full
// dump of that frame's locals via go-spew, the same "print everything
// when debugging" idiom the teacher's CLI reserves for its own crash
// dumps.
func (vm *VM) StackTrace() string {
	var sb strings.Builder
	debug := os.Getenv("LATTICE_DEBUG") == "1"
	for i := len(vm.frames) - 1; i >= 0; i-- {
		f := vm.frames[i]
		fmt.Fprintf(&sb, "  at %s:%d (ip=%d)\n", f.Chunk.Name, f.Chunk.LineAt(f.IP), f.IP)
		if debug {
			locals := vm.stack[f.SlotsBase:min(len(vm.stack), f.SlotsBase+len(f.Chunk.LocalNames))]
			fmt.Fprintf(&sb, "%s\n", spew.Sdump(locals))
		}
	}
	return sb.String()
}
