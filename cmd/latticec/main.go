// Command latticec runs a precompiled Lattice bytecode chunk.
//
// Usage:
//
//	latticec [flags] <program.latc>
//
// Flags:
//
//	-gas <n>       Gas limit, 0 = unlimited (default: unlimited)
//	-disassemble   Print the chunk instead of running it
//	-version       Print version and exit
//
// The operand is a chunk in the on-disk format lang/chunk.Encode
// writes (magic, version, constant pool, code, line table, ...); the
// lexer, parser, and both compilers that would produce one from a
// .lat source file are out-of-scope collaborators (spec.md §1).
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/ajokela/lattice-sub005/lang/chunk"
	"github.com/ajokela/lattice-sub005/lang/vm"
	"github.com/ajokela/lattice-sub005/stdlib"
)

const version = "0.1.0"

func main() {
	var (
		gasLimit    = flag.Uint64("gas", 0, "Gas limit, 0 = unlimited")
		disassemble = flag.Bool("disassemble", false, "Print the chunk instead of running it")
		ver         = flag.Bool("version", false, "Print version and exit")
	)
	flag.Parse()

	if *ver {
		fmt.Printf("latticec %s\n", version)
		os.Exit(0)
	}

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: latticec [flags] <program.latc>")
		os.Exit(1)
	}

	filename := flag.Arg(0)
	f, err := os.Open(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	c, err := chunk.Decode(f)
	f.Close()
	if err != nil {
		printStackTrace(fmt.Sprintf("%s: %v", filename, err))
		os.Exit(1)
	}

	if *disassemble {
		fmt.Print(chunk.Disassemble(c))
		return
	}

	m, err := vm.New(vm.Options{Out: os.Stdout, GasLimit: *gasLimit})
	if err != nil {
		printStackTrace(fmt.Sprintf("init error: %v", err))
		os.Exit(1)
	}
	defer m.Close()
	stdlib.Install(m.Globals())

	if _, err := m.Run(c); err != nil {
		printStackTrace(fmt.Sprintf("runtime error: %v\n%s", err, m.StackTrace()))
		os.Exit(1)
	}
}

func printStackTrace(msg string) {
	red := color.New(color.FgRed, color.Bold)
	red.Fprintln(os.Stderr, msg)
}
