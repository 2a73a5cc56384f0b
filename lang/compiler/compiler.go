// Package compiler defines the boundary between the execution core and
// its front end (spec.md §1/§6): the lexer, parser, AST, and both the
// stack and register compilers that lower a parsed program to a
// *chunk.Chunk live outside this module. This package carries only the
// interfaces the core's host (cmd/latticec, lang/vm's OP_IMPORT) calls
// against, so the core can be built, tested, and run against a
// hand-assembled *chunk.Chunk without any concrete front end linked in.
package compiler

import "github.com/ajokela/lattice-sub005/lang/chunk"

// Compiler lowers source text to bytecode. A concrete implementation
// owns its own lexer/parser/AST; this package only names the shape the
// rest of the module depends on.
type Compiler interface {
	// Compile lowers a top-level program to a chunk ready to run from
	// instruction 0.
	Compile(source string) (*chunk.Chunk, error)

	// CompileModule lowers a program to a chunk meant to be run once
	// and whose Exports table is read back afterward (lang/vm's
	// OP_IMPORT), rather than one that returns a value to a caller.
	CompileModule(source string) (*chunk.Chunk, error)

	// CompileREPL lowers a single REPL input line against a
	// previously accumulated global scope, for incremental
	// interactive evaluation.
	CompileREPL(source string) (*chunk.Chunk, error)
}

// ModuleResolver turns a bare import name into a source file, the way
// the TOML-based package manager (out of scope) would for a real
// project tree.
type ModuleResolver interface {
	// Resolve looks up name relative to projectDir. ok is false if no
	// matching module source exists.
	Resolve(name, projectDir string) (path string, ok bool)
}
