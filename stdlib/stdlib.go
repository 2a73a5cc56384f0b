// Package stdlib wires the host-provided native functions
// (spec.md §5's Closure.Native sentinel) into a VM's global
// environment: hashing and signature verification from stdlib/crypto,
// and typed-array helpers from stdlib/math. A compiler emitting
// GET_GLOBAL for one of these names resolves it exactly like any
// script-defined global.
package stdlib

import (
	"errors"

	"github.com/ajokela/lattice-sub005/lang/env"
	"github.com/ajokela/lattice-sub005/lang/value"
	"github.com/ajokela/lattice-sub005/stdlib/crypto"
	"github.com/ajokela/lattice-sub005/stdlib/math"
)

// ErrArity is returned by a native when it is called with the wrong
// number of arguments.
var ErrArity = errors.New("stdlib: wrong number of arguments")

// ErrArgType is returned by a native when an argument has the wrong kind.
var ErrArgType = errors.New("stdlib: argument has the wrong type")

func native(name string, arity int, fn value.NativeFunc) value.Value {
	return value.Closure(&value.ClosureData{Name: name, Native: fn, Arity: arity})
}

func intArg(args []value.Value, i int) (int64, error) {
	if i >= len(args) || args[i].Kind != value.KindInt {
		return 0, ErrArgType
	}
	return args[i].Int(), nil
}

func stringArg(args []value.Value, i int) (string, error) {
	if i >= len(args) || args[i].Kind != value.KindString {
		return "", ErrArgType
	}
	return args[i].Str(), nil
}

func u64ArrayArg(args []value.Value, i int) (*math.U64Array, error) {
	if i >= len(args) {
		return nil, ErrArgType
	}
	ad := value.ArrayOf(args[i])
	if ad == nil {
		return nil, ErrArgType
	}
	data := make([]uint64, len(ad.Elems))
	for j, e := range ad.Elems {
		if e.Kind != value.KindInt {
			return nil, ErrArgType
		}
		data[j] = uint64(e.Int())
	}
	return &math.U64Array{Data: data}, nil
}

func u64ArrayToValue(a *math.U64Array) value.Value {
	elems := make([]value.Value, len(a.Data))
	for i, v := range a.Data {
		elems[i] = value.Int(int64(v))
	}
	return value.Array(elems)
}

// Install defines every stdlib native into g, overwriting any existing
// binding of the same name.
func Install(g *env.Environment) {
	g.Define("sha3_hash", native("sha3_hash", 1, func(args []value.Value) (value.Value, error) {
		s, err := stringArg(args, 0)
		if err != nil {
			return value.Value{}, err
		}
		sum := crypto.Hash([]byte(s))
		return value.String(string(sum[:])), nil
	}))

	g.Define("shake256", native("shake256", 2, func(args []value.Value) (value.Value, error) {
		if len(args) != 2 {
			return value.Value{}, ErrArity
		}
		s, err := stringArg(args, 0)
		if err != nil {
			return value.Value{}, err
		}
		n, err := intArg(args, 1)
		if err != nil {
			return value.Value{}, err
		}
		return value.String(string(crypto.SHAKE256([]byte(s), int(n)))), nil
	}))

	g.Define("ml_dsa_verify", native("ml_dsa_verify", 3, func(args []value.Value) (value.Value, error) {
		if len(args) != 3 {
			return value.Value{}, ErrArity
		}
		msg, err := stringArg(args, 0)
		if err != nil {
			return value.Value{}, err
		}
		sig, err := stringArg(args, 1)
		if err != nil {
			return value.Value{}, err
		}
		pub, err := stringArg(args, 2)
		if err != nil {
			return value.Value{}, err
		}
		ok := crypto.MLDSAVerify([]byte(msg), []byte(sig), []byte(pub))
		return value.Bool(ok), nil
	}))

	g.Define("slh_dsa_verify", native("slh_dsa_verify", 3, func(args []value.Value) (value.Value, error) {
		if len(args) != 3 {
			return value.Value{}, ErrArity
		}
		msg, err := stringArg(args, 0)
		if err != nil {
			return value.Value{}, err
		}
		sig, err := stringArg(args, 1)
		if err != nil {
			return value.Value{}, err
		}
		pub, err := stringArg(args, 2)
		if err != nil {
			return value.Value{}, err
		}
		ok := crypto.SLHDSAVerify([]byte(msg), []byte(sig), []byte(pub))
		return value.Bool(ok), nil
	}))

	g.Define("falcon512_verify", native("falcon512_verify", 3, func(args []value.Value) (value.Value, error) {
		_, err := crypto.Falcon512Verify(nil, nil, nil)
		return value.Value{}, err
	}))

	g.Define("secp256k1_recover", native("secp256k1_recover", 2, func(args []value.Value) (value.Value, error) {
		if len(args) != 2 {
			return value.Value{}, ErrArity
		}
		h, err := stringArg(args, 0)
		if err != nil || len(h) != 32 {
			return value.Value{}, ErrArgType
		}
		s, err := stringArg(args, 1)
		if err != nil || len(s) != 65 {
			return value.Value{}, ErrArgType
		}
		var hash [32]byte
		var sig [65]byte
		copy(hash[:], h)
		copy(sig[:], s)
		addr, err := crypto.Secp256k1Recover(hash, sig)
		if err != nil {
			return value.Value{}, err
		}
		return value.String(string(addr[:])), nil
	}))

	g.Define("iota", native("iota", 1, func(args []value.Value) (value.Value, error) {
		n, err := intArg(args, 0)
		if err != nil {
			return value.Value{}, err
		}
		return u64ArrayToValue(math.Iota(int(n))), nil
	}))

	g.Define("dot", native("dot", 2, func(args []value.Value) (value.Value, error) {
		if len(args) != 2 {
			return value.Value{}, ErrArity
		}
		a, err := u64ArrayArg(args, 0)
		if err != nil {
			return value.Value{}, err
		}
		b, err := u64ArrayArg(args, 1)
		if err != nil {
			return value.Value{}, err
		}
		return value.Int(int64(math.Dot(a, b))), nil
	}))

	g.Define("vector_sum", native("vector_sum", 1, func(args []value.Value) (value.Value, error) {
		a, err := u64ArrayArg(args, 0)
		if err != nil {
			return value.Value{}, err
		}
		return value.Int(int64(a.Sum())), nil
	}))
}
