package vm

import "github.com/ajokela/lattice-sub005/lang/value"

func isNumeric(v value.Value) bool { return v.Kind == value.KindInt || v.Kind == value.KindFloat }

func asFloat(v value.Value) float64 {
	if v.Kind == value.KindInt {
		return float64(v.Int())
	}
	return v.Float()
}

// numericBinOp applies intFn when both operands are Int, otherwise
// promotes both to Float and applies floatFn (spec.md §4.1 numeric
// promotion rules).
func numericBinOp(op string, a, b value.Value, intFn func(a, b int64) (int64, error), floatFn func(a, b float64) float64) (value.Value, error) {
	if !isNumeric(a) {
		return value.Value{}, &TypeMismatch{Op: op, Expected: "Int or Float", Got: a.Kind}
	}
	if !isNumeric(b) {
		return value.Value{}, &TypeMismatch{Op: op, Expected: "Int or Float", Got: b.Kind}
	}
	if a.Kind == value.KindInt && b.Kind == value.KindInt {
		n, err := intFn(a.Int(), b.Int())
		if err != nil {
			return value.Value{}, err
		}
		return value.Int(n), nil
	}
	return value.Float(floatFn(asFloat(a), asFloat(b))), nil
}

func (vm *VM) doAdd() error {
	b, a := vm.pop(), vm.pop()
	if a.Kind == value.KindString && b.Kind == value.KindString {
		vm.push(vm.stringOpResult(a.Str() + b.Str()))
		return nil
	}
	if a.Kind == value.KindArray && b.Kind == value.KindArray {
		out := append(append([]value.Value(nil), value.ArrayOf(a).Elems...), value.ArrayOf(b).Elems...)
		vm.push(value.Array(out))
		return nil
	}
	v, err := numericBinOp("+", a, b,
		func(x, y int64) (int64, error) { return x + y, nil },
		func(x, y float64) float64 { return x + y })
	if err != nil {
		return err
	}
	vm.push(v)
	return nil
}

func (vm *VM) doSub() error {
	b, a := vm.pop(), vm.pop()
	v, err := numericBinOp("-", a, b,
		func(x, y int64) (int64, error) { return x - y, nil },
		func(x, y float64) float64 { return x - y })
	if err != nil {
		return err
	}
	vm.push(v)
	return nil
}

func (vm *VM) doMul() error {
	b, a := vm.pop(), vm.pop()
	v, err := numericBinOp("*", a, b,
		func(x, y int64) (int64, error) { return x * y, nil },
		func(x, y float64) float64 { return x * y })
	if err != nil {
		return err
	}
	vm.push(v)
	return nil
}

func (vm *VM) doDiv() error {
	b, a := vm.pop(), vm.pop()
	v, err := numericBinOp("/", a, b,
		func(x, y int64) (int64, error) {
			if y == 0 {
				return 0, ErrDivisionByZero
			}
			return x / y, nil
		},
		func(x, y float64) float64 { return x / y })
	if err != nil {
		return err
	}
	vm.push(v)
	return nil
}

func (vm *VM) doMod() error {
	b, a := vm.pop(), vm.pop()
	v, err := numericBinOp("%", a, b,
		func(x, y int64) (int64, error) {
			if y == 0 {
				return 0, ErrModuloByZero
			}
			return x % y, nil
		},
		func(x, y float64) float64 {
			m := x - y*float64(int64(x/y))
			return m
		})
	if err != nil {
		return err
	}
	vm.push(v)
	return nil
}

func (vm *VM) doNeg() error {
	a := vm.pop()
	switch a.Kind {
	case value.KindInt:
		vm.push(value.Int(-a.Int()))
	case value.KindFloat:
		vm.push(value.Float(-a.Float()))
	default:
		return &TypeMismatch{Op: "negate", Expected: "Int or Float", Got: a.Kind}
	}
	return nil
}

func (vm *VM) doAddInt() error {
	b, a := vm.pop(), vm.pop()
	if a.Kind != value.KindInt || b.Kind != value.KindInt {
		return &TypeMismatch{Op: "add_int", Expected: "Int", Got: a.Kind}
	}
	vm.push(value.Int(a.Int() + b.Int()))
	return nil
}

func (vm *VM) doSubInt() error {
	b, a := vm.pop(), vm.pop()
	if a.Kind != value.KindInt || b.Kind != value.KindInt {
		return &TypeMismatch{Op: "sub_int", Expected: "Int", Got: a.Kind}
	}
	vm.push(value.Int(a.Int() - b.Int()))
	return nil
}

func (vm *VM) doMulInt() error {
	b, a := vm.pop(), vm.pop()
	if a.Kind != value.KindInt || b.Kind != value.KindInt {
		return &TypeMismatch{Op: "mul_int", Expected: "Int", Got: a.Kind}
	}
	vm.push(value.Int(a.Int() * b.Int()))
	return nil
}

func (vm *VM) doLtInt() error {
	b, a := vm.pop(), vm.pop()
	if a.Kind != value.KindInt || b.Kind != value.KindInt {
		return &TypeMismatch{Op: "lt_int", Expected: "Int", Got: a.Kind}
	}
	vm.push(value.Bool(a.Int() < b.Int()))
	return nil
}

func (vm *VM) doLteqInt() error {
	b, a := vm.pop(), vm.pop()
	if a.Kind != value.KindInt || b.Kind != value.KindInt {
		return &TypeMismatch{Op: "lteq_int", Expected: "Int", Got: a.Kind}
	}
	vm.push(value.Bool(a.Int() <= b.Int()))
	return nil
}

func (vm *VM) doBitwise(op string, fn func(a, b int64) int64) error {
	b, a := vm.pop(), vm.pop()
	if a.Kind != value.KindInt || b.Kind != value.KindInt {
		return &TypeMismatch{Op: op, Expected: "Int", Got: a.Kind}
	}
	vm.push(value.Int(fn(a.Int(), b.Int())))
	return nil
}

func (vm *VM) doShift(op string, fn func(a int64, n uint) int64) error {
	b, a := vm.pop(), vm.pop()
	if a.Kind != value.KindInt || b.Kind != value.KindInt {
		return &TypeMismatch{Op: op, Expected: "Int", Got: a.Kind}
	}
	if b.Int() < 0 || b.Int() >= 64 {
		return ErrShiftOutOfRange
	}
	vm.push(value.Int(fn(a.Int(), uint(b.Int()))))
	return nil
}

func (vm *VM) doNot() error {
	a := vm.pop()
	switch a.Kind {
	case value.KindBool:
		vm.push(value.Bool(!a.Bool()))
	case value.KindInt:
		vm.push(value.Int(^a.Int()))
	default:
		return &TypeMismatch{Op: "not", Expected: "Bool or Int", Got: a.Kind}
	}
	return nil
}

func (vm *VM) doConcat() error {
	b, a := vm.pop(), vm.pop()
	if a.Kind != value.KindString || b.Kind != value.KindString {
		return &TypeMismatch{Op: "concat", Expected: "String", Got: a.Kind}
	}
	vm.push(vm.stringOpResult(a.Str() + b.Str()))
	return nil
}

func compareOrder(a, b value.Value) (int, error) {
	if isNumeric(a) && isNumeric(b) {
		af, bf := asFloat(a), asFloat(b)
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		default:
			return 0, nil
		}
	}
	if a.Kind == value.KindString && b.Kind == value.KindString {
		switch {
		case a.Str() < b.Str():
			return -1, nil
		case a.Str() > b.Str():
			return 1, nil
		default:
			return 0, nil
		}
	}
	return 0, &TypeMismatch{Op: "compare", Expected: "comparable operands", Got: a.Kind}
}
