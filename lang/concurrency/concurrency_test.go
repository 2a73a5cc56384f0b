package concurrency

import (
	"errors"
	"testing"
	"time"

	"github.com/ajokela/lattice-sub005/lang/channel"
	"github.com/ajokela/lattice-sub005/lang/value"
)

func TestRunScopeRunsSyncThenSpawns(t *testing.T) {
	var order []string
	sync_ := func() error { order = append(order, "sync"); return nil }
	spawn := func() error { order = append(order, "spawn"); return nil }
	if err := RunScope(sync_, []ChildRunner{spawn}); err != nil {
		t.Fatalf("RunScope: %v", err)
	}
	if len(order) != 2 || order[0] != "sync" {
		t.Fatalf("order = %v; want sync first", order)
	}
}

func TestRunScopePropagatesSpawnError(t *testing.T) {
	boom := errors.New("boom")
	err := RunScope(nil, []ChildRunner{func() error { return boom }})
	if err != boom {
		t.Fatalf("RunScope error = %v; want boom", err)
	}
}

func TestSelectPicksReadyArm(t *testing.T) {
	c := channel.New(1)
	v := value.Int(9)
	v.Phase = value.Crystal
	c.Send(v)

	var got int64
	arm := Arm{
		Chan: c,
		Ready: func() (value.Value, bool) {
			v, had, _ := c.TryRecv()
			return v, had
		},
		Body: func(v value.Value) error { got = v.Int(); return nil },
	}
	if err := Select([]Arm{arm}, false, nil, 0, nil); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if got != 9 {
		t.Fatalf("got = %d; want 9", got)
	}
}

func TestSelectTimesOut(t *testing.T) {
	c := channel.New(1)
	arm := Arm{
		Chan: c,
		Ready: func() (value.Value, bool) {
			_, had, _ := c.TryRecv()
			return value.Nil, had
		},
		Body: func(value.Value) error { return nil },
	}
	err := Select([]Arm{arm}, false, nil, 20*time.Millisecond, nil)
	if _, ok := err.(ErrTimeout); !ok {
		t.Fatalf("Select error = %v; want ErrTimeout", err)
	}
}

func TestSelectDefaultWhenNoneReady(t *testing.T) {
	c := channel.New(1)
	arm := Arm{
		Chan: c,
		Ready: func() (value.Value, bool) {
			_, had, _ := c.TryRecv()
			return value.Nil, had
		},
		Body: func(value.Value) error { return nil },
	}
	ran := false
	err := Select([]Arm{arm}, true, func() error { ran = true; return nil }, 0, nil)
	if err != nil || !ran {
		t.Fatalf("Select default path: err=%v ran=%v", err, ran)
	}
}
