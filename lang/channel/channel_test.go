package channel

import (
	"testing"
	"time"

	"github.com/ajokela/lattice-sub005/lang/value"
)

func TestSendRecvBuffered(t *testing.T) {
	c := New(2)
	if err := c.Send(value.Int(1)); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := c.Send(value.Int(2)); err != nil {
		t.Fatalf("Send: %v", err)
	}
	v, ok := c.Recv()
	if !ok || v.Int() != 1 {
		t.Fatalf("Recv = %v, %v; want 1, true", v, ok)
	}
	v, ok = c.Recv()
	if !ok || v.Int() != 2 {
		t.Fatalf("Recv = %v, %v; want 2, true", v, ok)
	}
}

func TestSendRejectsFluid(t *testing.T) {
	c := New(1)
	fluid := value.String("hi")
	if err := c.Send(fluid); err == nil {
		t.Fatal("expected ErrUnsendablePhase for a fluid value")
	}
}

func TestCloseWakesRecv(t *testing.T) {
	c := New(1)
	done := make(chan bool, 1)
	go func() {
		_, ok := c.Recv()
		done <- ok
	}()
	time.Sleep(10 * time.Millisecond)
	c.Close()
	select {
	case ok := <-done:
		if ok {
			t.Fatal("Recv on a closed, empty channel should report false")
		}
	case <-time.After(time.Second):
		t.Fatal("Recv did not wake up after Close")
	}
}

func TestTryRecvEmpty(t *testing.T) {
	c := New(1)
	_, had, open := c.TryRecv()
	if had || !open {
		t.Fatalf("TryRecv on empty open channel = had=%v open=%v; want false,true", had, open)
	}
}

func TestSendAfterCloseErrors(t *testing.T) {
	c := New(1)
	c.Close()
	v := value.Int(5)
	v.Phase = value.Crystal
	if err := c.Send(v); err == nil {
		t.Fatal("Send after Close should error")
	}
}
