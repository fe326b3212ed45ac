package extensibility

import (
	"errors"
	"testing"
	"time"

	"github.com/comalice/counterx/internal/primitives"
)

func TestChannelSource(t *testing.T) {
	ch := make(chan []byte, 1)
	s := NewChannelSource(ch)
	ch <- []byte{3}
	if got := <-s.Instructions(); len(got) != 1 || got[0] != 3 {
		t.Errorf("got %v, want [3]", got)
	}
}

func TestTickerSource_CyclesProgram(t *testing.T) {
	inc := primitives.Increment(1).Encode()
	reset := primitives.Reset().Encode()
	s, err := NewTickerSource(10*time.Millisecond, inc, reset)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Stop()

	want := [][]byte{inc, reset, inc}
	for i, w := range want {
		select {
		case got := <-s.Instructions():
			if string(got) != string(w) {
				t.Errorf("tick %d: got %v, want %v", i, got, w)
			}
		case <-time.After(500 * time.Millisecond):
			t.Fatalf("tick %d: no instruction received", i)
		}
	}
}

func TestTickerSource_StopClosesChannel(t *testing.T) {
	s, err := NewTickerSource(time.Hour, primitives.Reset().Encode())
	if err != nil {
		t.Fatal(err)
	}
	s.Stop()
	select {
	case _, open := <-s.Instructions():
		if open {
			t.Error("expected closed channel")
		}
	case <-time.After(500 * time.Millisecond):
		t.Error("channel not closed after Stop")
	}
}

func TestTickerSource_EmptyProgram(t *testing.T) {
	s, err := NewTickerSource(time.Millisecond)
	if !errors.Is(err, ErrEmptyProgram) {
		t.Fatalf("got %v, want ErrEmptyProgram", err)
	}
	if s != nil {
		t.Error("expected nil source")
	}
}
