package counterx

import (
	"context"
	"testing"
)

// BenchmarkProcess measures one full decode, read, mutate and write cycle.
func BenchmarkProcess(b *testing.B) {
	state := make([]byte, RecordSize)
	instr := Increment(1).Encode()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := Process(state, instr); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkDecode measures instruction decoding alone.
func BenchmarkDecode(b *testing.B) {
	instr := Update(33).Encode()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Decode(instr); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkEngineSaturate measures the engine with a non-default policy.
func BenchmarkEngineSaturate(b *testing.B) {
	e := NewEngine(WithOverflowPolicy(OverflowSaturate))
	slot := NewSlot(make([]byte, RecordSize))
	instr := Increment(1 << 20).Encode()
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := e.Process(ctx, slot, instr); err != nil {
			b.Fatal(err)
		}
	}
}
