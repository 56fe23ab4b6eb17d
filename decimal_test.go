package carpet

import (
	"math/big"
	"reflect"
	"testing"
)

// Scenario 6 (spec.md §8): a DECIMAL(20,2) field rescales an input
// value of scale 4 under HALF_UP rounding (12345678901234.5678 becomes
// 12345678901234.57), and the rescaled value round-trips unchanged.
func TestDecimalRescaleHalfUpRoundTrip(t *testing.T) {
	type account struct {
		Balance Decimal `carpet:"balance,precision=20,scale=2"`
	}

	writerConfig := DefaultWriterConfig()
	writerConfig.Apply(WithDecimalRounding(RoundHalfUp))

	model, err := compileReflectModel(reflect.TypeOf(account{}), writerConfig)
	if err != nil {
		t.Fatalf("compileReflectModel: %s", err)
	}
	shredder := NewShredder(model, writerConfig)
	store := newMemColumnStore()

	input := Decimal{Unscaled: parseBig(t, "123456789012345678"), Scale: 4} // 12345678901234.5678
	if err := shredder.Shred(store, account{Balance: input}); err != nil {
		t.Fatalf("Shred: %s", err)
	}

	assembler := NewAssembler(model, store.Reader(), DefaultReaderConfig())
	var got account
	ok, err := assembler.Next(&got)
	if err != nil || !ok {
		t.Fatalf("Next: ok=%v err=%s", ok, err)
	}

	want := Decimal{Unscaled: parseBig(t, "1234567890123457"), Scale: 2} // 12345678901234.57
	if got.Balance.Scale != want.Scale || got.Balance.Unscaled.Cmp(want.Unscaled) != 0 {
		t.Errorf("got %d/10^%d, want %d/10^%d", got.Balance.Unscaled, got.Balance.Scale, want.Unscaled, want.Scale)
	}
}

// RoundUnnecessary rejects a rescale that would lose precision.
func TestDecimalRescaleUnnecessaryRejectsLossyRescale(t *testing.T) {
	d := Decimal{Unscaled: parseBig(t, "12345"), Scale: 2} // 123.45
	_, err := Rescale(d, 1, RoundUnnecessary)
	if err == nil {
		t.Fatal("expected an error rescaling 123.45 to scale 1 under RoundUnnecessary")
	}
	convErr, ok := err.(*ConversionError)
	if !ok || convErr.Reason != "InvalidRescaling" {
		t.Fatalf("expected ConversionError{Reason: InvalidRescaling}, got %#v", err)
	}
}

func parseBig(t *testing.T, s string) *big.Int {
	t.Helper()
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		t.Fatalf("invalid big.Int literal %q", s)
	}
	return n
}
