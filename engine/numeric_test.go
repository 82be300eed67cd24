package engine

import (
	"errors"
	"math"
	"testing"
)

var samples32 = []uint32{
	0, 1, 2, 3, 7, 0x7F, 0x80, 0xFF, 0x1234, 0xFFFF, 0x10000,
	0x7FFFFFFF, 0x80000000, 0x80000001, 0xDEADBEEF, 0xFFFFFFFE, 0xFFFFFFFF,
}

func TestWrappingArithmetic32(t *testing.T) {
	for _, a := range samples32 {
		for _, b := range samples32 {
			if got, want := add(a, b), uint32((uint64(a)+uint64(b))%(1<<32)); got != want {
				t.Errorf("add(%#x, %#x) = %#x, want %#x", a, b, got, want)
			}
			if got, want := sub(a, b), uint32((uint64(a)+(1<<32)-uint64(b))%(1<<32)); got != want {
				t.Errorf("sub(%#x, %#x) = %#x, want %#x", a, b, got, want)
			}
			if got, want := mul(a, b), uint32((uint64(a)*uint64(b))%(1<<32)); got != want {
				t.Errorf("mul(%#x, %#x) = %#x, want %#x", a, b, got, want)
			}
		}
	}
}

func TestDivRemByZero(t *testing.T) {
	ops32 := map[string]func(a, b uint32) (uint32, error){
		"div_u": divU[uint32],
		"div_s": divS32,
		"rem_u": remU[uint32],
		"rem_s": remS32,
	}
	for name, op := range ops32 {
		for _, a := range samples32 {
			if _, err := op(a, 0); !errors.Is(err, ErrDivideByZero) {
				t.Errorf("i32.%s(%#x, 0): got %v, want ErrDivideByZero", name, a, err)
			}
		}
	}

	ops64 := map[string]func(a, b uint64) (uint64, error){
		"div_u": divU[uint64],
		"div_s": divS64,
		"rem_u": remU[uint64],
		"rem_s": remS64,
	}
	for name, op := range ops64 {
		if _, err := op(math.MaxUint64, 0); !errors.Is(err, ErrDivideByZero) {
			t.Errorf("i64.%s: got %v, want ErrDivideByZero", name, err)
		}
	}
}

func TestSignedDivision(t *testing.T) {
	minus := func(v int32) uint32 { return uint32(v) }

	tests := []struct {
		name string
		op   func(a, b uint32) (uint32, error)
		a, b uint32
		want uint32
		err  error
	}{
		{"div_s truncates toward zero", divS32, minus(-7), 2, minus(-3), nil},
		{"rem_s takes dividend sign", remS32, minus(-7), 2, minus(-1), nil},
		{"rem_s positive", remS32, 7, minus(-2), 1, nil},
		{"div_s min by -1", divS32, 0x80000000, minus(-1), 0, ErrIntegerOverflow},
		{"rem_s min by -1", remS32, 0x80000000, minus(-1), 0, nil},
		{"div_u large", divU[uint32], 0xFFFFFFFF, 2, 0x7FFFFFFF, nil},
		{"rem_u large", remU[uint32], 0xFFFFFFFF, 10, 5, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.op(tt.a, tt.b)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("got %v, want %v", err, tt.err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %#x, want %#x", got, tt.want)
			}
		})
	}

	if _, err := divS64(1<<63, math.MaxUint64); !errors.Is(err, ErrIntegerOverflow) {
		t.Errorf("i64.div_s min by -1: got %v", err)
	}
	if got, err := divS64(uint64(1<<64-7), 2); err != nil || int64(got) != -3 {
		t.Errorf("i64.div_s(-7, 2) = %d, %v", int64(got), err)
	}
}

func TestShiftsAndRotatesMod32(t *testing.T) {
	amounts := []uint32{0, 31, 32, 33, 4294967295}

	tests := []struct {
		name string
		op   func(a, b uint32) uint32
		a    uint32
		want []uint32
	}{
		{"shl", shl32, 1, []uint32{1, 0x80000000, 1, 2, 0x80000000}},
		{"shr_u", shrU32, 0x80000000, []uint32{0x80000000, 1, 0x80000000, 0x40000000, 1}},
		{"shr_s", shrS32, 0x80000000, []uint32{0x80000000, 0xFFFFFFFF, 0x80000000, 0xC0000000, 0xFFFFFFFF}},
		{"rotl", rotl32, 0x80000001, []uint32{0x80000001, 0xC0000000, 0x80000001, 0x00000003, 0xC0000000}},
		{"rotr", rotr32, 0x80000001, []uint32{0x80000001, 0x00000003, 0x80000001, 0xC0000000, 0x00000003}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i, k := range amounts {
				if got := tt.op(tt.a, k); got != tt.want[i] {
					t.Errorf("%s(%#x, %d) = %#x, want %#x", tt.name, tt.a, k, got, tt.want[i])
				}
			}
		})
	}
}

func TestShiftsMod64(t *testing.T) {
	if got := shl64(1, 64); got != 1 {
		t.Errorf("shl64(1, 64) = %#x", got)
	}
	if got := shl64(1, 65); got != 2 {
		t.Errorf("shl64(1, 65) = %#x", got)
	}
	if got := shrS64(1<<63, 63); got != math.MaxUint64 {
		t.Errorf("shrS64 = %#x", got)
	}
	if got := shrU64(1<<63, 127); got != 1 {
		t.Errorf("shrU64 = %#x", got)
	}
	if got := rotl64(1<<63, 1); got != 1 {
		t.Errorf("rotl64 = %#x", got)
	}
	if got := rotr64(1, 65); got != 1<<63 {
		t.Errorf("rotr64 = %#x", got)
	}
}

func TestBitCounts(t *testing.T) {
	tests := []struct {
		name string
		got  uint64
		want uint64
	}{
		{"clz32(0)", uint64(clz32(0)), 32},
		{"clz32(1)", uint64(clz32(1)), 31},
		{"clz32(0x80000000)", uint64(clz32(0x80000000)), 0},
		{"ctz32(0)", uint64(ctz32(0)), 32},
		{"ctz32(8)", uint64(ctz32(8)), 3},
		{"popcnt32(0xFFFFFFFF)", uint64(popcnt32(0xFFFFFFFF)), 32},
		{"popcnt32(0xF0)", uint64(popcnt32(0xF0)), 4},
		{"clz64(0)", clz64(0), 64},
		{"clz64(1)", clz64(1), 63},
		{"ctz64(0)", ctz64(0), 64},
		{"ctz64(1<<40)", ctz64(1 << 40), 40},
		{"popcnt64(max)", popcnt64(math.MaxUint64), 64},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %d, want %d", tt.name, tt.got, tt.want)
		}
	}
}

func TestSignedCompares(t *testing.T) {
	neg := uint32(0xFFFFFFFF)
	if !ltS32(neg, 0) || ltU(neg, 0) {
		t.Error("-1 < 0 signed only")
	}
	if !geS32(0, neg) || !gtU(neg, 0) {
		t.Error("0 >= -1 signed, max > 0 unsigned")
	}
	if !leS32(5, 5) || !leS64(math.MaxUint64, 0) || gtS64(math.MaxUint64, 0) {
		t.Error("le/gt signed")
	}
}
