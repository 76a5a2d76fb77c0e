package core

import "testing"

func TestEnsureLenReuse(t *testing.T) {
	buf := make([]float64, 4, 8)

	out := EnsureLen(buf, 6)
	if len(out) != 6 {
		t.Fatalf("len = %d, want 6", len(out))
	}

	if cap(out) != cap(buf) {
		t.Fatalf("cap = %d, want %d", cap(out), cap(buf))
	}
}

func TestShiftLeft(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		n    int
		want []float64
	}{
		{name: "half", in: []float64{1, 2, 3, 4}, n: 2, want: []float64{3, 4, 0, 0}},
		{name: "one", in: []float64{1, 2, 3, 4}, n: 1, want: []float64{2, 3, 4, 0}},
		{name: "all", in: []float64{1, 2, 3}, n: 5, want: []float64{0, 0, 0}},
		{name: "none", in: []float64{1, 2}, n: 0, want: []float64{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ShiftLeft(tt.in, tt.n)
			for i := range tt.want {
				if tt.in[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", tt.in, tt.want)
				}
			}
		})
	}
}

func TestZeroAndMaxAbs(t *testing.T) {
	buf := []float64{1, -3, 2}
	if got := MaxAbs(buf); got != 3 {
		t.Fatalf("MaxAbs = %v, want 3", got)
	}

	Zero(buf)

	for i, v := range buf {
		if v != 0 {
			t.Fatalf("buf[%d] = %v, want 0", i, v)
		}
	}
	if got := MaxAbs(buf); got != 0 {
		t.Fatalf("MaxAbs after Zero = %v, want 0", got)
	}
}
