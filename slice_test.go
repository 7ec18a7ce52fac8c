package strata

import "testing"

func TestSliceLenAndEmpty(t *testing.T) {
	tests := []struct {
		name    string
		s       Slice
		wantLen int
		wantEmp bool
	}{
		{"empty", Slice{Start: 5, End: 5}, 0, true},
		{"inverted treated empty", Slice{Start: 9, End: 3}, 0, true},
		{"single", SliceSingle(4), 1, false},
		{"range", NewSlice(10, 20), 10, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.Len(); got != tt.wantLen {
				t.Errorf("Len() = %d, want %d", got, tt.wantLen)
			}
			if got := tt.s.IsEmpty(); got != tt.wantEmp {
				t.Errorf("IsEmpty() = %v, want %v", got, tt.wantEmp)
			}
		})
	}
}

func TestNewSlicePanicsOnInverted(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for start > end")
		}
	}()
	NewSlice(10, 5)
}

func TestSliceIntersect(t *testing.T) {
	tests := []struct {
		name string
		a, b Slice
		want Slice
	}{
		{"overlap", NewSlice(0, 10), NewSlice(5, 15), NewSlice(5, 10)},
		{"disjoint", NewSlice(0, 5), NewSlice(10, 15), Slice{}},
		{"touching", NewSlice(0, 5), NewSlice(5, 10), Slice{}},
		{"contained", NewSlice(0, 20), NewSlice(5, 10), NewSlice(5, 10)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Intersect(tt.b); !got.Equal(tt.want) {
				t.Errorf("Intersect() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSliceUnion(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Slice
		want     Slice
		wantOk   bool
	}{
		{"overlap", NewSlice(0, 10), NewSlice(5, 15), NewSlice(0, 15), true},
		{"touching", NewSlice(0, 5), NewSlice(5, 10), NewSlice(0, 10), true},
		{"disjoint", NewSlice(0, 5), NewSlice(10, 15), Slice{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.a.Union(tt.b)
			if ok != tt.wantOk {
				t.Fatalf("Union() ok = %v, want %v", ok, tt.wantOk)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("Union() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSliceDifference(t *testing.T) {
	tests := []struct {
		name   string
		s, o   Slice
		want   Slice
		wantOk bool
	}{
		{"no overlap", NewSlice(0, 10), NewSlice(20, 30), NewSlice(0, 10), true},
		{"full cover", NewSlice(5, 10), NewSlice(0, 20), Slice{}, true},
		{"left cut", NewSlice(0, 10), NewSlice(0, 5), NewSlice(5, 10), true},
		{"right cut", NewSlice(0, 10), NewSlice(5, 10), NewSlice(0, 5), true},
		{"splits in two", NewSlice(0, 10), NewSlice(3, 7), Slice{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.s.Difference(tt.o)
			if ok != tt.wantOk {
				t.Fatalf("Difference() ok = %v, want %v", ok, tt.wantOk)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("Difference() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSliceSplitWith(t *testing.T) {
	left, mid, right, ok := NewSlice(0, 20).SplitWith(NewSlice(8, 12))
	if !ok {
		t.Fatal("expected ok")
	}
	if !left.Equal(NewSlice(0, 8)) || !mid.Equal(NewSlice(8, 12)) || !right.Equal(NewSlice(12, 20)) {
		t.Errorf("got left=%s mid=%s right=%s", left, mid, right)
	}

	if _, _, _, ok := NewSlice(0, 10).SplitWith(NewSlice(5, 20)); ok {
		t.Error("expected not ok for o outside s")
	}
}

func TestSliceLess(t *testing.T) {
	if !NewSlice(0, 5).Less(NewSlice(1, 5)) {
		t.Error("expected [0,5) < [1,5)")
	}
	if !NewSlice(0, 5).Less(NewSlice(0, 6)) {
		t.Error("expected [0,5) < [0,6)")
	}
	if NewSlice(1, 5).Less(NewSlice(0, 5)) {
		t.Error("expected [1,5) not < [0,5)")
	}
}
