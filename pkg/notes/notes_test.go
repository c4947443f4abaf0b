package notes

import (
	"path/filepath"
	"testing"
)

func TestBuildCoversRange(t *testing.T) {
	m := Build()
	if len(m) != Count {
		t.Fatalf("len(Build()) = %d, want %d", len(m), Count)
	}
	for id := LowestNote; id <= HighestNote; id++ {
		if _, ok := m.Lookup(id); !ok {
			t.Fatalf("note %d missing", id)
		}
	}
	for _, id := range []int{-1, 0, 23, 96, 127} {
		if _, ok := m.Lookup(id); ok {
			t.Fatalf("note %d should not be mapped", id)
		}
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
}

func TestPitchClassesCycleFromC(t *testing.T) {
	m := Build()
	for i, id := range m.IDs() {
		want := PitchClasses[i%12]
		if got := m[id].Name; got != want {
			t.Fatalf("note %d name = %q, want %q", id, got, want)
		}
	}
}

func TestOctaves(t *testing.T) {
	m := Build()
	tests := []struct {
		id     int
		octave int
		file   string
	}{
		{id: 24, octave: 1, file: "Piano.ff.C1.aiff"},
		{id: 35, octave: 1, file: "Piano.ff.B1.aiff"},
		{id: 36, octave: 2, file: "Piano.ff.C2.aiff"},
		{id: 60, octave: 4, file: "Piano.ff.C4.aiff"},
		{id: 61, octave: 4, file: "Piano.ff.Db4.aiff"},
		{id: 83, octave: 5, file: "Piano.ff.B5.aiff"},
		{id: 84, octave: 6, file: "Piano.ff.C6.aiff"},
		{id: 95, octave: 6, file: "Piano.ff.B6.aiff"},
	}
	for _, tt := range tests {
		mp := m[tt.id]
		if mp.File != tt.file {
			t.Errorf("note %d file = %q, want %q", tt.id, mp.File, tt.file)
		}
		if got := mp.Octave(); got != tt.octave {
			t.Errorf("note %d octave = %d, want %d", tt.id, got, tt.octave)
		}
	}

	changes := 0
	prev := m[LowestNote].Octave()
	for _, id := range m.IDs() {
		if o := m[id].Octave(); o != prev {
			if o != prev+1 {
				t.Fatalf("octave jumped from %d to %d at note %d", prev, o, id)
			}
			changes++
			prev = o
		}
	}
	if prev != 6 {
		t.Fatalf("last octave = %d, want 6", prev)
	}
	if changes != 5 {
		t.Fatalf("octave changed %d times, want 5", changes)
	}
}

func TestValidateRejectsDuplicates(t *testing.T) {
	m := Map{
		24: {ID: 24, Name: "C", File: "a.aiff"},
		25: {ID: 25, Name: "Db", File: "a.aiff"},
	}
	if err := m.Validate(); err == nil {
		t.Fatal("expected duplicate file error")
	}
	m = Map{24: {ID: 25, Name: "C", File: "a.aiff"}}
	if err := m.Validate(); err == nil {
		t.Fatal("expected key mismatch error")
	}
	if err := (Map{}).Validate(); err == nil {
		t.Fatal("expected empty map error")
	}
}

func TestPath(t *testing.T) {
	mp := Build()[60]
	if got, want := mp.Path("audio"), filepath.Join("audio", "Piano.ff.C4.aiff"); got != want {
		t.Fatalf("Path() = %q, want %q", got, want)
	}
}
