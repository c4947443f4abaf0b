package notes

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const (
	// LowestNote is the first MIDI note id with a sample.
	LowestNote = 24
	// HighestNote is the last MIDI note id with a sample.
	HighestNote = 95
	// Count is the number of mapped note ids (six octaves).
	Count = HighestNote - LowestNote + 1

	filePrefix = "Piano.ff."
	fileSuffix = ".aiff"
)

// PitchClasses is the chromatic cycle used to name samples, starting at C.
var PitchClasses = [12]string{"C", "Db", "D", "Eb", "E", "F", "Gb", "G", "Ab", "A", "Bb", "B"}

// octaveBoundaries are the note ids after which the octave counter advances.
// 23 is below LowestNote and never fires.
var octaveBoundaries = map[int]bool{23: true, 35: true, 47: true, 59: true, 71: true, 83: true}

// Mapping binds a MIDI note id to its pitch name and sample file.
type Mapping struct {
	ID   int    // MIDI note id
	Name string // Pitch class, one of PitchClasses
	File string // Sample file name, relative to the asset directory
}

// Path resolves the sample file against dir.
func (m Mapping) Path(dir string) string {
	return filepath.Join(dir, m.File)
}

// Octave returns the octave number encoded in the sample file name.
func (m Mapping) Octave() int {
	s := strings.TrimSuffix(strings.TrimPrefix(m.File, filePrefix+m.Name), fileSuffix)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func (m Mapping) String() string {
	return fmt.Sprintf("%d:%s(%s)", m.ID, m.Name, m.File)
}

// Map is the immutable note id to sample table.
type Map map[int]Mapping

// Build produces the 72 entry piano mapping for note ids 24 through 95.
func Build() Map {
	m := make(Map, Count)
	octave := 1
	cursor := 0
	for id := LowestNote; id <= HighestNote; id++ {
		name := PitchClasses[cursor]
		m[id] = Mapping{
			ID:   id,
			Name: name,
			File: filePrefix + name + strconv.Itoa(octave) + fileSuffix,
		}
		cursor = (cursor + 1) % len(PitchClasses)
		if octaveBoundaries[id] {
			octave++
		}
	}
	return m
}

// Lookup returns the mapping for id.
func (m Map) Lookup(id int) (Mapping, bool) {
	mp, ok := m[id]
	return mp, ok
}

// IDs returns the mapped note ids in ascending order.
func (m Map) IDs() []int {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Validate checks that every entry is keyed by its own id and that no two
// ids share a sample file.
func (m Map) Validate() error {
	if len(m) == 0 {
		return errors.New("note map is empty")
	}
	files := make(map[string]int, len(m))
	for id, mp := range m {
		if mp.ID != id {
			return fmt.Errorf("note %d is stored under key %d", mp.ID, id)
		}
		if mp.File == "" {
			return fmt.Errorf("note %d has no sample file", id)
		}
		if other, dup := files[mp.File]; dup {
			return fmt.Errorf("notes %d and %d share sample file %q", other, id, mp.File)
		}
		files[mp.File] = id
	}
	return nil
}
