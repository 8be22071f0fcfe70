package atoms

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// latticeRe matches the extended-XYZ Lattice="..." comment-line entry.
var latticeRe = regexp.MustCompile(`Lattice="([^"]*)"`)

// ReadXYZ parses an (extended) XYZ stream: an atom count line, a comment
// line optionally carrying a Lattice="ax ay az bx by bz cx cy cz" entry,
// then one "Symbol x y z" line per atom. A structure without a lattice
// entry gets a zero cell; callers must set one before building potentials.
func ReadXYZ(r io.Reader) (*Atoms, error) {
	sc := bufio.NewScanner(r)

	if !sc.Scan() {
		return nil, fmt.Errorf("xyz: missing atom count line")
	}
	count, err := strconv.Atoi(strings.TrimSpace(sc.Text()))
	if err != nil {
		return nil, fmt.Errorf("xyz: bad atom count %q: %w", sc.Text(), err)
	}
	if count < 0 {
		return nil, fmt.Errorf("xyz: negative atom count %d", count)
	}

	if !sc.Scan() {
		return nil, fmt.Errorf("xyz: missing comment line")
	}
	var cell [3][3]float64
	if m := latticeRe.FindStringSubmatch(sc.Text()); m != nil {
		fields := strings.Fields(m[1])
		if len(fields) != 9 {
			return nil, fmt.Errorf("xyz: lattice needs 9 components, got %d", len(fields))
		}
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("xyz: bad lattice component %q: %w", f, err)
			}
			cell[i/3][i%3] = v
		}
	}

	numbers := make([]int, 0, count)
	positions := make([][3]float64, 0, count)
	for i := 0; i < count; i++ {
		if !sc.Scan() {
			return nil, fmt.Errorf("xyz: expected %d atoms, got %d", count, i)
		}
		fields := strings.Fields(sc.Text())
		if len(fields) < 4 {
			return nil, fmt.Errorf("xyz: atom line %d needs symbol and 3 coordinates: %q", i+1, sc.Text())
		}
		z, err := AtomicNumber(fields[0])
		if err != nil {
			return nil, fmt.Errorf("xyz: atom line %d: %w", i+1, err)
		}
		var p [3]float64
		for j := 0; j < 3; j++ {
			v, err := strconv.ParseFloat(fields[j+1], 64)
			if err != nil {
				return nil, fmt.Errorf("xyz: atom line %d coordinate %d: %w", i+1, j, err)
			}
			p[j] = v
		}
		numbers = append(numbers, z)
		positions = append(positions, p)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("xyz: read: %w", err)
	}

	return New(numbers, positions, cell)
}

// ReadXYZFile reads an extended-XYZ file from disk.
func ReadXYZFile(path string) (*Atoms, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("xyz: open %s: %w", path, err)
	}
	defer f.Close()
	return ReadXYZ(f)
}

// WriteXYZ writes the structure in extended-XYZ format.
func WriteXYZ(w io.Writer, a *Atoms) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d\n", a.Len())
	fmt.Fprintf(bw, `Lattice="%g %g %g %g %g %g %g %g %g" Properties=species:S:1:pos:R:3`+"\n",
		a.Cell[0][0], a.Cell[0][1], a.Cell[0][2],
		a.Cell[1][0], a.Cell[1][1], a.Cell[1][2],
		a.Cell[2][0], a.Cell[2][1], a.Cell[2][2])
	for i := range a.Positions {
		sym, err := Symbol(a.Numbers[i])
		if err != nil {
			return err
		}
		fmt.Fprintf(bw, "%-2s %14.8f %14.8f %14.8f\n",
			sym, a.Positions[i][0], a.Positions[i][1], a.Positions[i][2])
	}
	return bw.Flush()
}
