package atoms

import (
	"fmt"
	"strings"
)

// maxAtomicNumber is the highest atomic number with a symbol entry.
const maxAtomicNumber = 98

// symbols maps atomic number (index) to element symbol. Index 0 unused.
var symbols = [maxAtomicNumber + 1]string{
	"", "H", "He", "Li", "Be", "B", "C", "N", "O", "F", "Ne",
	"Na", "Mg", "Al", "Si", "P", "S", "Cl", "Ar", "K", "Ca",
	"Sc", "Ti", "V", "Cr", "Mn", "Fe", "Co", "Ni", "Cu", "Zn",
	"Ga", "Ge", "As", "Se", "Br", "Kr", "Rb", "Sr", "Y", "Zr",
	"Nb", "Mo", "Tc", "Ru", "Rh", "Pd", "Ag", "Cd", "In", "Sn",
	"Sb", "Te", "I", "Xe", "Cs", "Ba", "La", "Ce", "Pr", "Nd",
	"Pm", "Sm", "Eu", "Gd", "Tb", "Dy", "Ho", "Er", "Tm", "Yb",
	"Lu", "Hf", "Ta", "W", "Re", "Os", "Ir", "Pt", "Au", "Hg",
	"Tl", "Pb", "Bi", "Po", "At", "Rn", "Fr", "Ra", "Ac", "Th",
	"Pa", "U", "Np", "Pu", "Am", "Cm", "Bk", "Cf",
}

var numberBySymbol = func() map[string]int {
	m := make(map[string]int, maxAtomicNumber)
	for z := 1; z <= maxAtomicNumber; z++ {
		m[symbols[z]] = z
	}
	return m
}()

// Symbol returns the element symbol for an atomic number.
func Symbol(z int) (string, error) {
	if z < 1 || z > maxAtomicNumber {
		return "", fmt.Errorf("atoms: no symbol for atomic number %d", z)
	}
	return symbols[z], nil
}

// AtomicNumber returns the atomic number for an element symbol. Matching
// is case-insensitive on the first letter convention ("si", "SI" and
// "Si" all resolve to silicon).
func AtomicNumber(symbol string) (int, error) {
	s := strings.TrimSpace(symbol)
	if s == "" {
		return 0, fmt.Errorf("atoms: empty element symbol")
	}
	s = strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
	z, ok := numberBySymbol[s]
	if !ok {
		return 0, fmt.Errorf("atoms: unknown element symbol %q", symbol)
	}
	return z, nil
}
