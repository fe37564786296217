package tecplot

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var quotedName = regexp.MustCompile(`"(.*?)"`)

// synonymRule maps raw solver column names onto a canonical name. Rules
// are evaluated in order; for each canonical name the first raw column
// that matches wins and later matches are ignored.
type synonymRule struct {
	canonical string
	matches   func(lower string) bool
}

// xAxis and yAxis recognize component suffixes like "Momentum_x" or
// "VelocityX". They deliberately look at suffixes so that the "y" inside
// "velocity" does not disqualify an x-component.
func xAxis(c string) bool {
	return strings.Contains(c, "_x") || strings.HasSuffix(c, "x")
}

func yAxis(c string) bool {
	return strings.Contains(c, "_y") || strings.HasSuffix(c, "y")
}

var synonymRules = []synonymRule{
	{ColX, func(c string) bool {
		return c == "x" || strings.Contains(c, "coordinatex")
	}},
	{ColTemp, func(c string) bool {
		return strings.Contains(c, "temperature")
	}},
	{ColVelocityX, func(c string) bool {
		return strings.Contains(c, "velocity") && xAxis(c) && !yAxis(c)
	}},
	{ColMomentumX, func(c string) bool {
		return strings.Contains(c, "momentum") && xAxis(c) && !yAxis(c)
	}},
	{ColDensity, func(c string) bool {
		return strings.Contains(c, "density")
	}},
}

// Parse reads a solver output file into a Table with canonical column
// names. Malformed body rows are dropped. If the required fields (spatial
// coordinate, temperature and a velocity source) cannot be resolved, or no
// data rows survive, Parse returns ErrUnparseable. I/O failures are
// reported as ordinary errors.
func Parse(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open output file %s: %w", path, err)
	}
	defer f.Close()

	var (
		names    []string
		rows     [][]float64
		width    int
		inHeader = true
	)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		if inHeader {
			if strings.Contains(line, "VARIABLES") {
				names = nil
				for _, m := range quotedName.FindAllStringSubmatch(line, -1) {
					names = append(names, m[1])
				}
			}
			if strings.Contains(line, "ZONE") {
				inHeader = false
				width = len(names)
			}
			continue
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		// With no declared variable names the width is fixed by the
		// first well-formed row.
		if width == 0 {
			width = len(fields)
		}
		if len(fields) != width {
			continue
		}
		row := make([]float64, width)
		ok := true
		for i, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				ok = false
				break
			}
			row[i] = v
		}
		if ok {
			rows = append(rows, row)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read output file %s: %w", path, err)
	}

	if len(rows) == 0 {
		return nil, ErrUnparseable
	}

	tbl := NewTable(canonicalize(names), rows)
	deriveVelocity(tbl)

	if !tbl.Has(ColX) || !tbl.Has(ColTemp) || !tbl.Has(ColVelocityX) {
		return nil, ErrUnparseable
	}
	return tbl, nil
}

// canonicalize renames raw column names using the synonym table. Raw
// names that match no rule are kept untouched, and an empty name list
// (header without a VARIABLES line) passes through as-is.
func canonicalize(raw []string) []string {
	out := make([]string, len(raw))
	copy(out, raw)

	claimed := make(map[int]bool, len(raw))
	for _, rule := range synonymRules {
		for i, name := range raw {
			if claimed[i] {
				continue
			}
			if rule.matches(strings.ToLower(name)) {
				out[i] = rule.canonical
				claimed[i] = true
				break
			}
		}
	}
	return out
}

// deriveVelocity fills in the velocity column from momentum and density
// when the solver wrote conservative variables only.
func deriveVelocity(t *Table) {
	if t.Has(ColVelocityX) || !t.Has(ColMomentumX) || !t.Has(ColDensity) {
		return
	}
	mom, _ := t.Column(ColMomentumX)
	rho, _ := t.Column(ColDensity)
	u := make([]float64, len(mom))
	for i := range mom {
		u[i] = mom[i] / rho[i]
	}
	t.addColumn(ColVelocityX, u)
}
