package vm

import (
	"strings"

	"github.com/pkg/errors"
)

// RunSource assembles and executes src, feeding it stdin and returning
// everything written to stdout. A thin convenience wrapper around Assemble
// and New/Run for tests that only care about the observable I/O of a
// compiled program.
func RunSource(src, stdin string) (string, error) {
	prog, err := Assemble(src)
	if err != nil {
		return "", errors.Wrap(err, "assemble")
	}
	var out strings.Builder
	m, err := New(prog, strings.NewReader(stdin), &out)
	if err != nil {
		return "", err
	}
	if err := m.Run(); err != nil {
		return out.String(), err
	}
	return out.String(), nil
}
