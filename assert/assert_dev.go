//go:build !release

package assert

import "fmt"

// That panics with a formatted message when cond is false. Invariant checks made through That are
// programmer errors: they must never fire in a correct program and are compiled out of release
// builds.
func That(cond bool, format string, args ...any) { //nolint:goprintffuncname // it's ok
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}
