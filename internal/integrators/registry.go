package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/trplsim/internal/dynamo"
)

// Default is the integrator used for population simulations.
const Default = "radau5"

var registry = map[string]func(dynamo.Tolerances) dynamo.Integrator{
	"radau5": func(tol dynamo.Tolerances) dynamo.Integrator { return NewRadau5(tol) },
	"rk45":   func(dynamo.Tolerances) dynamo.Integrator { return NewRK45() },
	"rk4":    func(dynamo.Tolerances) dynamo.Integrator { return NewRK4() },
}

// New returns the named integrator configured with tol.
func New(name string, tol dynamo.Tolerances) (dynamo.Integrator, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s (available: %v)", name, Names())
	}
	return fn(tol), nil
}

// Implicit reports whether the named integrator is stable on stiff decay.
func Implicit(name string) bool {
	return name == "radau5"
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
