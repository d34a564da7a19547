// Package solver implements a small mixed-integer linear programming engine:
// a Big-M primal simplex solver for the LP relaxation, wrapped in a
// branch-and-bound search over binary variables. It is deliberately generic
// (variables, linear constraints, a linear objective) so that any caller can
// build a Model without knowing how it gets solved — see the Solver
// interface in solve.go.
package solver

// Kind distinguishes a binary decision variable from a continuous one.
type Kind int

const (
	Continuous Kind = iota
	Binary
)

// Op is a linear constraint's relational operator.
type Op int

const (
	LE Op = iota // <=
	GE           // >=
	EQ           // ==
)

// Variable is a single decision variable in a Model.
type Variable struct {
	Name       string
	Kind       Kind
	LowerBound float64
	UpperBound float64
}

// Constraint is a linear inequality or equality over a sparse set of variables.
type Constraint struct {
	Name  string
	Terms map[int]float64 // variable index -> coefficient
	Op    Op
	RHS   float64
}

// Model is a mixed-integer linear program: minimize Objective subject to
// Constraints, over Vars.
type Model struct {
	Vars        []Variable
	Constraints []Constraint
	Objective   map[int]float64 // variable index -> coefficient, minimized
}

// NewModel returns an empty model ready for variables and constraints.
func NewModel() *Model {
	return &Model{Objective: map[int]float64{}}
}

// AddVar registers a variable and returns its index.
func (m *Model) AddVar(name string, kind Kind, lower, upper float64) int {
	m.Vars = append(m.Vars, Variable{Name: name, Kind: kind, LowerBound: lower, UpperBound: upper})
	return len(m.Vars) - 1
}

// AddBinary is a convenience wrapper for AddVar(name, Binary, 0, 1).
func (m *Model) AddBinary(name string) int {
	return m.AddVar(name, Binary, 0, 1)
}

// AddConstraint appends a linear constraint built from (varIndex, coeff) terms.
func (m *Model) AddConstraint(name string, terms map[int]float64, op Op, rhs float64) {
	m.Constraints = append(m.Constraints, Constraint{Name: name, Terms: terms, Op: op, RHS: rhs})
}

// SetObjectiveTerm adds coeff to the objective's coefficient for variable v.
func (m *Model) SetObjectiveTerm(v int, coeff float64) {
	m.Objective[v] += coeff
}

// NumVars returns the number of registered variables.
func (m *Model) NumVars() int {
	return len(m.Vars)
}
