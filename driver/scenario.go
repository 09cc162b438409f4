package driver

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ghodss/yaml"
	"github.com/njchilds90/mms/geometry"
	"github.com/njchilds90/mms/metric"
	"github.com/njchilds90/mms/operator"
)

// ErrUnknownScenario is returned for names that are not built in.
var ErrUnknownScenario = errors.New("driver: unknown scenario")

// Scenario is one manufactured-solution run: a geometry preset, the
// metric components to override, and the trial solution. Expressions
// are kept as text in the canonical grammar.
type Scenario struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Geometry    string            `json:"geometry"`
	Metric      map[string]string `json:"metric,omitempty"`
	Solution    string            `json:"solution"`
	Operator    OperatorOptions   `json:"operator,omitempty"`
	Verify      bool              `json:"verify,omitempty"`
}

// OperatorOptions selects the Delp2 variant.
type OperatorOptions struct {
	NoFirstOrder  bool `json:"no_first_order,omitempty"`
	Perpendicular bool `json:"perpendicular,omitempty"`
}

// Options converts the record to operator options.
func (oo OperatorOptions) Options() []operator.Option {
	var opts []operator.Option
	if oo.NoFirstOrder {
		opts = append(opts, operator.WithoutFirstOrderTerms())
	}
	if oo.Perpendicular {
		opts = append(opts, operator.Perpendicular())
	}
	return opts
}

// Parse reads a YAML (or JSON) scenario, overwriting fields present in
// data.
func (sc *Scenario) Parse(data []byte) error {
	if err := yaml.Unmarshal(data, sc); err != nil {
		return fmt.Errorf("driver: scenario: %w", err)
	}
	return sc.Validate()
}

// Load reads a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc := &Scenario{Geometry: "slab"}
	if err := sc.Parse(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if sc.Name == "" {
		sc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return sc, nil
}

// Validate checks the record without running the operator.
func (sc *Scenario) Validate() error {
	if strings.TrimSpace(sc.Solution) == "" {
		return fmt.Errorf("driver: scenario %q has no solution", sc.Name)
	}
	if _, err := geometry.Lookup(sc.Geometry); err != nil {
		return err
	}
	for k := range sc.Metric {
		if k == "J" {
			continue
		}
		if _, err := metric.ParseComponent(k); err != nil {
			return err
		}
	}
	return nil
}

// Marshal renders the scenario as YAML.
func (sc *Scenario) Marshal() ([]byte, error) {
	return yaml.Marshal(sc)
}

// Print writes a one-line-per-field summary.
func (sc *Scenario) Print(w io.Writer) {
	fmt.Fprintf(w, "\"%s\"\t\t= Name\n", sc.Name)
	fmt.Fprintf(w, "[%s]\t= Geometry\n", sc.Geometry)
	fmt.Fprintf(w, "%s\t= Solution\n", sc.Solution)
	keys := make([]string, 0, len(sc.Metric))
	for k := range sc.Metric {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "Metric[%s] = %s\n", k, sc.Metric[k])
	}
	fmt.Fprintf(w, "[%v]\t\t= First order terms\n", !sc.Operator.NoFirstOrder)
	fmt.Fprintf(w, "[%v]\t\t= Perpendicular\n", sc.Operator.Perpendicular)
}

// Clone returns a deep copy.
func (sc *Scenario) Clone() *Scenario {
	out := *sc
	if sc.Metric != nil {
		out.Metric = make(map[string]string, len(sc.Metric))
		for k, v := range sc.Metric {
			out.Metric[k] = v
		}
	}
	return &out
}

// ============================================================
// Built-in scenarios
// ============================================================

// TrialSolution is the manufactured solution of the laplace3d test.
const TrialSolution = "sin(x*pi)*exp(sin(3*z)) + tan(sin(2*x*pi))*log(2. + sin(z + 1.7))"

var builtins = map[string]*Scenario{
	"laplace3d": {
		Name:        "laplace3d",
		Description: "3-D Laplacian on the circular tokamak",
		Geometry:    "simple-tokamak",
		Solution:    TrialSolution,
	},
	"laplace3d-shaped": {
		Name:        "laplace3d-shaped",
		Description: "3-D Laplacian on the elongated, triangular tokamak",
		Geometry:    "shaped-tokamak",
		Solution:    TrialSolution,
	},
	"sin-x": {
		Name:        "sin-x",
		Description: "sin(pi x) on the identity metric",
		Geometry:    "slab",
		Solution:    "sin(x*pi)",
	},
	"sin-x-metric": {
		Name:        "sin-x-metric",
		Description: "sin(pi x) with a constant non-orthogonal metric and radially varying g11",
		Geometry:    "slab",
		Solution:    "sin(x*pi)",
		Metric: map[string]string{
			"g11": "2 + 0.01*x",
			"g22": "5",
			"g33": "3",
			"g12": "0.7",
			"g13": "0.1",
			"g23": "0.4",
		},
	},
}

// GetScenario returns a copy of the named built-in.
func GetScenario(name string) (*Scenario, error) {
	sc, ok := builtins[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (have %s)", ErrUnknownScenario, name, strings.Join(ScenarioNames(), ", "))
	}
	return sc.Clone(), nil
}

// ScenarioNames lists the built-ins in sorted order.
func ScenarioNames() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
