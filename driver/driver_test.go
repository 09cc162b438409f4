package driver

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/njchilds90/mms"
	"github.com/njchilds90/mms/geometry"
	"github.com/njchilds90/mms/metric"
	"github.com/njchilds90/mms/operator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestRunSinX(t *testing.T) {
	sc, err := GetScenario("sin-x")
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, Run(sc, &buf))

	want := strings.Join([]string{
		"solution = sin(pi*x)",
		"input = -pi*pi*sin(pi*x)",
		"[mesh]",
		"nx = 36",
		"ny = 32",
		"nz = 32",
		"xmin = 0",
		"xmax = 1",
		"ymin = 0",
		"ymax = 2*pi",
		"zmin = 0",
		"zmax = 2*pi",
		"g11 = 1",
		"g22 = 1",
		"g33 = 1",
		"g12 = 0",
		"g13 = 0",
		"g23 = 0",
		"G1 = 0",
		"G2 = 0",
		"G3 = 0",
	}, "\n") + "\n"
	assert.Equal(t, want, buf.String())
}

func TestRunSinXMetric(t *testing.T) {
	sc, err := GetScenario("sin-x-metric")
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, Run(sc, &buf))
	out := buf.String()

	assert.Contains(t, out, "input = -(0.01*x + 2)*pi*pi*sin(pi*x) + 0.01*cos(pi*x)*pi\n")
	assert.Contains(t, out, "\ng11 = 0.01*x + 2\n")
	assert.Contains(t, out, "\ng12 = 0.7\n")
	assert.Contains(t, out, "\ng23 = 0.4\n")
	assert.True(t, strings.HasSuffix(out, "\nG1 = 0.01\nG2 = 0\nG3 = 0\n"), out)

	// The preset itself is untouched.
	geo, err := geometry.Lookup("slab")
	require.NoError(t, err)
	g11, err := geo.Metric().Get("g11")
	require.NoError(t, err)
	assert.True(t, g11.Equal(mms.N(1)))
}

func TestLaplace3dVerifies(t *testing.T) {
	for _, name := range []string{"laplace3d", "laplace3d-shaped"} {
		t.Run(name, func(t *testing.T) {
			sc, err := GetScenario(name)
			require.NoError(t, err)
			sc.Verify = true
			r, err := Generate(sc)
			require.NoError(t, err)
			assert.Equal(t, "exp(sin(3*z))*sin(pi*x) + log(sin(z + 1.7) + 2)*tan(sin(2*pi*x))", r.SolutionText)
			assert.True(t, r.Metric.HasJacobian())
		})
	}
}

func TestGenerateMatchesOperator(t *testing.T) {
	sc, err := GetScenario("laplace3d")
	require.NoError(t, err)
	sc.Operator = OperatorOptions{NoFirstOrder: true, Perpendicular: true}
	r, err := Generate(sc)
	require.NoError(t, err)

	geo, err := geometry.Lookup("simple-tokamak")
	require.NoError(t, err)
	want, err := operator.Delp2(mms.MustParse(TrialSolution), geo.Metric(),
		operator.WithoutFirstOrderTerms(), operator.Perpendicular())
	require.NoError(t, err)
	assert.Equal(t, mms.MustSerialize(want), r.InputText)
}

func TestGetScenarioIsCopy(t *testing.T) {
	sc, err := GetScenario("sin-x-metric")
	require.NoError(t, err)
	sc.Metric["g11"] = "7"
	sc.Solution = "x"

	again, err := GetScenario("sin-x-metric")
	require.NoError(t, err)
	assert.Equal(t, "2 + 0.01*x", again.Metric["g11"])
	assert.Equal(t, "sin(x*pi)", again.Solution)

	_, err = GetScenario("laplace2d")
	assert.ErrorIs(t, err, ErrUnknownScenario)
	assert.Equal(t, []string{"laplace3d", "laplace3d-shaped", "sin-x", "sin-x-metric"}, ScenarioNames())
}

func TestApplyOverrides(t *testing.T) {
	g := metric.New()
	require.NoError(t, ApplyOverrides(g, map[string]string{"g13": "x*z", "J": "2"}))
	g13, err := g.Get("g13")
	require.NoError(t, err)
	assert.Equal(t, "x*z", mms.MustSerialize(g13))
	assert.True(t, g.Jacobian().Equal(mms.N(2)))

	assert.ErrorIs(t, ApplyOverrides(metric.New(), map[string]string{"g21": "1"}), metric.ErrUnknownComponent)
	assert.ErrorIs(t, ApplyOverrides(metric.New(), map[string]string{"g11": "2 +"}), mms.ErrParse)
}

func TestGenerateErrors(t *testing.T) {
	_, err := Generate(&Scenario{Geometry: "torus", Solution: "x"})
	assert.ErrorIs(t, err, geometry.ErrUnknownGeometry)

	_, err = Generate(&Scenario{Geometry: "slab", Solution: "sin(x"})
	assert.ErrorIs(t, err, mms.ErrParse)

	_, err = Generate(&Scenario{Geometry: "slab", Solution: "sin(psi*x)"})
	assert.ErrorIs(t, err, operator.ErrNonScalarInput)

	_, err = Generate(&Scenario{Geometry: "slab", Solution: "x", Metric: map[string]string{"g32": "1"}})
	assert.ErrorIs(t, err, metric.ErrUnknownComponent)

	var buf bytes.Buffer
	err = Run(&Scenario{Geometry: "slab", Solution: "sin(x*pi)", Metric: map[string]string{"g12": "10"}, Verify: true}, &buf)
	assert.ErrorIs(t, err, ErrVerification)
	assert.ErrorIs(t, err, metric.ErrNotPositiveDefinite)
	assert.Zero(t, buf.Len())
}

func TestVerifyDetectsMismatch(t *testing.T) {
	sc, err := GetScenario("sin-x")
	require.NoError(t, err)
	r, err := Generate(sc)
	require.NoError(t, err)
	require.NoError(t, Verify(r, DefaultVerifyPoints))

	r.InputText = "-pi*pi*sin(pi*x) + 1e-6"
	assert.ErrorIs(t, Verify(r, DefaultVerifyPoints), ErrVerification)

	r.InputText = "-pi*pi*sin(pi*x"
	assert.ErrorIs(t, Verify(r, DefaultVerifyPoints), mms.ErrParse)

	r.InputText = "-pi*pi*sin(pi*x)"
	r.CoefficientTexts[0] = "0.5"
	assert.ErrorIs(t, Verify(r, DefaultVerifyPoints), ErrVerification)

	r.CoefficientTexts[0] = "0"
	require.NoError(t, Verify(r, DefaultVerifyPoints))
	assert.ErrorIs(t, Verify(r, 0), geometry.ErrSampleCount)
	assert.ErrorIs(t, Verify(r, -1), geometry.ErrSampleCount)
}

func TestVerifyJacobian(t *testing.T) {
	// g11 = 4 implies J = 1/2.
	sc := &Scenario{Geometry: "slab", Solution: "sin(x*pi)", Verify: true,
		Metric: map[string]string{"g11": "4", "J": "0.5"}}
	r, err := Generate(sc)
	require.NoError(t, err)
	assert.Equal(t, "0", r.CoefficientTexts[0])

	sc.Metric["J"] = "2"
	var buf bytes.Buffer
	err = Run(sc, &buf)
	assert.ErrorIs(t, err, ErrVerification)
	assert.Contains(t, err.Error(), "det g")
	assert.Zero(t, buf.Len())

	// Without verification the disagreeing J is still used.
	sc.Verify = false
	r, err = Generate(sc)
	require.NoError(t, err)
	assert.True(t, r.Metric.Jacobian().Equal(mms.N(2)))
}

func TestScenarioParseAndLoad(t *testing.T) {
	data := []byte(`
name: custom
geometry: ShapedTokamak
solution: sin(x*pi)*cos(z)
metric:
  g11: "1 + x"
  J: "1"
operator:
  perpendicular: true
`)
	var sc Scenario
	require.NoError(t, sc.Parse(data))
	assert.Equal(t, "custom", sc.Name)
	assert.Equal(t, "1 + x", sc.Metric["g11"])
	assert.True(t, sc.Operator.Perpendicular)
	assert.False(t, sc.Operator.NoFirstOrder)

	out, err := sc.Marshal()
	require.NoError(t, err)
	var back Scenario
	require.NoError(t, back.Parse(out))
	assert.Equal(t, sc, back)

	path := filepath.Join(t.TempDir(), "mine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("solution: x*y\n"), 0o644))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mine", loaded.Name)
	assert.Equal(t, "slab", loaded.Geometry)

	assert.Error(t, new(Scenario).Parse([]byte("geometry: slab\n")))
	assert.ErrorIs(t, new(Scenario).Parse([]byte("solution: x\ngeometry: slab\nmetric: {g31: \"1\"}\n")), metric.ErrUnknownComponent)
}

func TestScenarioPrint(t *testing.T) {
	sc, err := GetScenario("sin-x-metric")
	require.NoError(t, err)
	var buf bytes.Buffer
	sc.Print(&buf)
	out := buf.String()
	assert.Contains(t, out, "\"sin-x-metric\"")
	assert.Contains(t, out, "Metric[g11] = 2 + 0.01*x\n")
	assert.Less(t, strings.Index(out, "Metric[g11]"), strings.Index(out, "Metric[g22]"))
}

func TestWriteYAML(t *testing.T) {
	sc, err := GetScenario("sin-x-metric")
	require.NoError(t, err)
	r, err := Generate(sc)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, r.WriteYAML(&buf))

	var doc struct {
		Scenario string            `yaml:"scenario"`
		Geometry string            `yaml:"geometry"`
		Solution string            `yaml:"solution"`
		Input    string            `yaml:"input"`
		Mesh     struct {
			Nx   int    `yaml:"nx"`
			YMax string `yaml:"ymax"`
		} `yaml:"mesh"`
		Metric map[string]string `yaml:"metric"`
		G      map[string]string `yaml:"coefficients"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "sin-x-metric", doc.Scenario)
	assert.Equal(t, "slab", doc.Geometry)
	assert.Equal(t, r.InputText, doc.Input)
	assert.Equal(t, 36, doc.Mesh.Nx)
	assert.Equal(t, "2*pi", doc.Mesh.YMax)
	assert.Equal(t, "0.01*x + 2", doc.Metric["g11"])
	assert.Len(t, doc.Metric, 6)
	assert.Equal(t, map[string]string{"G1": "0.01", "G2": "0", "G3": "0"}, doc.G)
}
