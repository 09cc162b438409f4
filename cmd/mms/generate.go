package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/njchilds90/mms/driver"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type generateOptions struct {
	file         string
	geometry     string
	solution     string
	sets         []string
	format       string
	verify       bool
	noFirstOrder bool
	perp         bool
	show         bool
}

var genOpts generateOptions

var generateCmd = &cobra.Command{
	Use:   "generate [scenario]",
	Short: "Derive the forcing term of a scenario",
	Long: `Derive input = Delp2(solution) for a built-in scenario (default laplace3d)
or a YAML scenario file, optionally overriding the geometry, the trial
solution or individual metric components.

Example file:
########################################
name: custom
geometry: shaped-tokamak
solution: sin(x*pi)*cos(z)
metric:
  g11: 2 + 0.01*x
operator:
  perpendicular: false
########################################`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, err := genOpts.scenario(cmd, args)
		if err != nil {
			return err
		}
		if genOpts.show {
			sc.Print(cmd.ErrOrStderr())
		}
		return generate(sc, viper.GetString("format"), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	f := generateCmd.Flags()
	f.StringVarP(&genOpts.file, "file", "F", "", "YAML scenario file")
	f.StringVarP(&genOpts.geometry, "geometry", "g", "", "geometry preset, replaces the scenario's")
	f.StringVarP(&genOpts.solution, "solution", "s", "", "trial solution, replaces the scenario's")
	f.StringArrayVar(&genOpts.sets, "set", nil, "metric override component=expr (repeatable), e.g. --set 'g11=2 + 0.01*x'")
	f.StringVarP(&genOpts.format, "format", "o", "text", "output format: text or yaml")
	f.BoolVar(&genOpts.verify, "verify", false, "check the serialized round trip and metric positivity")
	f.BoolVar(&genOpts.noFirstOrder, "no-first-order", false, "drop the first-derivative terms")
	f.BoolVar(&genOpts.perp, "perp", false, "perpendicular (x-z) operator only")
	f.BoolVar(&genOpts.show, "show", false, "print the scenario to stderr before running")
	_ = viper.BindPFlag("format", f.Lookup("format"))
	_ = viper.BindPFlag("verify", f.Lookup("verify"))
}

// scenario resolves the base scenario and applies command-line overrides.
func (o *generateOptions) scenario(cmd *cobra.Command, args []string) (*driver.Scenario, error) {
	var (
		sc  *driver.Scenario
		err error
	)
	switch {
	case o.file != "" && len(args) > 0:
		return nil, fmt.Errorf("give either a scenario name or --file, not both")
	case o.file != "":
		sc, err = driver.Load(o.file)
	case len(args) > 0:
		sc, err = driver.GetScenario(args[0])
	default:
		sc, err = driver.GetScenario("laplace3d")
	}
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("geometry") {
		sc.Geometry = o.geometry
	}
	if flags.Changed("solution") {
		sc.Solution = o.solution
	}
	if len(o.sets) > 0 && sc.Metric == nil {
		sc.Metric = map[string]string{}
	}
	for _, kv := range o.sets {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("--set %q: want component=expr", kv)
		}
		sc.Metric[strings.TrimSpace(k)] = v
	}
	if flags.Changed("no-first-order") {
		sc.Operator.NoFirstOrder = o.noFirstOrder
	}
	if flags.Changed("perp") {
		sc.Operator.Perpendicular = o.perp
	}
	if viper.GetBool("verify") {
		sc.Verify = true
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

func generate(sc *driver.Scenario, format string, w io.Writer) error {
	r, err := driver.Generate(sc)
	if err != nil {
		return err
	}
	switch strings.ToLower(format) {
	case "", "text":
		return r.WriteText(w)
	case "yaml", "yml":
		return r.WriteYAML(w)
	}
	return fmt.Errorf("unknown format %q (text, yaml)", format)
}
