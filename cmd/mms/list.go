package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/njchilds90/mms/driver"
	"github.com/njchilds90/mms/geometry"
	"github.com/spf13/cobra"
)

var titleStyle = lipgloss.NewStyle().Bold(true)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios [name]",
	Short: "List built-in scenarios, or print one as YAML",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			sc, err := driver.GetScenario(args[0])
			if err != nil {
				return err
			}
			data, err := sc.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		return listScenarios(cmd.OutOrStdout())
	},
}

var geometriesCmd = &cobra.Command{
	Use:   "geometries",
	Short: "List geometry presets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listGeometries(cmd.OutOrStdout())
	},
}

var meshCmd = &cobra.Command{
	Use:   "mesh [geometry]",
	Short: "Print the [mesh] section of a geometry preset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		geo, err := geometry.Lookup(args[0])
		if err != nil {
			return err
		}
		return geo.PrintMesh(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(scenariosCmd, geometriesCmd, meshCmd)
}

func listScenarios(out io.Writer) error {
	fmt.Fprintln(out, titleStyle.Render("Scenarios"))
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tGEOMETRY\tDESCRIPTION")
	for _, name := range driver.ScenarioNames() {
		sc, err := driver.GetScenario(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", sc.Name, sc.Geometry, sc.Description)
	}
	return w.Flush()
}

func listGeometries(out io.Writer) error {
	fmt.Fprintln(out, titleStyle.Render("Geometries"))
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tNX\tNY\tNZ\tJACOBIAN")
	for _, name := range geometry.Names() {
		geo, err := geometry.Lookup(name)
		if err != nil {
			return err
		}
		m := geo.Mesh()
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%v\n", name, m.Nx, m.Ny, m.Nz, geo.Metric().HasJacobian())
	}
	return w.Flush()
}
