// Command mms derives manufactured solutions: it applies Delp2 to a trial
// solution under a geometry's metric and prints
//
//	solution = <expr>
//	input = <expr>
//	[mesh]
//	...
//
// Usage:
//
//	mms generate laplace3d
//	mms generate --geometry slab --solution 'sin(x*pi)' --set g11='2 + 0.01*x'
//	mms scenarios
//	mms geometries
//	mms mesh shaped-tokamak
package main

import (
	"fmt"
	"os"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile     string
	profileMode string
	prof        interface{ Stop() }
)

var rootCmd = &cobra.Command{
	Use:           "mms",
	Short:         "Manufactured solutions for the curvilinear Laplacian",
	Long:          `Derives the forcing term input = Delp2(solution) for a trial solution under a geometry's metric tensor and prints both in a re-parseable form.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch strings.ToLower(profileMode) {
		case "":
		case "cpu":
			prof = profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.Quiet)
		case "mem":
			prof = profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.Quiet)
		default:
			return fmt.Errorf("unknown profile mode %q (cpu, mem)", profileMode)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		stopProfile()
	},
}

func stopProfile() {
	if prof != nil {
		prof.Stop()
		prof = nil
	}
}

// run executes the root command. Cobra skips PersistentPostRun when RunE
// fails, so the profile is flushed here as well.
func run() error {
	err := rootCmd.Execute()
	stopProfile()
	return err
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.mms.yaml)")
	rootCmd.PersistentFlags().StringVar(&profileMode, "profile", "", "write a cpu or mem profile to the working directory")
}

// initConfig reads the config file and MMS_* environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".mms")
	}
	viper.SetEnvPrefix("mms")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
