package cli

import (
	"fmt"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/bitminerobotics/platform/internal/verify"
)

const (
	rootFlag   = "root"
	configFlag = "config"
)

func newVerifyCommand() *cobra.Command {
	flags := map[string]cobraflags.Flag{
		rootFlag: &cobraflags.StringFlag{
			Name:  rootFlag,
			Value: ".",
			Usage: "Repository root the checked files are relative to",
		},
		configFlag: &cobraflags.StringFlag{
			Name:  configFlag,
			Usage: "YAML file with a checks list replacing the built-in checks",
		},
	}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that source files contain the expected routes and handlers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			checks := verify.DefaultChecks()

			if path := flags[configFlag].GetString(); path != "" {
				loaded, err := verify.LoadChecks(path)
				if err != nil {
					return err
				}
				checks = loaded
			}

			s := verify.Run(flags[rootFlag].GetString(), checks, cmd.OutOrStdout())
			if s.Failed() > 0 {
				return fmt.Errorf("verify: %d check(s) failed", s.Failed())
			}
			return nil
		},
	}

	cobraflags.RegisterMap(cmd, flags)
	return cmd
}
