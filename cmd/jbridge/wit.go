package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wippyai/jbridge/reflection"
	"github.com/wippyai/jbridge/witgen"
)

var (
	witPackage string
	witOutput  string
)

var witCmd = &cobra.Command{
	Use:   "wit <class...>",
	Short: "Render classes as WIT interfaces",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runWIT,
}

func init() {
	witCmd.Flags().StringVarP(&witPackage, "package", "p", witgen.DefaultPackage, "WIT package name")
	witCmd.Flags().StringVarP(&witOutput, "output", "o", "", "Write to this file instead of stdout")
	rootCmd.AddCommand(witCmd)
}

func runWIT(cmd *cobra.Command, args []string) error {
	s, err := open()
	if err != nil {
		return err
	}
	defer s.Close()

	descs := make([]*reflection.ClassDescriptor, 0, len(args))
	for _, name := range args {
		c, err := s.b.ImportClass(name)
		if err != nil {
			return err
		}
		descs = append(descs, c.Descriptor())
	}

	out := witgen.Generate(witPackage, descs...)
	if witOutput == "" {
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	}
	if err := os.WriteFile(witOutput, []byte(out), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", witOutput, err)
	}
	return nil
}
