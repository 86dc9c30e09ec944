package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/wippyai/jbridge/reflection"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [class...]",
	Short: "List the public members of classes",
	Long:  "inspect resolves each class and prints its constructors, methods and fields. Without arguments it lists the demo classes.",
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		for _, name := range demoClasses() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	}

	s, err := open()
	if err != nil {
		return err
	}
	defer s.Close()

	for i, name := range args {
		c, err := s.b.ImportClass(name)
		if err != nil {
			return err
		}
		if i > 0 {
			fmt.Fprintln(cmd.OutOrStdout())
		}
		fmt.Fprint(cmd.OutOrStdout(), describe(c.Descriptor(), isTerminal()))
	}
	return nil
}

// describe lists a descriptor's members, one per line, with the host
// accessor names of each method.
func describe(d *reflection.ClassDescriptor, color bool) string {
	style := func(s lipgloss.Style, text string) string {
		if !color {
			return text
		}
		return s.Render(text)
	}

	var b strings.Builder
	b.WriteString(style(titleStyle, d.Name))
	b.WriteString("\n")

	for _, c := range d.Constructors {
		b.WriteString("  " + style(funcStyle, c.String()) + "\n")
	}
	methods := func(names []string, byName map[string][]*reflection.Method) {
		for _, name := range names {
			sync, async := d.AccessorNames(name)
			for _, m := range byName[name] {
				b.WriteString("  " + style(funcStyle, m.String()))
				b.WriteString(style(helpStyle, fmt.Sprintf("  [%s | %s]", sync, async)) + "\n")
			}
		}
	}
	methods(d.StaticMethodNames(), d.StaticMethods)
	methods(d.MethodNames(), d.Methods)

	for _, name := range d.StaticFieldNames() {
		b.WriteString("  " + style(typeStyle, d.StaticFields[name].String()) + "\n")
	}
	for _, name := range d.FieldNames() {
		b.WriteString("  " + style(typeStyle, d.Fields[name].String()) + "\n")
	}
	return b.String()
}
