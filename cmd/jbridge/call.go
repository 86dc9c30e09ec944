package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wippyai/jbridge/bridge"
)

var (
	callCtorArgs []string
	callStats    bool
	callField    bool
)

var callCmd = &cobra.Command{
	Use:   "call <class> <member> [args...]",
	Short: "Call a method or read a field",
	Long: `call invokes a static method, or an instance method when --new is given.
Arguments are parsed as null, true, false, numbers, [a,b] lists or strings.`,
	Example: `  jbridge call demo.Numbers twice 21
  jbridge call demo.Greeter join '[a,b]' -
  jbridge call --new World demo.Greeter greet you`,
	Args: cobra.MinimumNArgs(2),
	RunE: runCall,
}

func init() {
	callCmd.Flags().StringArrayVar(&callCtorArgs, "new", nil, "Construct an instance with these arguments and call an instance member")
	callCmd.Flags().BoolVar(&callField, "field", false, "Read the member as a field")
	callCmd.Flags().BoolVar(&callStats, "stats", false, "Print reference accounting after the call")
	rootCmd.AddCommand(callCmd)
}

func runCall(cmd *cobra.Command, args []string) error {
	s, err := open()
	if err != nil {
		return err
	}
	defer s.Close()

	class, member := args[0], args[1]
	in := make([]any, len(args)-2)
	for i, a := range args[2:] {
		in[i] = parseArg(a)
	}

	c, err := s.b.ImportClass(class)
	if err != nil {
		return err
	}

	var v any
	if cmd.Flags().Changed("new") {
		ctor := make([]any, len(callCtorArgs))
		for i, a := range callCtorArgs {
			ctor[i] = parseArg(a)
		}
		inst, err := c.New(ctor...)
		if err != nil {
			return err
		}
		defer inst.Release()
		v, err = invoke(inst, member, in)
		if err != nil {
			return err
		}
	} else {
		v, err = invoke(c, member, in)
		if err != nil {
			return err
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), format(v))
	if inst, ok := v.(*bridge.Instance); ok {
		inst.Release()
	}

	if callStats {
		st := s.rt.Stats()
		fmt.Fprintf(cmd.OutOrStdout(), "locals: created %d, freed %d, live %d\nglobals: created %d, freed %d, live %d\n",
			st.LocalsCreated, st.LocalsFreed+st.LocalsFrameFreed, st.LiveLocals,
			st.GlobalsCreated, st.GlobalsFreed, st.LiveGlobals)
	}
	return nil
}

type member interface {
	Call(name string, args ...any) (any, error)
	Get(name string) (any, error)
}

func invoke(m member, name string, args []any) (any, error) {
	if callField {
		return m.Get(name)
	}
	return m.Call(name, args...)
}
