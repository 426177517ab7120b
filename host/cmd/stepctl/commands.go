package main

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/shlex"
	"github.com/spf13/cobra"

	"gostep/standalone/command"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "stepctl",
		Short:         "Drive stepper motors through a pin expander or GPIO board",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.setupLogging()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", a.configPath, "board configuration file (env "+configEnv+")")
	root.PersistentFlags().StringVar(&a.backend, "backend", a.backend, "override the configured backend (pca9685, rpio, serialgpio)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", a.verbose, "log sequencer events")

	root.AddCommand(
		newStepCmd(a),
		newBeepCmd(a),
		newSleepCmd(a),
		newWakeCmd(a),
		newZeroCmd(a),
		newStatusCmd(a),
		newShellCmd(a),
	)

	return root
}

func newStepCmd(a *app) *cobra.Command {
	var sps int
	var sleepAfter bool
	cmd := &cobra.Command{
		Use:   "step MOTOR STEPS",
		Short: "Move a motor by a signed number of steps",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("steps: %w", err)
			}
			mgr, err := a.manager()
			if err != nil {
				return err
			}
			count, err := mgr.Step(cmd.Context(), args[0], steps, sps, sleepAfter)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d\n", args[0], count)
			return nil
		},
	}
	cmd.Flags().IntVar(&sps, "sps", 0, "steps per second (0 for the motor default)")
	cmd.Flags().BoolVar(&sleepAfter, "sleep", false, "release the outputs afterwards")
	return cmd
}

func newBeepCmd(a *app) *cobra.Command {
	var freq, ms, pause int
	var sleepAfter bool
	cmd := &cobra.Command{
		Use:   "beep MOTOR",
		Short: "Vibrate a step/direction motor at an audible frequency",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := a.manager()
			if err != nil {
				return err
			}
			_, err = mgr.Beep(cmd.Context(), args[0], freq, ms, pause, sleepAfter)
			return err
		},
	}
	cmd.Flags().IntVar(&freq, "freq", command.DefaultBeepFrequency, "frequency in Hz")
	cmd.Flags().IntVar(&ms, "ms", command.DefaultBeepMs, "duration in milliseconds")
	cmd.Flags().IntVar(&pause, "pause", 0, "silence afterwards in milliseconds")
	cmd.Flags().BoolVar(&sleepAfter, "sleep", false, "release the outputs afterwards")
	return cmd
}

func newSleepCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sleep MOTOR...",
		Short: "Release motor outputs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := a.manager()
			if err != nil {
				return err
			}
			for _, name := range args {
				if err := mgr.Sleep(name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newWakeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "wake MOTOR...",
		Short: "Energize motor outputs at the current phase",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := a.manager()
			if err != nil {
				return err
			}
			for _, name := range args {
				if err := mgr.Wake(name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newZeroCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "zero MOTOR...",
		Short: "Reset step counters",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := a.manager()
			if err != nil {
				return err
			}
			for _, name := range args {
				if err := mgr.Zero(name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show step counts and output state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := a.manager()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), command.FormatStatus(mgr.Status()))
			return nil
		},
	}
}

func newShellCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive session; accepts subcommands or STEP/MOVE/BEEP protocol lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.manager(); err != nil {
				return err
			}
			return runShell(cmd.Context(), a, cmd)
		},
	}
}

// runShell reads lines until EOF or "quit". Lines starting with a known
// subcommand run through a fresh command tree sharing the open board;
// anything else is handed to the text command interpreter.
func runShell(ctx context.Context, a *app, cmd *cobra.Command) error {
	in := bufio.NewScanner(cmd.InOrStdin())
	out := cmd.OutOrStdout()
	mgr := a.mgr

	for {
		fmt.Fprint(out, "> ")
		if !in.Scan() {
			break
		}
		args, err := shlex.Split(in.Text())
		if err != nil {
			fmt.Fprintf(out, "!! %v\n", err)
			continue
		}
		if len(args) == 0 {
			continue
		}

		switch args[0] {
		case "quit", "exit":
			return nil
		case "shell":
			fmt.Fprintln(out, "!! already in a shell")
			continue
		}

		if isSubcommand(cmd.Root(), args[0]) {
			sub := newRootCmd(a)
			sub.SetArgs(args)
			sub.SetOut(out)
			sub.SetErr(out)
			if err := sub.ExecuteContext(ctx); err != nil {
				fmt.Fprintf(out, "!! %v\n", err)
			}
			continue
		}

		// Ctrl-C stops the running protocol command and ends the shell
		stop := context.AfterFunc(ctx, mgr.Stop)
		mgr.ProcessLine(strings.Join(args, " "))
		stop()
		out.Write(mgr.GetOutput())
		a.dumpEvents()
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return in.Err()
}

func isSubcommand(root *cobra.Command, name string) bool {
	for _, c := range root.Commands() {
		if c.Name() == name || c.HasAlias(name) {
			return true
		}
	}
	return false
}
