package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"vterm/internal/app"
	"vterm/internal/config"
	"vterm/internal/patch"
)

func newExecCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exec [line...]",
		Short: "Run shell lines without the terminal UI",
		Long: `Run each argument as one shell line against the saved session, or read
lines from stdin when no arguments are given. Control results such as
clear are printed as their sentinel.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer w.Close()

			lines := args
			if len(lines) == 0 {
				if lines, err = readLines(cmd.InOrStdin()); err != nil {
					return err
				}
			}
			out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
			for _, line := range lines {
				res, err := w.Submit(cmd.Context(), line)
				if err != nil {
					return err
				}
				text := res.String()
				if text == "" {
					continue
				}
				if res.Err {
					fmt.Fprintln(errOut, text)
				} else {
					fmt.Fprintln(out, text)
				}
			}
			return nil
		},
	}
}

func newPatchCmd() *cobra.Command {
	var apply bool
	cmd := &cobra.Command{
		Use:   "patch [file|-]",
		Short: "Preview patches from model output",
		Long: `Parse model output from a file, or stdin when the file is - or missing,
and print the proposed patches with a diff against the project. With
--apply every patch is written.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			w, err := openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer w.Close()

			patches := w.Propose(text)
			printPatches(cmd.OutOrStdout(), w, patches)
			if !apply || len(patches) == 0 {
				return nil
			}
			if err := w.AcceptAll(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d patch(es)\n", len(patches))
			return nil
		},
	}
	cmd.Flags().BoolVar(&apply, "apply", false, "write every patch")
	return cmd
}

func newAskCmd() *cobra.Command {
	var apply bool
	cmd := &cobra.Command{
		Use:   "ask <prompt...>",
		Short: "Ask the model for changes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer w.Close()

			if apply {
				w.Config().Patch.AutoExecute = true
			}
			reply, err := w.Ask(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, reply.Text)
			if w.Config().Patch.AutoExecute {
				fmt.Fprintf(out, "applied %d patch(es)\n", len(reply.Patches))
				return nil
			}
			printPatches(out, w, reply.Patches)
			return nil
		},
	}
	cmd.Flags().BoolVar(&apply, "apply", false, "write every proposed patch")
	return cmd
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Forget the saved terminal session",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer w.Close()
			return w.Session().Reset()
		},
	}
}

func newInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfgFile
			if path == "" {
				path = config.GetConfigPath()
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.DefaultConfig().Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func printPatches(out io.Writer, w *app.Workspace, patches []*patch.Patch) {
	if len(patches) == 0 {
		fmt.Fprintln(out, "no patches")
		return
	}
	for _, p := range patches {
		fmt.Fprintln(out, p.String())
		fmt.Fprintln(out, w.Engine().Preview(p))
		fmt.Fprintln(out)
	}
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	var r io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return "", err
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return "", errors.New("no input")
	}
	return string(data), nil
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines, sc.Err()
}
