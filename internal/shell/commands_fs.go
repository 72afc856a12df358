package shell

import (
	"fmt"
	"strings"

	"vterm/internal/vfs"
)

func pwd(_ *Command, st State, _ Setter) (Result, error) {
	return Text(st.Cwd), nil
}

func ls(cmd *Command, st State, _ Setter) (Result, error) {
	target := cmd.Arg(0)
	if target == "" {
		target = "."
	}
	node, _ := st.FS.Resolve(target, st.Cwd)
	if node == nil {
		return Errorf("ls: cannot access '%s': No such file or directory", target), nil
	}
	if !node.IsDir() {
		return Text(node.Name), nil
	}

	all := cmd.HasOption("a")
	names := make([]string, 0, len(node.Children))
	for _, name := range node.Names() {
		if !all && strings.HasPrefix(name, ".") {
			continue
		}
		names = append(names, name)
	}
	if cmd.HasOption("r") {
		for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
			names[i], names[j] = names[j], names[i]
		}
	}

	if !cmd.HasOption("l") {
		return Text(strings.Join(names, "  ")), nil
	}
	lines := make([]string, 0, len(names))
	for _, name := range names {
		child := node.Children[name]
		lines = append(lines, fmt.Sprintf("%s %s %d %s", child.Permissions, child.Owner, child.Size(), name))
	}
	return Text(strings.Join(lines, "\n")), nil
}

func cd(cmd *Command, st State, set Setter) (Result, error) {
	target := cmd.Arg(0)
	if target == "" {
		target = "~"
	}
	node, full := st.FS.Resolve(target, st.Cwd)
	if node == nil {
		return Errorf("cd: %s: No such file or directory", target), nil
	}
	if !node.IsDir() {
		return Errorf("cd: %s: Not a directory", target), nil
	}
	st.Cwd = full
	set(st)
	return Text(""), nil
}

func mkdir(cmd *Command, st State, set Setter) (Result, error) {
	if len(cmd.Args) == 0 {
		return Errorf("mkdir: missing operand"), nil
	}
	parents := cmd.HasOption("p")
	fs := st.FS.Clone()

	var errs []string
	fail := func(p, reason string) {
		errs = append(errs, fmt.Sprintf("mkdir: cannot create directory '%s': %s", p, reason))
	}
	for _, p := range cmd.Args {
		segments := vfs.Normalize(p, st.Cwd)
		if parents {
			if _, ok := fs.MkdirAll(segments, st.User); !ok {
				fail(p, "Not a directory")
			}
			continue
		}
		if len(segments) == 0 {
			fail(p, "File exists")
			continue
		}
		parent := fs.Lookup(segments[:len(segments)-1])
		name := segments[len(segments)-1]
		switch {
		case parent == nil:
			fail(p, "No such file or directory")
		case !parent.IsDir():
			fail(p, "Not a directory")
		case parent.Child(name) != nil:
			fail(p, "File exists")
		default:
			parent.Add(vfs.NewDir(name, st.User, vfs.DirPerm))
		}
	}

	if len(errs) < len(cmd.Args) {
		set(st.withFS(fs))
	}
	return errorLines(errs), nil
}

func rmdir(cmd *Command, st State, set Setter) (Result, error) {
	if len(cmd.Args) == 0 {
		return Errorf("rmdir: missing operand"), nil
	}
	fs := st.FS.Clone()

	type target struct {
		parent *vfs.Node
		name   string
	}
	var (
		targets []target
		errs    []string
	)
	for _, p := range cmd.Args {
		segments := vfs.Normalize(p, st.Cwd)
		node := fs.Lookup(segments)
		reason := ""
		switch {
		case node == nil:
			reason = "No such file or directory"
		case !node.IsDir():
			reason = "Not a directory"
		case len(segments) == 0:
			reason = "Device or resource busy"
		case len(node.Children) > 0:
			reason = "Directory not empty"
		}
		if reason != "" {
			errs = append(errs, fmt.Sprintf("rmdir: failed to remove '%s': %s", p, reason))
			continue
		}
		targets = append(targets, target{fs.Lookup(segments[:len(segments)-1]), segments[len(segments)-1]})
	}
	if len(errs) > 0 {
		return errorLines(errs), nil
	}

	for _, t := range targets {
		t.parent.Remove(t.name)
	}
	set(st.withFS(fs))
	return Text(""), nil
}

func touch(cmd *Command, st State, set Setter) (Result, error) {
	if len(cmd.Args) == 0 {
		return Errorf("touch: missing file operand"), nil
	}
	fs := st.FS.Clone()

	var errs []string
	changed := false
	for _, p := range cmd.Args {
		parent, name, ok := fs.Parent(p, st.Cwd)
		if !ok {
			errs = append(errs, fmt.Sprintf("touch: cannot touch '%s': No such file or directory", p))
			continue
		}
		if parent.Child(name) != nil {
			continue
		}
		parent.Add(vfs.NewFile(name, st.User, vfs.FilePerm, ""))
		changed = true
	}

	if changed {
		set(st.withFS(fs))
	}
	return errorLines(errs), nil
}

func rm(cmd *Command, st State, set Setter) (Result, error) {
	if len(cmd.Args) == 0 {
		return Errorf("rm: missing operand"), nil
	}
	recursive := cmd.HasOption("r") || cmd.HasOption("R") || cmd.HasOption("recursive")
	force := cmd.HasOption("f") || cmd.HasOption("force")
	fs := st.FS.Clone()

	type target struct {
		parent *vfs.Node
		name   string
	}
	var (
		targets []target
		errs    []string
	)
	for _, p := range cmd.Args {
		segments := vfs.Normalize(p, st.Cwd)
		node := fs.Lookup(segments)
		switch {
		case node == nil:
			if !force {
				errs = append(errs, fmt.Sprintf("rm: cannot remove '%s': No such file or directory", p))
			}
		case node.IsDir() && !recursive:
			errs = append(errs, fmt.Sprintf("rm: cannot remove '%s': Is a directory", p))
		case len(segments) == 0:
			errs = append(errs, "rm: it is dangerous to operate recursively on '/'")
		default:
			targets = append(targets, target{fs.Lookup(segments[:len(segments)-1]), segments[len(segments)-1]})
		}
	}
	if len(errs) > 0 {
		return errorLines(errs), nil
	}

	if len(targets) > 0 {
		for _, t := range targets {
			t.parent.Remove(t.name)
		}
		set(st.withFS(fs))
	}
	return Text(""), nil
}

func cat(cmd *Command, st State, _ Setter) (Result, error) {
	if len(cmd.Args) == 0 {
		return Text(""), nil
	}
	parts := make([]string, 0, len(cmd.Args))
	failed := 0
	for _, p := range cmd.Args {
		node, _ := st.FS.Resolve(p, st.Cwd)
		switch {
		case node == nil:
			parts = append(parts, fmt.Sprintf("cat: %s: No such file or directory", p))
			failed++
		case node.IsDir():
			parts = append(parts, fmt.Sprintf("cat: %s: Is a directory", p))
			failed++
		default:
			parts = append(parts, strings.TrimSuffix(node.Content, "\n"))
		}
	}
	res := Text(strings.Join(parts, "\n"))
	res.Err = failed == len(cmd.Args)
	return res, nil
}

// errorLines folds per-target failures into one result; none means success.
func errorLines(errs []string) Result {
	if len(errs) == 0 {
		return Text("")
	}
	return Result{Kind: KindText, Text: strings.Join(errs, "\n"), Err: true}
}
