package shell

import (
	"fmt"
	"strings"
)

// Placeholder object names printed by the simulated git.
const (
	gitHash      = "a1b2c3d4e5f60718293a4b5c6d7e8f9012345678"
	gitShortHash = "a1b2c3d"
	gitLogLayout = "Mon Jan 2 15:04:05 2006 -0700"
)

const gitUsage = `usage: git [--version] [--help] <command> [<args>]

These are common Git commands:
   init       Create an empty Git repository
   add        Add file contents to the index
   status     Show the working tree status
   commit     Record changes to the repository
   log        Show commit logs
   push       Update remote refs along with associated objects`

// git answers a handful of subcommands with canned output. Nothing in the
// tree changes.
func (e *Executor) git(cmd *Command, st State, _ Setter) (Result, error) {
	if len(cmd.Args) == 0 {
		return Text(gitUsage), nil
	}

	switch sub := cmd.Args[0]; sub {
	case "init":
		return Text(fmt.Sprintf("Initialized empty Git repository in %s/.git/", strings.TrimSuffix(st.Cwd, "/"))), nil

	case "add":
		if len(cmd.Args) < 2 {
			return Text("Nothing specified, nothing added.\nhint: Maybe you wanted to say 'git add .'?"), nil
		}
		return Text(""), nil

	case "status":
		return Text("On branch main\nYour branch is up to date with 'origin/main'.\n\nnothing to commit, working tree clean"), nil

	case "commit":
		if !cmd.HasOption("m") {
			return Errorf("Aborting commit due to empty commit message."), nil
		}
		if len(cmd.Args) < 2 {
			return Errorf("error: switch `m' requires a value"), nil
		}
		msg := strings.Join(cmd.Args[1:], " ")
		return Text(fmt.Sprintf("[main %s] %s\n 1 file changed, 1 insertion(+)", gitShortHash, msg)), nil

	case "push":
		return Text(strings.Join([]string{
			"Enumerating objects: 5, done.",
			"Counting objects: 100% (5/5), done.",
			"Writing objects: 100% (3/3), 312 bytes | 312.00 KiB/s, done.",
			"Total 3 (delta 1), reused 0 (delta 0)",
			"To github.com:" + st.User + "/project.git",
			"   0f1e2d3.." + gitShortHash + "  main -> main",
		}, "\n")), nil

	case "log":
		return Text(fmt.Sprintf("commit %s (HEAD -> main, origin/main)\nAuthor: %s <%s@localhost>\nDate:   %s\n\n    Initial commit",
			gitHash, st.User, st.User, e.now().Format(gitLogLayout))), nil

	default:
		return Errorf("git: '%s' is not a git command. See 'git --help'.", sub), nil
	}
}
