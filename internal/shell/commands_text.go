package shell

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

const defaultLineCount = 10

func echo(cmd *Command, _ State, _ Setter) (Result, error) {
	return Text(strings.Join(cmd.Args, " ")), nil
}

func grep(cmd *Command, st State, _ Setter) (Result, error) {
	if len(cmd.Args) < 2 {
		return Errorf("grep: pattern and file required"), nil
	}
	pattern, file := cmd.Args[0], cmd.Args[1]
	if cmd.HasOption("i") {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Result{}, err
	}
	content, ok := st.readFile(file)
	if !ok {
		return Errorf("grep: %s: No such file", file), nil
	}

	numbered := cmd.HasOption("n")
	var out []string
	for i, line := range splitLines(content) {
		if !re.MatchString(line) {
			continue
		}
		if numbered {
			line = strconv.Itoa(i+1) + ":" + line
		}
		out = append(out, line)
	}
	return Text(strings.Join(out, "\n")), nil
}

func head(cmd *Command, st State, _ Setter) (Result, error) {
	return window(cmd, st, func(lines []string, n int) []string {
		if n < len(lines) {
			return lines[:n]
		}
		return lines
	})
}

func tail(cmd *Command, st State, _ Setter) (Result, error) {
	return window(cmd, st, func(lines []string, n int) []string {
		if n < len(lines) {
			return lines[len(lines)-n:]
		}
		return lines
	})
}

func window(cmd *Command, st State, pick func([]string, int) []string) (Result, error) {
	n, file := lineCount(cmd)
	if file == "" {
		return Errorf("%s: missing file operand", cmd.Name), nil
	}
	content, ok := st.readFile(file)
	if !ok {
		return Errorf("%s: cannot open '%s' for reading: No such file or directory", cmd.Name, file), nil
	}
	return Text(strings.Join(pick(splitLines(content), n), "\n")), nil
}

// lineCount reads N from -nN, -n N or -N. Options arrive flattened, so -n20
// shows up as "n", "2", "0".
func lineCount(cmd *Command) (int, string) {
	file := cmd.Arg(0)
	sawN := false
	var digits strings.Builder
	for _, o := range cmd.Options {
		switch {
		case o == "n" || o == "lines":
			sawN = true
		case isDigits(o):
			digits.WriteString(o)
		}
	}
	if digits.Len() > 0 {
		n, _ := strconv.Atoi(digits.String())
		return n, file
	}
	if sawN && len(cmd.Args) > 1 && isDigits(cmd.Args[0]) {
		n, _ := strconv.Atoi(cmd.Args[0])
		return n, cmd.Args[1]
	}
	return defaultLineCount, file
}

func wc(cmd *Command, st State, _ Setter) (Result, error) {
	file := cmd.Arg(0)
	if file == "" {
		return Errorf("wc: missing file operand"), nil
	}
	content, ok := st.readFile(file)
	if !ok {
		return Errorf("wc: %s: No such file or directory", file), nil
	}

	lines := 0
	if content != "" {
		lines = len(splitLines(content))
	}
	words := len(strings.Fields(content))
	chars := utf8.RuneCountInString(content)

	switch {
	case cmd.HasOption("l"):
		return Text(strconv.Itoa(lines)), nil
	case cmd.HasOption("w"):
		return Text(strconv.Itoa(words)), nil
	case cmd.HasOption("c") || cmd.HasOption("m"):
		return Text(strconv.Itoa(chars)), nil
	}
	return Text(fmt.Sprintf("%d %d %d %s", lines, words, chars, file)), nil
}

func sortLines(cmd *Command, st State, _ Setter) (Result, error) {
	file := cmd.Arg(0)
	content, ok := st.readFile(file)
	if !ok {
		return Errorf("sort: cannot read: %s: No such file or directory", file), nil
	}
	var lines []string
	for _, l := range splitLines(content) {
		if l != "" {
			lines = append(lines, l)
		}
	}
	if cmd.HasOption("r") {
		sort.Sort(sort.Reverse(sort.StringSlice(lines)))
	} else {
		sort.Strings(lines)
	}
	return Text(strings.Join(lines, "\n")), nil
}

func uniq(cmd *Command, st State, _ Setter) (Result, error) {
	file := cmd.Arg(0)
	content, ok := st.readFile(file)
	if !ok {
		return Errorf("uniq: %s: No such file or directory", file), nil
	}
	seen := make(map[string]bool)
	var lines []string
	for _, l := range splitLines(content) {
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		lines = append(lines, l)
	}
	return Text(strings.Join(lines, "\n")), nil
}

// splitLines splits content on newlines, ignoring one trailing newline.
func splitLines(content string) []string {
	return strings.Split(strings.TrimSuffix(content, "\n"), "\n")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
