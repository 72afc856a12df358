package shell

import "strings"

// Redirect is the output redirection mode of a command line.
type Redirect int

const (
	RedirectNone Redirect = iota
	RedirectOverwrite
	RedirectAppend
)

// Command is one parsed input line.
type Command struct {
	Name       string
	Args       []string
	Options    []string
	Redirect   Redirect
	TargetFile string

	// Tokens holds everything after the command name, flags included, in
	// input order.
	Tokens []string
}

// HasOption reports whether flag was given.
func (c *Command) HasOption(flag string) bool {
	for _, o := range c.Options {
		if o == flag {
			return true
		}
	}
	return false
}

// Arg returns the i-th positional argument or "".
func (c *Command) Arg(i int) string {
	if i < len(c.Args) {
		return c.Args[i]
	}
	return ""
}

// Parse turns a raw line into a Command. It returns nil for blank input.
func Parse(line string) *Command {
	if strings.TrimSpace(line) == "" {
		return nil
	}

	cmd := &Command{}
	for _, op := range []struct {
		token string
		mode  Redirect
	}{{">>", RedirectAppend}, {">", RedirectOverwrite}} {
		if !strings.Contains(line, op.token) {
			continue
		}
		parts := strings.Split(line, op.token)
		line = parts[0]
		cmd.Redirect = op.mode
		cmd.TargetFile = strings.TrimSpace(parts[1])
		break
	}

	tokens := tokenize(strings.TrimSpace(line))
	if len(tokens) == 0 {
		return nil
	}
	cmd.Name = tokens[0]
	cmd.Tokens = tokens[1:]

	for _, tok := range cmd.Tokens {
		if !strings.HasPrefix(tok, "-") {
			cmd.Args = append(cmd.Args, tok)
			continue
		}
		rest := tok[1:]
		if len(rest) > 1 && !strings.HasPrefix(rest, "-") {
			for _, r := range rest {
				cmd.Options = append(cmd.Options, string(r))
			}
			continue
		}
		cmd.Options = append(cmd.Options, strings.TrimLeft(tok, "-"))
	}
	return cmd
}

// tokenize splits on spaces outside quotes. A quote preceded by a backslash
// is literal; closing a quote always ends a token, even an empty one.
func tokenize(s string) []string {
	var (
		tokens  []string
		current strings.Builder
		quote   rune
	)
	var prev rune
	for _, r := range s {
		switch {
		case (r == '"' || r == '\'') && prev != '\\' && (quote == 0 || quote == r):
			if quote == 0 {
				quote = r
			} else {
				quote = 0
				tokens = append(tokens, current.String())
				current.Reset()
			}
		case r == ' ' && quote == 0:
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
		prev = r
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}
