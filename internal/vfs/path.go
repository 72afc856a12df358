package vfs

import "strings"

// HomeSegments is what a leading "~" expands to, including in "~name". The home user is fixed and
// does not follow the session user.
var HomeSegments = []string{"home", "user"}

// Normalize turns path into canonical segments relative to the root,
// interpreting it against cwd. "." and empty segments are dropped, ".." pops
// and clamps at the root.
func Normalize(path, cwd string) []string {
	var parts []string
	switch {
	case strings.HasPrefix(path, "/"):
		parts = strings.Split(path, "/")
	case strings.HasPrefix(path, "~"):
		parts = append(append([]string{}, HomeSegments...), strings.Split(path[1:], "/")...)
	default:
		parts = append(strings.Split(cwd, "/"), strings.Split(path, "/")...)
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		switch p {
		case "", ".":
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, p)
		}
	}
	return out
}

// Join renders segments as an absolute path.
func Join(segments []string) string {
	return "/" + strings.Join(segments, "/")
}

// Resolve finds the node for path. An empty path yields (nil, cwd) and callers
// treat it as the working directory. On failure the node is nil and the
// returned path is the full canonical path that was looked up.
func (n *Node) Resolve(path, cwd string) (*Node, string) {
	if path == "" {
		return nil, cwd
	}
	if path == "/" {
		return n, "/"
	}
	segments := Normalize(path, cwd)
	return n.Lookup(segments), Join(segments)
}

// Lookup walks segments from n and returns the node, or nil.
func (n *Node) Lookup(segments []string) *Node {
	cur := n
	for _, seg := range segments {
		if !cur.IsDir() {
			return nil
		}
		next, ok := cur.Children[seg]
		if !ok {
			return nil
		}
		cur = next
	}
	return cur
}

// Parent resolves the directory containing path and the final segment name.
// ok is false for the root itself or when the container does not exist or is
// not a directory.
func (n *Node) Parent(path, cwd string) (parent *Node, name string, ok bool) {
	segments := Normalize(path, cwd)
	if len(segments) == 0 {
		return nil, "", false
	}
	parent = n.Lookup(segments[:len(segments)-1])
	if !parent.IsDir() {
		return nil, "", false
	}
	return parent, segments[len(segments)-1], true
}

// MkdirAll creates every missing directory along segments and returns the
// last one. It fails with ok=false when a segment names an existing file.
func (n *Node) MkdirAll(segments []string, owner string) (dir *Node, ok bool) {
	cur := n
	for _, seg := range segments {
		next := cur.Children[seg]
		if next == nil {
			next = NewDir(seg, owner, DirPerm)
			cur.Add(next)
		}
		if !next.IsDir() {
			return nil, false
		}
		cur = next
	}
	return cur, true
}
