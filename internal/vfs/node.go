// Package vfs implements the in-memory filesystem tree behind the virtual shell.
package vfs

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Kind discriminates file and directory nodes.
type Kind string

const (
	KindFile Kind = "file"
	KindDir  Kind = "directory"
)

// Default permission strings (owner/group/other triads).
const (
	DirPerm   = "rwxr-xr-x"
	FilePerm  = "rw-r--r--"
	WorldPerm = "rwxrwxrwx"
)

// DirSize is the size reported for directories in long listings.
const DirSize = 4096

// Node is a file or directory in the tree. Nodes are owned by their parent's
// Children map; there are no back pointers.
type Node struct {
	Kind        Kind             `json:"type"`
	Name        string           `json:"name"`
	Owner       string           `json:"owner"`
	Permissions string           `json:"permissions"`
	Content     string           `json:"content,omitempty"`
	Children    map[string]*Node `json:"children,omitempty"`
}

// NewDir returns an empty directory node.
func NewDir(name, owner, perms string) *Node {
	return &Node{
		Kind:        KindDir,
		Name:        name,
		Owner:       owner,
		Permissions: perms,
		Children:    make(map[string]*Node),
	}
}

// NewFile returns a file node with the given content.
func NewFile(name, owner, perms, content string) *Node {
	return &Node{
		Kind:        KindFile,
		Name:        name,
		Owner:       owner,
		Permissions: perms,
		Content:     content,
	}
}

// IsDir reports whether n is a directory.
func (n *Node) IsDir() bool {
	return n != nil && n.Kind == KindDir
}

// Child returns the named child of a directory, or nil.
func (n *Node) Child(name string) *Node {
	if !n.IsDir() {
		return nil
	}
	return n.Children[name]
}

// Add inserts or replaces a child, keyed by its name.
func (n *Node) Add(child *Node) {
	if n.Children == nil {
		n.Children = make(map[string]*Node)
	}
	n.Children[child.Name] = child
}

// Remove deletes the named child.
func (n *Node) Remove(name string) {
	delete(n.Children, name)
}

// Names returns child names sorted lexically.
func (n *Node) Names() []string {
	names := make([]string, 0, len(n.Children))
	for name := range n.Children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Size is the content length for files and DirSize for directories.
func (n *Node) Size() int {
	if n.IsDir() {
		return DirSize
	}
	return len(n.Content)
}

// Clone returns a deep copy of the subtree rooted at n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	if n.Children != nil {
		c.Children = make(map[string]*Node, len(n.Children))
		for name, child := range n.Children {
			c.Children[name] = child.Clone()
		}
	}
	return &c
}

// Count returns the number of files and directories below n, n included.
func (n *Node) Count() (files, dirs int) {
	if !n.IsDir() {
		return 1, 0
	}
	dirs = 1
	for _, child := range n.Children {
		f, d := child.Count()
		files += f
		dirs += d
	}
	return files, dirs
}

// Encode serializes the tree as JSON.
func Encode(root *Node) ([]byte, error) {
	return json.Marshal(root)
}

// Decode parses a serialized tree and checks its shape.
func Decode(data []byte) (*Node, error) {
	var root Node
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("decode tree: %w", err)
	}
	if !root.IsDir() {
		return nil, fmt.Errorf("decode tree: root is %q, not a directory", root.Kind)
	}
	if err := root.check(true); err != nil {
		return nil, err
	}
	return &root, nil
}

func (n *Node) check(isRoot bool) error {
	if !isRoot && (n.Name == "" || strings.Contains(n.Name, "/")) {
		return fmt.Errorf("invalid node name %q", n.Name)
	}
	switch n.Kind {
	case KindFile:
		if len(n.Children) > 0 {
			return fmt.Errorf("file %q has children", n.Name)
		}
		n.Children = nil
	case KindDir:
		if n.Children == nil {
			n.Children = make(map[string]*Node)
		}
		for key, child := range n.Children {
			if child == nil {
				return fmt.Errorf("directory %q: nil child %q", n.Name, key)
			}
			if child.Name != key {
				return fmt.Errorf("directory %q: child key %q names %q", n.Name, key, child.Name)
			}
			if err := child.check(false); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("node %q: unknown type %q", n.Name, n.Kind)
	}
	return nil
}
