package vfs

// RootOwner owns the system directories of a fresh tree.
const RootOwner = "root"

// NewSkeleton builds the canonical initial tree: /home/<user>/projects and a
// world-writable /tmp.
func NewSkeleton(user string) *Node {
	root := NewDir("/", RootOwner, DirPerm)

	home := NewDir("home", RootOwner, DirPerm)
	userDir := NewDir(user, user, DirPerm)
	userDir.Add(NewDir("projects", user, DirPerm))
	home.Add(userDir)
	root.Add(home)

	root.Add(NewDir("tmp", RootOwner, WorldPerm))
	return root
}

// HomePath is the home directory of user in a skeleton tree.
func HomePath(user string) string {
	return "/home/" + user
}

// ProjectsSegments locates the projects directory of user.
func ProjectsSegments(user string) []string {
	return []string{"home", user, "projects"}
}
