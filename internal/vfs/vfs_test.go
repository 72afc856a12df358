package vfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTree() *Node {
	root := NewSkeleton("user")
	projects := root.Lookup(ProjectsSegments("user"))
	app := NewDir("app", "user", DirPerm)
	app.Add(NewFile("main.js", "user", FilePerm, "console.log(1)\n"))
	projects.Add(app)
	return root
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		path, cwd string
		want      []string
	}{
		{"/a/b", "/x", []string{"a", "b"}},
		{"a/./b/", "/x", []string{"x", "a", "b"}},
		{"../..", "/x", []string{}},
		{"../../../..", "/", []string{}},
		{"~", "/tmp", []string{"home", "user"}},
		{"~/projects", "/tmp", []string{"home", "user", "projects"}},
		{"~foo", "/tmp", []string{"home", "user", "foo"}},
		{"~foo/../bar", "/tmp", []string{"home", "user", "bar"}},
		{"//a//b", "/", []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.path, tt.cwd))
		})
	}
}

func TestResolve(t *testing.T) {
	root := testTree()

	node, full := root.Resolve("", "/home/user")
	assert.Nil(t, node)
	assert.Equal(t, "/home/user", full)

	node, full = root.Resolve("/", "/tmp")
	assert.Same(t, root, node)
	assert.Equal(t, "/", full)

	node, full = root.Resolve("projects/app/main.js", "/home/user")
	require.NotNil(t, node)
	assert.Equal(t, KindFile, node.Kind)
	assert.Equal(t, "/home/user/projects/app/main.js", full)

	node, full = root.Resolve("../..", "/home/user")
	assert.Same(t, root, node)
	assert.Equal(t, "/", full)

	node, full = root.Resolve("missing/deeper", "/home/user")
	assert.Nil(t, node)
	assert.Equal(t, "/home/user/missing/deeper", full)

	node, _ = root.Resolve("/home/user/projects/app/main.js/x", "/")
	assert.Nil(t, node, "walking through a file must fail")
}

func TestResolveAbsoluteIgnoresCwd(t *testing.T) {
	root := testTree()
	for _, cwd := range []string{"/", "/tmp", "/home/user/projects/app", "/nowhere"} {
		node, full := root.Resolve("/home/user/projects", cwd)
		require.NotNil(t, node)
		assert.Equal(t, "/home/user/projects", full)
	}
}

func TestResolveCanonicalIsIdempotent(t *testing.T) {
	root := testTree()
	for _, p := range []string{"~/projects/../projects/app", "./app/../app/main.js", "/tmp/."} {
		first, full := root.Resolve(p, "/home/user/projects")
		require.NotNil(t, first, p)
		second, again := root.Resolve(full, "/somewhere/else")
		assert.Same(t, first, second)
		assert.Equal(t, full, again)
	}
}

func TestParent(t *testing.T) {
	root := testTree()

	parent, name, ok := root.Parent("app/new.txt", "/home/user/projects")
	require.True(t, ok)
	assert.Equal(t, "app", parent.Name)
	assert.Equal(t, "new.txt", name)

	_, _, ok = root.Parent("/", "/")
	assert.False(t, ok)

	_, _, ok = root.Parent("nope/new.txt", "/tmp")
	assert.False(t, ok)

	_, _, ok = root.Parent("app/main.js/x", "/home/user/projects")
	assert.False(t, ok)
}

func TestCloneIsDeep(t *testing.T) {
	root := testTree()
	clone := root.Clone()
	clone.Lookup([]string{"tmp"}).Add(NewFile("x", "user", FilePerm, ""))
	clone.Lookup([]string{"home", "user", "projects", "app", "main.js"}).Content = "changed"

	assert.Nil(t, root.Lookup([]string{"tmp", "x"}))
	assert.Equal(t, "console.log(1)\n", root.Lookup([]string{"home", "user", "projects", "app", "main.js"}).Content)
}

func TestMkdirAll(t *testing.T) {
	root := testTree()
	dir, ok := root.MkdirAll([]string{"tmp", "a", "b"}, "user")
	require.True(t, ok)
	assert.Equal(t, "b", dir.Name)
	assert.Equal(t, "user", dir.Owner)
	assert.NotNil(t, root.Lookup([]string{"tmp", "a", "b"}))

	_, ok = root.MkdirAll([]string{"home", "user", "projects", "app", "main.js", "x"}, "user")
	assert.False(t, ok)
}

func TestEncodeDecode(t *testing.T) {
	root := testTree()
	root.Lookup([]string{"tmp"}).Add(NewDir("empty", "user", DirPerm))

	data, err := Encode(root)
	require.NoError(t, err)
	back, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, root, back)

	empty := back.Lookup([]string{"tmp", "empty"})
	require.NotNil(t, empty)
	assert.NotNil(t, empty.Children, "empty directories must be writable after decode")
}

func TestDecodeRejectsBadTrees(t *testing.T) {
	for _, raw := range []string{
		`{"type":"file","name":"/"}`,
		`{"type":"directory","name":"/","children":{"a":{"type":"file","name":"b"}}}`,
		`{"type":"directory","name":"/","children":{"a":{"type":"socket","name":"a"}}}`,
		`not json`,
	} {
		_, err := Decode([]byte(raw))
		assert.Error(t, err, raw)
	}
}

func TestSkeleton(t *testing.T) {
	root := NewSkeleton("ada")
	projects := root.Lookup(ProjectsSegments("ada"))
	require.NotNil(t, projects)
	assert.Equal(t, "ada", projects.Owner)
	assert.Equal(t, WorldPerm, root.Lookup([]string{"tmp"}).Permissions)
	assert.Equal(t, "/home/ada", HomePath("ada"))

	files, dirs := root.Count()
	assert.Equal(t, 0, files)
	assert.Equal(t, 5, dirs)
}
