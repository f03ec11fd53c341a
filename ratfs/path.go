package ratfs

import "strings"

// CalcLevel returns the number of path levels in path: the count of '/'
// characters, with the single exception that "/" itself is level 0.
//
// This literally counts slash characters rather than path components, so a
// trailing slash increments the level even though it doesn't introduce an
// extra component (spec.md section 9): CalcLevel("/a/") is 2, not 1.
func CalcLevel(path string) int {
	if path == "/" {
		return 0
	}
	lvl := 0
	for i := 0; i < len(path); i++ {
		if path[i] == '/' {
			lvl++
		}
	}
	return lvl
}

// GetBaseName returns the final '/'-separated component of path.
func GetBaseName(path string) string {
	idx := strings.LastIndexByte(path, '/')
	return path[idx+1:]
}

// pathComponents splits path on '/', discarding empty components so that
// repeated or trailing slashes don't produce spurious empty tokens; this
// mirrors strtok(path, "/")'s behavior in the original source.
func pathComponents(path string) []string {
	raw := strings.Split(path, "/")
	out := make([]string, 0, len(raw))
	for _, c := range raw {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

// findChild linearly searches inode's children for a dentry whose name
// matches query under the length-bounded comparison rule (spec.md section
// 4.4): only the first len(query) bytes of the stored, zero-padded name are
// compared, so a stored name that is a proper extension of query still
// matches. This is a verbatim-preserved quirk, not a bug introduced here.
func findChild(inode *Inode, query string) *Dentry {
	for cursor := inode.Children; cursor != nil; cursor = cursor.NextSibling {
		if namesEqual(nameBytes(cursor.Name), query) {
			return cursor
		}
	}
	return nil
}

// Lookup resolves an absolute, '/'-separated path against the dentry tree,
// hydrating inodes on demand. It returns the resolved dentry, whether it
// was found, and whether the result is the root.
//
//   - total_lvl == 0 (path is "/"): returns the root dentry, found=true.
//   - A regular file is reached with at least two path components still
//     after it (e.g. file "a" in "/a/b/c"): resolution stops there and
//     returns (that dentry, found=true, is_root=false); the caller (an
//     out-of-scope VFS shim) is responsible for treating a non-terminal
//     file as an error. A file followed by exactly one more component
//     (e.g. "/a/b") returns (that dentry, found=false, is_root=false).
//   - A component has no matching child: returns (the containing
//     directory's dentry, found=false, is_root=false).
//   - If path has more '/' characters than real components (e.g. a
//     trailing slash), resolution runs out of components before reaching
//     total_lvl; this is treated as not-found rather than replicating the
//     original's undefined-behavior null dereference in that case.
func (fs *FileSystem) Lookup(path string) (dentry *Dentry, found bool, isRoot bool) {
	totalLvl := CalcLevel(path)
	if totalLvl == 0 {
		return fs.root, true, true
	}

	cursor := fs.root
	lvl := 0

	for _, comp := range pathComponents(path) {
		lvl++

		if cursor.Inode == nil {
			if _, err := fs.readInode(cursor, cursor.Ino); err != nil {
				return cursor, false, false
			}
		}
		inode := cursor.Inode

		if inode.IsFile() && lvl < totalLvl {
			return cursor, true, false
		}

		if inode.IsDir() {
			child := findChild(inode, comp)
			if child == nil {
				return cursor, false, false
			}
			if lvl == totalLvl {
				if child.Inode == nil {
					if _, err := fs.readInode(child, child.Ino); err != nil {
						return child, false, false
					}
				}
				return child, true, false
			}
			cursor = child
			continue
		}

		// Neither a directory nor (at this level) a file: e.g. a symlink
		// encountered mid-path. The core does not resolve symlinks itself
		// (that's the out-of-scope VFS shim's job), so resolution stops
		// here.
		return cursor, false, false
	}

	// Ran out of path components before reaching totalLvl (possible only
	// with a malformed/trailing-slash path); see doc comment above.
	return cursor, false, false
}
