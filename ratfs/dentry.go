package ratfs

// Dentry is the in-memory representation of one directory entry: a
// (name, inode number, parent, inode?) tuple. A directory's children form a
// singly linked list through NextSibling; insertion is always head-insert,
// so on-disk directory order is not stable across mount cycles (spec.md
// section 4.4/9).
type Dentry struct {
	Name        string
	Ino         int
	Parent      *Dentry
	NextSibling *Dentry
	Inode       *Inode
	Ftype       FileType
}

// newDentry creates a detached dentry for name/ftype. Ino is left
// unassigned (-1) until the dentry is attached to an inode by AllocInode or
// populated from an on-disk directory entry by readInode.
func newDentry(name string, ftype FileType) *Dentry {
	return &Dentry{
		Name:  name,
		Ino:   -1,
		Ftype: ftype,
	}
}

// AllocDentry head-inserts child into parentInode's sibling chain and
// increments parentInode.DirCnt. This is the only way children are added to
// a directory inode; there is no ordered insertion, matching
// nfs_alloc_dentry's head-insert in the original source.
func (fs *FileSystem) AllocDentry(parentInode *Inode, child *Dentry) {
	child.NextSibling = parentInode.Children
	parentInode.Children = child
	parentInode.DirCnt++
}

// GetDentry returns the i-th child of inode in sibling-chain order (head to
// tail), or nil if there are fewer than i+1 children. This is O(i), exactly
// as nfs_get_dentry is in the original source; directories are small enough
// in this design (capped at 6 blocks of fixed-size records) that this never
// matters in practice.
func (fs *FileSystem) GetDentry(inode *Inode, i int) *Dentry {
	cursor := inode.Children
	for n := 0; cursor != nil; n++ {
		if n == i {
			return cursor
		}
		cursor = cursor.NextSibling
	}
	return nil
}
