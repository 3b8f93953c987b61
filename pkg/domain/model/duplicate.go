package model

// DuplicateGroup is a set of files with identical content. Canonical is kept;
// Duplicates are redundant copies.
type DuplicateGroup struct {
	Hash       string
	Canonical  string
	Duplicates []string
}

// Size returns the number of members including the canonical one
func (g DuplicateGroup) Size() int {
	return 1 + len(g.Duplicates)
}

// UnreadableFile is a file excluded from hashing
type UnreadableFile struct {
	Name   string
	Reason string
}

// DuplicateReport is the result of a duplicate scan
type DuplicateReport struct {
	Dir        string
	Scanned    int
	Groups     []DuplicateGroup
	Unreadable []UnreadableFile
	Removed    []string
}

// RedundantCount is sum(group_size - 1) over all groups
func (r *DuplicateReport) RedundantCount() int {
	n := 0
	for _, g := range r.Groups {
		n += len(g.Duplicates)
	}
	return n
}
