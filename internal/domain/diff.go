package domain

// ChangeType is the source-provided kind of change for a file
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeModified ChangeType = "modified"
	ChangeRemoved  ChangeType = "removed"
	ChangeRenamed  ChangeType = "renamed"
	ChangeCopied   ChangeType = "copied"
	ChangeChanged  ChangeType = "changed"
)

// ChangedFile is one file touched by a commit
type ChangedFile struct {
	Filename         string
	PreviousFilename string // set for renames and copies
	Status           ChangeType
	Patch            string // empty for binary or oversized files
}

// HasPatch returns true if a textual diff is available
func (f *ChangedFile) HasPatch() bool {
	return f.Patch != ""
}
