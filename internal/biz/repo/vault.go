package repo

// VaultRepo owns the vault's record directories: the pending inbox the
// capture side writes into, the approved directory the human moves records
// to, and the done archive.
type VaultRepo interface {
	WritePending(filename, content string) error
	PendingExists(filename string) bool
	ListPending() ([]string, error)
	ReadPending(filename string) (string, error)
	ListApproved() ([]string, error)
	ReadApproved(filename string) (string, error)
	// ArchiveDone writes the updated document into the archive and then
	// removes it from the approved directory. The write happens first so a
	// crash in between leaves the record present in both places, never in
	// neither.
	ArchiveDone(filename, content string) error
}
