package manifestmigration

// renameBackupsToDumps moves the manifest's legacy "backups" array to
// "dumps", the name every later release (and this tool) actually reads.
type renameBackupsToDumps struct{}

func (m renameBackupsToDumps) MinimalVersion() Version {
	return Version{Major: 0, Minor: 7, Patch: 3}
}

func (m renameBackupsToDumps) Run(store ManifestStore) error {
	raw, err := store.RawIndexFile()
	if err != nil {
		return err
	}

	if backups, ok := raw["backups"]; ok {
		raw["dumps"] = backups
		delete(raw, "backups")
	}

	return store.WriteRawIndexFile(raw)
}
