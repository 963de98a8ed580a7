package manifestmigration

// updateVersionNumber stamps the manifest's "v" field with the tool
// version that just ran a migration pass over it.
type updateVersionNumber struct {
	version string
}

func (m updateVersionNumber) MinimalVersion() Version {
	return Version{Major: 0, Minor: 7, Patch: 3}
}

func (m updateVersionNumber) Run(store ManifestStore) error {
	raw, err := store.RawIndexFile()
	if err != nil {
		return err
	}
	raw["v"] = m.version
	return store.WriteRawIndexFile(raw)
}
