package probe

// Builtins returns a Registry with every probe this build ships. Each run
// creates its own registry; catalogs refer to these names directly and
// through kind sugar.
func Builtins() *Registry {
	r := NewRegistry()

	builders := map[string]Builder{
		"command_exists":    newCommandExists,
		"command_succeeds":  newCommandSucceeds,
		"file_exists":       newFileExists,
		"file_absent":       newFileAbsent,
		"file_matches":      newFileMatches,
		"file_contains":     newFileContains,
		"symlink_points":    newSymlinkPoints,
		"block_present":     newBlockPresent,
		"block_absent":      newBlockAbsent,
		"package_installed": newPackageInstalled,
		"package_absent":    newPackageAbsent,
		"service_enabled":   newServiceEnabled,
		"service_disabled":  newServiceDisabled,
		"repo_cloned":       newRepoCloned,
		"artifact_present":  newArtifactPresent,
		"disk_free":         newDiskFree,
		"http_reachable":    newHTTPReachable,
	}

	for name, builder := range builders {
		if err := r.Register(name, builder); err != nil {
			panic(err)
		}
	}
	return r
}
