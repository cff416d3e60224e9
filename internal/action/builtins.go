package action

// Builtins returns a Registry with every built-in action registered.
func Builtins() *Registry {
	r := NewRegistry()

	builders := map[string]Builder{
		"run_command":     newRunCommand,
		"write_file":      newWriteFile,
		"remove_path":     newRemovePath,
		"copy_path":       newCopyPath,
		"make_symlink":    newMakeSymlink,
		"ensure_block":    newEnsureBlock,
		"remove_block":    newRemoveBlock,
		"package_install": newPackageInstall,
		"package_remove":  newPackageRemove,
		"service_enable":  newServiceEnable,
		"service_disable": newServiceDisable,
		"repo_clone":      newRepoClone,
		"download_file":   newDownloadFile,
	}

	for name, builder := range builders {
		if err := r.Register(name, builder); err != nil {
			panic(err)
		}
	}
	return r
}
