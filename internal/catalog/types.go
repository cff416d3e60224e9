package catalog

import (
	"gopkg.in/yaml.v3"
)

// Document is a full provisioning catalog. Provision lists the items a run
// reconciles in declaration order; Teardown is its own list, authored
// separately, never derived by reversing Provision.
type Document struct {
	Version     string         `yaml:"version" validate:"required,semver"`
	Name        string         `yaml:"name" validate:"required,min=1,max=100"`
	Description string         `yaml:"description,omitempty"`
	Settings    Settings       `yaml:"settings,omitempty"`
	Vars        map[string]any `yaml:"vars,omitempty"`
	Provision   []Item         `yaml:"provision" validate:"required,min=1,dive"`
	Teardown    []Item         `yaml:"teardown,omitempty" validate:"omitempty,dive"`
}

// Settings holds run-wide execution parameters.
type Settings struct {
	// TimeoutSeconds bounds each probe or apply unless the item overrides
	// it. Zero falls back to the engine default.
	TimeoutSeconds int `yaml:"timeout_seconds,omitempty" validate:"omitempty,min=1,max=86400"`
	// GraceSeconds is how long a timed-out process group gets between
	// SIGTERM and SIGKILL.
	GraceSeconds int `yaml:"grace_seconds,omitempty" validate:"omitempty,min=1,max=600"`
	// EnvFile is loaded before template rendering and exposed as .env.
	EnvFile string `yaml:"env_file,omitempty"`
	// TeardownExempt lists provision item IDs that intentionally have no
	// teardown counterpart.
	TeardownExempt []string `yaml:"teardown_exempt,omitempty"`
}

// Item is one declared unit of desired state.
type Item struct {
	ID             string   `yaml:"id" validate:"required,item_id"`
	Name           string   `yaml:"name,omitempty"`
	Kind           string   `yaml:"kind" validate:"required,oneof=package file profile_block service command repo symlink download custom"`
	Critical       bool     `yaml:"critical,omitempty"`
	TimeoutSeconds int      `yaml:"timeout_seconds,omitempty" validate:"omitempty,min=1,max=86400"`
	DependsOn      []string `yaml:"depends_on,omitempty"`
	When           string   `yaml:"when,omitempty"`
	Hint           string   `yaml:"hint,omitempty"`

	Package  *PackageItem  `yaml:"-"`
	File     *FileItem     `yaml:"-"`
	Block    *BlockItem    `yaml:"-"`
	Service  *ServiceItem  `yaml:"-"`
	Command  *CommandItem  `yaml:"-"`
	Repo     *RepoItem     `yaml:"-"`
	Symlink  *SymlinkItem  `yaml:"-"`
	Download *DownloadItem `yaml:"-"`
	Custom   *CustomItem   `yaml:"-"`
}

// UnmarshalYAML decodes the shared fields, then the kind-specific body from
// the same mapping.
func (it *Item) UnmarshalYAML(value *yaml.Node) error {
	type baseItem struct {
		ID             string   `yaml:"id"`
		Name           string   `yaml:"name"`
		Kind           string   `yaml:"kind"`
		Critical       bool     `yaml:"critical"`
		TimeoutSeconds int      `yaml:"timeout_seconds"`
		DependsOn      []string `yaml:"depends_on"`
		When           string   `yaml:"when"`
		Hint           string   `yaml:"hint"`
	}

	var base baseItem
	if err := value.Decode(&base); err != nil {
		return err
	}

	it.ID = base.ID
	it.Name = base.Name
	it.Kind = base.Kind
	it.Critical = base.Critical
	it.TimeoutSeconds = base.TimeoutSeconds
	it.DependsOn = append([]string(nil), base.DependsOn...)
	it.When = base.When
	it.Hint = base.Hint

	switch base.Kind {
	case "package":
		var pkg PackageItem
		if err := value.Decode(&pkg); err != nil {
			return err
		}
		it.Package = &pkg
	case "file":
		var file FileItem
		if err := value.Decode(&file); err != nil {
			return err
		}
		it.File = &file
	case "profile_block":
		var block BlockItem
		if err := value.Decode(&block); err != nil {
			return err
		}
		it.Block = &block
	case "service":
		var service ServiceItem
		if err := value.Decode(&service); err != nil {
			return err
		}
		it.Service = &service
	case "command":
		var command CommandItem
		if err := value.Decode(&command); err != nil {
			return err
		}
		it.Command = &command
	case "repo":
		var repo RepoItem
		if err := value.Decode(&repo); err != nil {
			return err
		}
		it.Repo = &repo
	case "symlink":
		var symlink SymlinkItem
		if err := value.Decode(&symlink); err != nil {
			return err
		}
		it.Symlink = &symlink
	case "download":
		var download DownloadItem
		if err := value.Decode(&download); err != nil {
			return err
		}
		it.Download = &download
	case "custom":
		var custom CustomItem
		if err := value.Decode(&custom); err != nil {
			return err
		}
		it.Custom = &custom
	}

	return nil
}

// DisplayName prefers the human name, falling back to the ID.
func (it Item) DisplayName() string {
	if it.Name != "" {
		return it.Name
	}
	return it.ID
}

// PackageItem keeps system packages installed or absent.
type PackageItem struct {
	Packages []string `yaml:"packages" validate:"required,min=1,dive,min=1,max=100"`
	Manager  string   `yaml:"manager,omitempty" validate:"omitempty,oneof=apk apt"`
	State    string   `yaml:"state,omitempty" validate:"omitempty,oneof=present absent"`
}

// FileItem keeps a file present with exact content, or absent. Source names
// a local file whose content is the desired state; Content declares it
// inline. With neither, present means the file merely has to exist.
type FileItem struct {
	Path      string `yaml:"path" validate:"required"`
	State     string `yaml:"state,omitempty" validate:"omitempty,oneof=present absent"`
	Content   string `yaml:"content,omitempty"`
	Source    string `yaml:"source,omitempty"`
	Mode      int    `yaml:"mode,omitempty"`
	Recursive bool   `yaml:"recursive,omitempty"`
}

// BlockItem keeps a managed block in a shared file such as a shell profile.
type BlockItem struct {
	Path          string `yaml:"path" validate:"required"`
	BlockID       string `yaml:"block_id,omitempty"`
	Content       string `yaml:"content,omitempty"`
	State         string `yaml:"state,omitempty" validate:"omitempty,oneof=present absent"`
	CommentPrefix string `yaml:"comment_prefix,omitempty"`
	Create        *bool  `yaml:"create,omitempty"`
	Mode          int    `yaml:"mode,omitempty"`
	Backup        bool   `yaml:"backup,omitempty"`
}

// ServiceItem keeps a service enabled (and optionally running) or disabled.
type ServiceItem struct {
	Service string `yaml:"service" validate:"required"`
	State   string `yaml:"state,omitempty" validate:"omitempty,oneof=enabled disabled"`
	Running bool   `yaml:"running,omitempty"`
}

// CommandItem runs a command when its check fails. Check is mandatory:
// without one the engine cannot decide whether the command needs to run,
// and unconditional commands break idempotent reruns.
type CommandItem struct {
	Command string            `yaml:"command" validate:"required,min=1"`
	Check   string            `yaml:"check" validate:"required,min=1"`
	Shell   string            `yaml:"shell,omitempty"`
	WorkDir string            `yaml:"workdir,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`
}

// RepoItem keeps a git clone at a destination.
type RepoItem struct {
	URL         string `yaml:"url" validate:"required"`
	Destination string `yaml:"destination" validate:"required"`
	Branch      string `yaml:"branch,omitempty"`
	Depth       int    `yaml:"depth,omitempty" validate:"omitempty,min=0"`
}

// SymlinkItem keeps a symlink pointing at a target, or absent.
type SymlinkItem struct {
	Path   string `yaml:"path" validate:"required"`
	Target string `yaml:"target,omitempty"`
	State  string `yaml:"state,omitempty" validate:"omitempty,oneof=present absent"`
	Force  bool   `yaml:"force,omitempty"`
}

// DownloadItem keeps a fetched artifact on disk, verified by checksum when
// one is declared.
type DownloadItem struct {
	URL    string `yaml:"url" validate:"required"`
	Path   string `yaml:"path" validate:"required"`
	SHA256 string `yaml:"sha256,omitempty" validate:"omitempty,len=64,hexadecimal"`
	Mode   int    `yaml:"mode,omitempty"`
}

// CustomItem pairs an explicit probe with an explicit action, for state the
// kind sugar does not cover.
type CustomItem struct {
	Probe  TypedRef `yaml:"probe" validate:"required"`
	Action TypedRef `yaml:"action" validate:"required"`
}

// TypedRef names a registered probe or action type with its parameters.
type TypedRef struct {
	Type   string         `yaml:"type" validate:"required"`
	Params map[string]any `yaml:"params,omitempty"`
}

// ItemMap builds a lookup table of items by ID.
func ItemMap(items []Item) map[string]Item {
	out := make(map[string]Item, len(items))
	for _, item := range items {
		out[item.ID] = item
	}
	return out
}
