package catalog

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"

	"github.com/avigneault/groundwork/internal/action"
	"github.com/avigneault/groundwork/internal/blockfile"
	"github.com/avigneault/groundwork/internal/condition"
	"github.com/avigneault/groundwork/internal/model"
	"github.com/avigneault/groundwork/internal/probe"
	gwerrors "github.com/avigneault/groundwork/pkg/errors"
)

// CompiledItem is an item resolved against the registries: templates
// rendered, condition evaluated, probe and action instances built.
type CompiledItem struct {
	ID        string
	Name      string
	Kind      string
	Critical  bool
	DependsOn []string
	Hint      string

	ProbeType  string
	ActionType string
	Probe      probe.Probe
	Action     action.Action

	// Timeout bounds each probe or apply for this item. Zero means the
	// engine default applies.
	Timeout time.Duration

	// Skip marks items whose when: condition evaluated false.
	Skip       bool
	SkipReason string
}

// DisplayName prefers the human name, falling back to the ID.
func (c CompiledItem) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.ID
}

// Plan is a compiled catalog ready for the engine.
type Plan struct {
	Name     string
	Mode     model.RunMode
	Settings Settings
	Vars     map[string]any
	Items    []CompiledItem
}

// CompileOptions carries everything compilation needs beyond the document.
type CompileOptions struct {
	Mode model.RunMode
	// Facts is the host snapshot as a template/condition environment.
	Facts map[string]any
	// Env is the process environment merged with the catalog's env_file.
	Env map[string]string
	// VarOverrides wins over the document's vars block.
	VarOverrides map[string]any

	Probes  *probe.Registry
	Actions *action.Registry
}

// Compile resolves a validated document into a Plan. Teardown mode compiles
// the teardown list; provision and verify both compile the provision list.
func Compile(doc *Document, opts CompileOptions) (*Plan, error) {
	vars := mergeVars(doc.Vars, opts.VarOverrides)

	data := map[string]any{
		"facts": opts.Facts,
		"vars":  vars,
		"env":   envAnyMap(opts.Env),
	}
	condEnv := condition.Environment(opts.Facts, vars)

	items := doc.Provision
	if opts.Mode == model.ModeTeardown {
		items = doc.Teardown
	}

	plan := &Plan{
		Name:     doc.Name,
		Mode:     opts.Mode,
		Settings: doc.Settings,
		Vars:     vars,
		Items:    make([]CompiledItem, 0, len(items)),
	}

	for _, item := range items {
		compiled := CompiledItem{
			ID:        item.ID,
			Name:      item.Name,
			Kind:      item.Kind,
			Critical:  item.Critical,
			DependsOn: append([]string(nil), item.DependsOn...),
			Hint:      item.Hint,
			Timeout:   effectiveTimeout(item, doc.Settings),
		}

		if item.When != "" {
			ok, err := condition.Evaluate(item.When, condEnv)
			if err != nil {
				return nil, gwerrors.NewValidationError(item.ID,
					fmt.Sprintf("when condition: %v", err), err)
			}
			if !ok {
				compiled.Skip = true
				compiled.SkipReason = fmt.Sprintf("condition %q is false", item.When)
				plan.Items = append(plan.Items, compiled)
				continue
			}
		}

		b, err := bindingFor(item)
		if err != nil {
			return nil, err
		}

		if b.probeParams, err = renderParams(item.ID, b.probeParams, data); err != nil {
			return nil, err
		}
		if b.actionParams, err = renderParams(item.ID, b.actionParams, data); err != nil {
			return nil, err
		}
		if err := b.loadSource(item.ID); err != nil {
			return nil, err
		}

		compiled.ProbeType = b.probeType
		compiled.ActionType = b.actionType

		if compiled.Probe, err = opts.Probes.Build(b.probeType, b.probeParams); err != nil {
			return nil, gwerrors.NewValidationError(item.ID, fmt.Sprintf("probe: %v", err), err)
		}
		if compiled.Action, err = opts.Actions.Build(b.actionType, b.actionParams); err != nil {
			return nil, gwerrors.NewValidationError(item.ID, fmt.Sprintf("action: %v", err), err)
		}

		plan.Items = append(plan.Items, compiled)
	}

	return plan, nil
}

func effectiveTimeout(item Item, settings Settings) time.Duration {
	seconds := item.TimeoutSeconds
	if seconds == 0 {
		seconds = settings.TimeoutSeconds
	}
	return time.Duration(seconds) * time.Second
}

func mergeVars(base, overrides map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(overrides))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}

func envAnyMap(env map[string]string) map[string]any {
	out := make(map[string]any, len(env))
	for k, v := range env {
		out[k] = v
	}
	return out
}

// binding pairs the probe and action parameter sets an item compiles to.
type binding struct {
	probeType    string
	probeParams  map[string]any
	actionType   string
	actionParams map[string]any

	// sourcePath, when set, names a local file whose content becomes the
	// probe's desired content after rendering.
	sourcePath string
}

// loadSource resolves the file kind's source reference. It runs after
// template rendering so the path may itself be templated.
func (b *binding) loadSource(itemID string) error {
	if b.sourcePath == "" {
		return nil
	}

	path, ok := b.actionParams["source"].(string)
	if !ok || path == "" {
		path = b.sourcePath
	}
	expanded, err := blockfile.ExpandPath(path)
	if err != nil {
		return gwerrors.NewValidationError(itemID, fmt.Sprintf("source: %v", err), err)
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return gwerrors.NewValidationError(itemID, fmt.Sprintf("cannot read source %s", expanded), err)
	}
	b.probeParams["content"] = string(data)
	return nil
}

// bindingFor translates kind sugar into (probe, action) parameter pairs.
// Every kind funnels through the same registries a custom item uses, so
// sugar carries no special powers.
func bindingFor(item Item) (*binding, error) {
	switch item.Kind {
	case "package":
		cfg := item.Package
		params := map[string]any{"packages": cfg.Packages}
		if cfg.Manager != "" {
			params["manager"] = cfg.Manager
		}
		if cfg.state() == "absent" {
			return &binding{
				probeType: "package_absent", probeParams: params,
				actionType: "package_remove", actionParams: cloneParams(params),
			}, nil
		}
		return &binding{
			probeType: "package_installed", probeParams: params,
			actionType: "package_install", actionParams: cloneParams(params),
		}, nil

	case "file":
		cfg := item.File
		if cfg.state() == "absent" {
			return &binding{
				probeType: "file_absent", probeParams: map[string]any{"path": cfg.Path},
				actionType: "remove_path", actionParams: map[string]any{
					"path": cfg.Path, "recursive": cfg.Recursive,
				},
			}, nil
		}
		if cfg.Source != "" {
			return &binding{
				probeType: "file_matches", probeParams: map[string]any{"path": cfg.Path},
				actionType: "copy_path", actionParams: map[string]any{
					"source": cfg.Source, "destination": cfg.Path, "recursive": cfg.Recursive,
				},
				sourcePath: cfg.Source,
			}, nil
		}
		if cfg.Content == "" {
			// Bare present means the file only has to exist.
			return &binding{
				probeType: "file_exists", probeParams: map[string]any{"path": cfg.Path},
				actionType: "write_file", actionParams: withMode(map[string]any{
					"path": cfg.Path, "content": "",
				}, cfg.Mode),
			}, nil
		}
		return &binding{
			probeType: "file_matches", probeParams: map[string]any{
				"path": cfg.Path, "content": cfg.Content,
			},
			actionType: "write_file", actionParams: withMode(map[string]any{
				"path": cfg.Path, "content": cfg.Content,
			}, cfg.Mode),
		}, nil

	case "profile_block":
		cfg := item.Block
		blockID := cfg.BlockID
		if blockID == "" {
			blockID = item.ID
		}
		params := map[string]any{"path": cfg.Path, "block_id": blockID}
		if cfg.CommentPrefix != "" {
			params["comment_prefix"] = cfg.CommentPrefix
		}
		if cfg.state() == "absent" {
			actionParams := cloneParams(params)
			if cfg.Backup {
				actionParams["backup"] = true
			}
			return &binding{
				probeType: "block_absent", probeParams: params,
				actionType: "remove_block", actionParams: actionParams,
			}, nil
		}

		params["content"] = cfg.Content
		actionParams := cloneParams(params)
		if cfg.Create != nil {
			actionParams["create"] = *cfg.Create
		}
		if cfg.Backup {
			actionParams["backup"] = true
		}
		actionParams = withMode(actionParams, cfg.Mode)
		return &binding{
			probeType: "block_present", probeParams: params,
			actionType: "ensure_block", actionParams: actionParams,
		}, nil

	case "service":
		cfg := item.Service
		if cfg.state() == "disabled" {
			return &binding{
				probeType: "service_disabled", probeParams: map[string]any{"service": cfg.Service},
				actionType: "service_disable", actionParams: map[string]any{
					"service": cfg.Service, "stop": true,
				},
			}, nil
		}
		return &binding{
			probeType: "service_enabled", probeParams: map[string]any{
				"service": cfg.Service, "running": cfg.Running,
			},
			actionType: "service_enable", actionParams: map[string]any{
				"service": cfg.Service, "start": cfg.Running,
			},
		}, nil

	case "command":
		cfg := item.Command
		shared := map[string]any{}
		if cfg.Shell != "" {
			shared["shell"] = cfg.Shell
		}
		if cfg.WorkDir != "" {
			shared["workdir"] = cfg.WorkDir
		}
		if len(cfg.Env) > 0 {
			shared["env"] = envSlice(cfg.Env)
		}

		probeParams := cloneParams(shared)
		probeParams["command"] = cfg.Check
		actionParams := cloneParams(shared)
		actionParams["command"] = cfg.Command
		return &binding{
			probeType: "command_succeeds", probeParams: probeParams,
			actionType: "run_command", actionParams: actionParams,
		}, nil

	case "repo":
		cfg := item.Repo
		actionParams := map[string]any{"url": cfg.URL, "destination": cfg.Destination}
		if cfg.Branch != "" {
			actionParams["branch"] = cfg.Branch
		}
		if cfg.Depth > 0 {
			actionParams["depth"] = cfg.Depth
		}
		return &binding{
			probeType: "repo_cloned", probeParams: map[string]any{
				"destination": cfg.Destination, "url": cfg.URL,
			},
			actionType: "repo_clone", actionParams: actionParams,
		}, nil

	case "symlink":
		cfg := item.Symlink
		if cfg.state() == "absent" {
			return &binding{
				probeType: "file_absent", probeParams: map[string]any{"path": cfg.Path},
				actionType: "remove_path", actionParams: map[string]any{"path": cfg.Path},
			}, nil
		}
		return &binding{
			probeType: "symlink_points", probeParams: map[string]any{
				"path": cfg.Path, "target": cfg.Target,
			},
			actionType: "make_symlink", actionParams: map[string]any{
				"path": cfg.Path, "target": cfg.Target, "force": cfg.Force,
			},
		}, nil

	case "download":
		cfg := item.Download
		probeParams := map[string]any{"path": cfg.Path}
		actionParams := map[string]any{"url": cfg.URL, "path": cfg.Path}
		if cfg.SHA256 != "" {
			probeParams["sha256"] = cfg.SHA256
			actionParams["sha256"] = cfg.SHA256
		}
		actionParams = withMode(actionParams, cfg.Mode)
		return &binding{
			probeType: "artifact_present", probeParams: probeParams,
			actionType: "download_file", actionParams: actionParams,
		}, nil

	case "custom":
		cfg := item.Custom
		return &binding{
			probeType: cfg.Probe.Type, probeParams: cloneParams(cfg.Probe.Params),
			actionType: cfg.Action.Type, actionParams: cloneParams(cfg.Action.Params),
		}, nil

	default:
		return nil, gwerrors.NewValidationError(item.ID, fmt.Sprintf("unknown item kind %q", item.Kind), nil)
	}
}

func cloneParams(params map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = v
	}
	return out
}

func withMode(params map[string]any, mode int) map[string]any {
	if mode != 0 {
		params["mode"] = mode
	}
	return params
}

func envSlice(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

// renderParams runs every string in the parameter map through
// text/template with the sprig function set. Values without template
// markers pass through untouched.
func renderParams(itemID string, params map[string]any, data map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(params))
	for key, value := range params {
		rendered, err := renderValue(value, data)
		if err != nil {
			return nil, gwerrors.NewValidationError(itemID,
				fmt.Sprintf("template in %q: %v", key, err), err)
		}
		out[key] = rendered
	}
	return out, nil
}

func renderValue(value any, data map[string]any) (any, error) {
	switch v := value.(type) {
	case string:
		return renderString(v, data)
	case []string:
		out := make([]string, len(v))
		for i, s := range v {
			rendered, err := renderString(s, data)
			if err != nil {
				return nil, err
			}
			out[i] = rendered
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			rendered, err := renderValue(item, data)
			if err != nil {
				return nil, err
			}
			out[i] = rendered
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			rendered, err := renderValue(item, data)
			if err != nil {
				return nil, err
			}
			out[k] = rendered
		}
		return out, nil
	default:
		return value, nil
	}
}

func renderString(s string, data map[string]any) (string, error) {
	if !strings.Contains(s, "{{") {
		return s, nil
	}

	tmpl, err := template.New("param").Funcs(sprig.TxtFuncMap()).Option("missingkey=error").Parse(s)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}
