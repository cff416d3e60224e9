package catalog

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	gwerrors "github.com/avigneault/groundwork/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	semverPattern = regexp.MustCompile(`^\d+\.\d+(?:\.\d+)?(?:-[0-9A-Za-z-.]+)?(?:\+[0-9A-Za-z-.]+)?$`)
	itemIDPattern = regexp.MustCompile(`^[a-z0-9_]+$`)
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("semver", func(fl validator.FieldLevel) bool {
			return semverPattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("item_id", func(fl validator.FieldLevel) bool {
			return itemIDPattern.MatchString(fl.Field().String())
		})

		validateInst = v
	})

	return validateInst
}

// Validate performs schema and cross-item validation on a catalog. Both the
// provision and teardown lists get the same treatment; IDs are unique
// within each list, not across them, so a teardown item may reuse the ID of
// the provision item it undoes.
func Validate(doc *Document) error {
	if doc == nil {
		return gwerrors.NewValidationError("catalog", "catalog is nil", nil)
	}

	v := validatorInstance()
	if err := v.Struct(doc); err != nil {
		return convertValidationError(err)
	}

	if err := validateItems("provision", doc.Provision); err != nil {
		return err
	}
	if err := validateItems("teardown", doc.Teardown); err != nil {
		return err
	}
	return nil
}

func validateItems(list string, items []Item) error {
	index := make(map[string]int, len(items))

	for i, item := range items {
		if _, exists := index[item.ID]; exists {
			return gwerrors.NewValidationError(
				fieldForItem(list, i, "id"),
				fmt.Sprintf("duplicate item id %q", item.ID), nil)
		}
		if err := validateItem(item); err != nil {
			return err
		}
		index[item.ID] = i
	}

	for i, item := range items {
		for _, dep := range item.DependsOn {
			if dep == item.ID {
				return gwerrors.NewValidationError(
					fieldForItem(list, i, "depends_on"),
					fmt.Sprintf("item %q depends on itself", item.ID), nil)
			}
			depIndex, ok := index[dep]
			if !ok {
				return gwerrors.NewValidationError(
					fieldForItem(list, i, "depends_on"),
					fmt.Sprintf("references unknown item %q", dep), nil)
			}
			// Execution is strictly declaration order, so a dependency
			// declared later can never have run first.
			if depIndex > i {
				return gwerrors.NewValidationError(
					fieldForItem(list, i, "depends_on"),
					fmt.Sprintf("depends on %q which is declared later; reorder the items", dep), nil)
			}
		}
	}

	if cycle := detectCycle(items); len(cycle) > 0 {
		return gwerrors.NewValidationError(list,
			fmt.Sprintf("dependency cycle detected: %s", strings.Join(cycle, " -> ")), nil)
	}
	return nil
}

func validateItem(item Item) error {
	v := validatorInstance()
	if err := v.Struct(item); err != nil {
		return convertValidationError(err)
	}

	requireBody := func(body any, present bool) error {
		if !present {
			return gwerrors.NewValidationError(item.ID,
				fmt.Sprintf("%s configuration is required", item.Kind), nil)
		}
		if err := v.Struct(body); err != nil {
			return convertValidationError(err)
		}
		return nil
	}

	switch item.Kind {
	case "package":
		return requireBody(item.Package, item.Package != nil)
	case "file":
		if err := requireBody(item.File, item.File != nil); err != nil {
			return err
		}
		if item.File.Content != "" && item.File.Source != "" {
			return gwerrors.NewValidationError(item.ID, "content and source are mutually exclusive", nil)
		}
		return nil
	case "profile_block":
		if err := requireBody(item.Block, item.Block != nil); err != nil {
			return err
		}
		if item.Block.state() == "present" && item.Block.Content == "" {
			return gwerrors.NewValidationError(item.ID, "content is required for a present block", nil)
		}
		return nil
	case "service":
		return requireBody(item.Service, item.Service != nil)
	case "command":
		return requireBody(item.Command, item.Command != nil)
	case "repo":
		return requireBody(item.Repo, item.Repo != nil)
	case "symlink":
		if err := requireBody(item.Symlink, item.Symlink != nil); err != nil {
			return err
		}
		if item.Symlink.state() == "present" && item.Symlink.Target == "" {
			return gwerrors.NewValidationError(item.ID, "target is required for a present symlink", nil)
		}
		return nil
	case "download":
		return requireBody(item.Download, item.Download != nil)
	case "custom":
		return requireBody(item.Custom, item.Custom != nil)
	default:
		return gwerrors.NewValidationError(item.ID, fmt.Sprintf("unknown item kind %q", item.Kind), nil)
	}
}

// detectCycle returns the item IDs participating in a dependency cycle, or
// nil when none exists. Declaration-order enforcement already rejects
// forward references, which makes cycles impossible in practice; this keeps
// the invariant explicit and catches same-index self references.
func detectCycle(items []Item) []string {
	graph := make(map[string][]string, len(items))
	for _, item := range items {
		graph[item.ID] = append([]string(nil), item.DependsOn...)
	}

	visiting := make(map[string]bool, len(items))
	visited := make(map[string]bool, len(items))
	var stack []string
	var cycle []string

	var dfs func(string) bool
	dfs = func(node string) bool {
		visiting[node] = true
		stack = append(stack, node)

		for _, dep := range graph[node] {
			if visited[dep] {
				continue
			}
			if visiting[dep] {
				idx := indexOf(stack, dep)
				if idx >= 0 {
					cycle = append([]string{}, stack[idx:]...)
					cycle = append(cycle, dep)
				}
				return true
			}
			if dfs(dep) {
				return true
			}
		}

		visiting[node] = false
		visited[node] = true
		stack = stack[:len(stack)-1]
		return false
	}

	ids := make([]string, 0, len(graph))
	for id := range graph {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if visited[id] {
			continue
		}
		if dfs(id) {
			break
		}
	}
	return cycle
}

func indexOf(slice []string, target string) int {
	for i, v := range slice {
		if v == target {
			return i
		}
	}
	return -1
}

func convertValidationError(err error) error {
	if err == nil {
		return nil
	}

	if ves, ok := err.(validator.ValidationErrors); ok && len(ves) > 0 {
		ve := ves[0]
		field := yamlishFieldName(ve)
		msg := fmt.Sprintf("%s failed validation for tag '%s'", field, ve.Tag())
		return gwerrors.NewValidationError(field, msg, err)
	}
	return gwerrors.NewValidationError("catalog", err.Error(), err)
}

func yamlishFieldName(fe validator.FieldError) string {
	parts := strings.Split(fe.StructNamespace(), ".")
	lowered := make([]string, 0, len(parts))
	for _, part := range parts {
		lowered = append(lowered, strings.ToLower(part))
	}
	return strings.Join(lowered, ".")
}

func fieldForItem(list string, index int, field string) string {
	return fmt.Sprintf("%s[%d].%s", list, index, field)
}

func (f *FileItem) state() string {
	if f == nil || f.State == "" {
		return "present"
	}
	return f.State
}

func (b *BlockItem) state() string {
	if b == nil || b.State == "" {
		return "present"
	}
	return b.State
}

func (s *SymlinkItem) state() string {
	if s == nil || s.State == "" {
		return "present"
	}
	return s.State
}

func (p *PackageItem) state() string {
	if p == nil || p.State == "" {
		return "present"
	}
	return p.State
}

func (s *ServiceItem) state() string {
	if s == nil || s.State == "" {
		return "enabled"
	}
	return s.State
}
