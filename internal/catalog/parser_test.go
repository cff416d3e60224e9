package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	gwerrors "github.com/avigneault/groundwork/pkg/errors"
)

const workstationYAML = `version: "1.0"
name: "Security Workstation"
description: "Alpine security workstation baseline"
settings:
  timeout_seconds: 300
vars:
  install_llm: true
provision:
  - id: base_tools
    kind: package
    packages: [jq, curl, git]
  - id: nix_runtime
    kind: command
    critical: true
    check: "nix --version"
    command: "sh /opt/install-nix.sh"
  - id: starship_profile
    kind: profile_block
    path: ~/.profile
    content: 'eval "$(starship init bash)"'
  - id: sshd_running
    kind: service
    service: sshd
    running: true
    depends_on: [base_tools]
teardown:
  - id: starship_profile
    kind: profile_block
    path: ~/.profile
    state: absent
`

func writeTempCatalog(t *testing.T, contents string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestParseFile(t *testing.T) {
	t.Parallel()

	path := writeTempCatalog(t, workstationYAML)
	doc, err := ParseFile(path)
	require.NoError(t, err)
	require.NotNil(t, doc)

	require.Equal(t, "Security Workstation", doc.Name)
	require.Equal(t, 300, doc.Settings.TimeoutSeconds)
	require.Equal(t, true, doc.Vars["install_llm"])
	require.Len(t, doc.Provision, 4)
	require.Len(t, doc.Teardown, 1)

	pkg := doc.Provision[0]
	require.Equal(t, "package", pkg.Kind)
	require.NotNil(t, pkg.Package)
	require.Equal(t, []string{"jq", "curl", "git"}, pkg.Package.Packages)

	cmd := doc.Provision[1]
	require.True(t, cmd.Critical)
	require.NotNil(t, cmd.Command)
	require.Equal(t, "nix --version", cmd.Command.Check)

	block := doc.Provision[2]
	require.NotNil(t, block.Block)
	require.Equal(t, "present", block.Block.state())

	svc := doc.Provision[3]
	require.Equal(t, []string{"base_tools"}, svc.DependsOn)
	require.True(t, svc.Service.Running)

	down := doc.Teardown[0]
	require.Equal(t, "absent", down.Block.state())
}

func TestParseFileMissing(t *testing.T) {
	t.Parallel()

	_, err := ParseFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)

	var parseErr *gwerrors.ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("version: [1, 0]\nname: broken\nprovision:\n  - id: x\n"), "catalog.yaml")
	require.Error(t, err)

	var parseErr *gwerrors.ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Contains(t, parseErr.Message, "cannot unmarshal")
}

func TestParseReportsLineNumbers(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("version: \"1.0\"\nname: x\nprovision: {not: a list}\n"), "catalog.yaml")
	require.Error(t, err)

	var parseErr *gwerrors.ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, 3, parseErr.Line)
}

func TestItemUnmarshalKeepsUnknownKindBodyNil(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte(`version: "1.0"
name: x
provision:
  - id: weird
    kind: teleport
`), "catalog.yaml")
	require.Error(t, err)

	var validationErr *gwerrors.ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Message, "kind")
}
