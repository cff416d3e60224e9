// Package facts gathers host information once per run. Probes, actions,
// `when:` conditions, and templates all read from the same snapshot so a
// run sees a consistent view of the host.
package facts

import (
	"bufio"
	"os"
	"os/exec"
	"os/user"
	"runtime"
	"strings"
)

// Paths consulted during gathering. Variables so tests can point them at
// fixtures.
var (
	osReleasePath = "/etc/os-release"
	procInitComm  = "/proc/1/comm"
)

// Facts is a snapshot of the host taken at the start of a run.
type Facts struct {
	OS             string
	Arch           string
	Distro         string
	DistroLike     string
	DistroVersion  string
	PrettyName     string
	Hostname       string
	Username       string
	Home           string
	PackageManager string
	InitSystem     string
}

// Gather collects host facts. Missing sources degrade to empty or "unknown"
// values rather than failing; a probe that needs a fact the host cannot
// provide reports indeterminate on its own.
func Gather() Facts {
	f := Facts{
		OS:             runtime.GOOS,
		Arch:           runtime.GOARCH,
		PackageManager: detectPackageManager(),
		InitSystem:     detectInitSystem(),
	}

	release := readOSRelease(osReleasePath)
	f.Distro = release["ID"]
	f.DistroLike = release["ID_LIKE"]
	f.DistroVersion = release["VERSION_ID"]
	f.PrettyName = release["PRETTY_NAME"]

	if hostname, err := os.Hostname(); err == nil {
		f.Hostname = hostname
	}
	if current, err := user.Current(); err == nil {
		f.Username = current.Username
		f.Home = current.HomeDir
	}
	if f.Home == "" {
		f.Home, _ = os.UserHomeDir()
	}

	return f
}

// Map exposes the facts as an expression/template environment.
func (f Facts) Map() map[string]any {
	return map[string]any{
		"os":              f.OS,
		"arch":            f.Arch,
		"distro":          f.Distro,
		"distro_like":     f.DistroLike,
		"distro_version":  f.DistroVersion,
		"pretty_name":     f.PrettyName,
		"hostname":        f.Hostname,
		"username":        f.Username,
		"home":            f.Home,
		"package_manager": f.PackageManager,
		"init_system":     f.InitSystem,
	}
}

// readOSRelease parses KEY=VALUE lines, trimming surrounding quotes.
func readOSRelease(path string) map[string]string {
	info := make(map[string]string)
	f, err := os.Open(path)
	if err != nil {
		return info
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if parts := strings.SplitN(line, "=", 2); len(parts) == 2 {
			info[parts[0]] = strings.Trim(parts[1], "\"")
		}
	}
	return info
}

func detectPackageManager() string {
	if _, err := exec.LookPath("apk"); err == nil {
		return "apk"
	}
	if _, err := exec.LookPath("apt-get"); err == nil {
		return "apt"
	}
	return "unknown"
}

func detectInitSystem() string {
	if comm, err := os.ReadFile(procInitComm); err == nil {
		if strings.TrimSpace(string(comm)) == "systemd" {
			return "systemd"
		}
	}
	if _, err := os.Stat("/run/systemd/system"); err == nil {
		return "systemd"
	}
	if _, err := os.Stat("/run/openrc"); err == nil {
		return "openrc"
	}
	if _, err := exec.LookPath("rc-service"); err == nil {
		return "openrc"
	}
	if _, err := os.Stat("/etc/init.d"); err == nil {
		return "sysvinit"
	}
	return "unknown"
}
