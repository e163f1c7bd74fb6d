package platform

import (
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Environment variables honored as detection hints when pre-set.
const (
	EnvOS             = "HOMEFORGE_OS"
	EnvArch           = "HOMEFORGE_ARCH"
	EnvDisplayServer  = "HOMEFORGE_DISPLAY_SERVER"
	EnvPackageManager = "HOMEFORGE_PKG_MANAGER"
)

// managerPriority is the fixed probe order for package managers.
// brew is checked first so a Linux user who installed Homebrew alongside
// apt is still routed to brew deterministically.
var managerPriority = []PackageManager{PkgBrew, PkgApt, PkgDnf, PkgYum, PkgPacman, PkgApk}

// Detector inspects the host environment. The function fields default to the
// real OS facilities and are replaceable in tests.
type Detector struct {
	// Getenv reads an environment variable. Defaults to os.Getenv.
	Getenv func(key string) string

	// LookPath probes PATH for an executable. Defaults to exec.LookPath.
	LookPath func(file string) (string, error)

	// ReadFile reads a file. Defaults to os.ReadFile.
	ReadFile func(name string) ([]byte, error)

	// GOOS and GOARCH identify the build target. Default to runtime values.
	GOOS   string
	GOARCH string
}

// NewDetector returns a detector backed by the real host environment.
func NewDetector() *Detector {
	return &Detector{
		Getenv:   os.Getenv,
		LookPath: exec.LookPath,
		ReadFile: os.ReadFile,
		GOOS:     runtime.GOOS,
		GOARCH:   runtime.GOARCH,
	}
}

// Detect classifies the host environment. Every dimension that cannot be
// resolved comes back as its unknown value rather than an error; callers
// must handle unknown explicitly.
func Detect() Platform {
	return NewDetector().Detect()
}

// Detect classifies the host environment using the detector's facilities.
func (d *Detector) Detect() Platform {
	p := Platform{
		OS:             d.detectOS(),
		Arch:           d.detectArch(),
		DisplayServer:  d.detectDisplayServer(),
		PackageManager: d.detectPackageManager(),
	}
	p.Distro = d.detectDistro(p.OS)
	p.WSL = d.detectWSL(p.OS)
	return p
}

func (d *Detector) detectOS() OS {
	if hint := d.Getenv(EnvOS); hint != "" {
		return normalizeOS(hint)
	}
	return normalizeOS(d.GOOS)
}

func normalizeOS(s string) OS {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "linux":
		return OSLinux
	case "darwin", "macos":
		return OSMacOS
	default:
		return OSUnknown
	}
}

func (d *Detector) detectArch() Arch {
	if hint := d.Getenv(EnvArch); hint != "" {
		return normalizeArch(hint)
	}
	return normalizeArch(d.GOARCH)
}

func normalizeArch(s string) Arch {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "amd64", "x86_64":
		return ArchAMD64
	case "arm64", "aarch64":
		return ArchARM64
	default:
		return ArchUnknown
	}
}

func (d *Detector) detectDisplayServer() DisplayServer {
	if hint := d.Getenv(EnvDisplayServer); hint != "" {
		switch strings.ToLower(strings.TrimSpace(hint)) {
		case "wayland":
			return DisplayWayland
		case "x11":
			return DisplayX11
		case "console":
			return DisplayConsole
		default:
			return DisplayUnknown
		}
	}
	if d.Getenv("WAYLAND_DISPLAY") != "" {
		return DisplayWayland
	}
	if d.Getenv("DISPLAY") != "" {
		return DisplayX11
	}
	return DisplayConsole
}

func (d *Detector) detectPackageManager() PackageManager {
	if hint := d.Getenv(EnvPackageManager); hint != "" {
		for _, mgr := range managerPriority {
			if strings.EqualFold(hint, string(mgr)) {
				return mgr
			}
		}
		return PkgUnknown
	}
	for _, mgr := range managerPriority {
		if _, err := d.LookPath(string(mgr)); err == nil {
			return mgr
		}
	}
	return PkgUnknown
}

func (d *Detector) detectDistro(osFamily OS) string {
	if osFamily != OSLinux {
		return "none"
	}
	data, err := d.ReadFile("/etc/os-release")
	if err != nil {
		return "unknown"
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "ID=") {
			id := strings.TrimPrefix(line, "ID=")
			return strings.ToLower(strings.Trim(id, "\""))
		}
	}
	return "unknown"
}

func (d *Detector) detectWSL(osFamily OS) bool {
	if osFamily != OSLinux {
		return false
	}
	data, err := d.ReadFile("/proc/version")
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(string(data)), "microsoft")
}
