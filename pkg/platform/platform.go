// Package platform detects the host environment: operating system family,
// CPU architecture, display server, and the package manager available on PATH.
// Detection is side-effect free; callers cache the result for the run.
package platform

// OS represents the operating system family.
type OS string

const (
	OSLinux   OS = "linux"
	OSMacOS   OS = "macos"
	OSUnknown OS = "unknown"
)

// Arch represents the normalized CPU architecture.
type Arch string

const (
	ArchAMD64   Arch = "amd64"
	ArchARM64   Arch = "arm64"
	ArchUnknown Arch = "unknown"
)

// DisplayServer represents the graphical session type.
type DisplayServer string

const (
	DisplayX11     DisplayServer = "x11"
	DisplayWayland DisplayServer = "wayland"
	DisplayConsole DisplayServer = "console"
	DisplayUnknown DisplayServer = "unknown"
)

// PackageManager identifies the package manager backend.
type PackageManager string

const (
	PkgBrew    PackageManager = "brew"
	PkgApt     PackageManager = "apt"
	PkgDnf     PackageManager = "dnf"
	PkgYum     PackageManager = "yum"
	PkgPacman  PackageManager = "pacman"
	PkgApk     PackageManager = "apk"
	PkgUnknown PackageManager = "unknown"
)

// Platform describes the detected host environment.
// Computed once per process and treated as immutable afterward.
type Platform struct {
	// OS is the operating system family.
	OS OS `json:"os"`

	// Distro is the Linux distribution ID from /etc/os-release,
	// "none" on macOS, "unknown" when undeterminable.
	Distro string `json:"distro"`

	// Arch is the normalized CPU architecture.
	Arch Arch `json:"arch"`

	// DisplayServer is the graphical session type.
	DisplayServer DisplayServer `json:"display_server"`

	// PackageManager is the first supported package manager found on PATH.
	PackageManager PackageManager `json:"package_manager"`

	// WSL is true when running under Windows Subsystem for Linux.
	WSL bool `json:"wsl"`
}

// Desktop reports whether a graphical session is available.
func (p Platform) Desktop() bool {
	return p.DisplayServer == DisplayX11 || p.DisplayServer == DisplayWayland
}

// HasPackageManager reports whether a supported package manager was detected.
func (p Platform) HasPackageManager() bool {
	return p.PackageManager != PkgUnknown && p.PackageManager != ""
}
