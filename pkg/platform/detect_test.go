package platform

import (
	"errors"
	"testing"
)

// fakeDetector returns a detector whose environment is fully controlled
// by the test: no env vars, no executables, no readable files.
func fakeDetector() *Detector {
	return &Detector{
		Getenv:   func(string) string { return "" },
		LookPath: func(string) (string, error) { return "", errors.New("not found") },
		ReadFile: func(string) ([]byte, error) { return nil, errors.New("no such file") },
		GOOS:     "linux",
		GOARCH:   "amd64",
	}
}

func TestDetectDefaults(t *testing.T) {
	d := fakeDetector()
	p := d.Detect()

	if p.OS != OSLinux {
		t.Errorf("OS = %q, want %q", p.OS, OSLinux)
	}
	if p.Arch != ArchAMD64 {
		t.Errorf("Arch = %q, want %q", p.Arch, ArchAMD64)
	}
	if p.DisplayServer != DisplayConsole {
		t.Errorf("DisplayServer = %q, want %q", p.DisplayServer, DisplayConsole)
	}
	if p.PackageManager != PkgUnknown {
		t.Errorf("PackageManager = %q, want %q", p.PackageManager, PkgUnknown)
	}
	if p.HasPackageManager() {
		t.Error("HasPackageManager() = true with no manager on PATH")
	}
}

func TestDetectArchNormalization(t *testing.T) {
	cases := []struct {
		in   string
		want Arch
	}{
		{"x86_64", ArchAMD64},
		{"amd64", ArchAMD64},
		{"aarch64", ArchARM64},
		{"arm64", ArchARM64},
		{"armv7l", ArchUnknown},
		{"riscv64", ArchUnknown},
	}

	for _, tc := range cases {
		d := fakeDetector()
		d.GOARCH = tc.in
		if got := d.Detect().Arch; got != tc.want {
			t.Errorf("arch %q normalized to %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDetectOSClassification(t *testing.T) {
	d := fakeDetector()
	d.GOOS = "darwin"
	if got := d.Detect().OS; got != OSMacOS {
		t.Errorf("darwin classified as %q, want %q", got, OSMacOS)
	}

	d.GOOS = "freebsd"
	if got := d.Detect().OS; got != OSUnknown {
		t.Errorf("freebsd classified as %q, want %q", got, OSUnknown)
	}
}

func TestDetectPackageManagerPriority(t *testing.T) {
	// brew outranks apt even when both are present.
	d := fakeDetector()
	d.LookPath = func(file string) (string, error) {
		switch file {
		case "brew", "apt":
			return "/usr/bin/" + file, nil
		}
		return "", errors.New("not found")
	}
	if got := d.Detect().PackageManager; got != PkgBrew {
		t.Errorf("PackageManager = %q, want %q", got, PkgBrew)
	}

	// apt wins over later entries when brew is absent.
	d.LookPath = func(file string) (string, error) {
		switch file {
		case "apt", "pacman":
			return "/usr/bin/" + file, nil
		}
		return "", errors.New("not found")
	}
	if got := d.Detect().PackageManager; got != PkgApt {
		t.Errorf("PackageManager = %q, want %q", got, PkgApt)
	}
}

func TestDetectEnvHints(t *testing.T) {
	env := map[string]string{
		EnvOS:             "macos",
		EnvArch:           "aarch64",
		EnvDisplayServer:  "wayland",
		EnvPackageManager: "brew",
	}
	d := fakeDetector()
	d.Getenv = func(key string) string { return env[key] }

	p := d.Detect()
	if p.OS != OSMacOS || p.Arch != ArchARM64 || p.DisplayServer != DisplayWayland || p.PackageManager != PkgBrew {
		t.Errorf("env hints not honored: %+v", p)
	}
}

func TestDetectDisplayServerFromSession(t *testing.T) {
	d := fakeDetector()
	d.Getenv = func(key string) string {
		if key == "WAYLAND_DISPLAY" {
			return "wayland-0"
		}
		return ""
	}
	if got := d.Detect().DisplayServer; got != DisplayWayland {
		t.Errorf("DisplayServer = %q, want %q", got, DisplayWayland)
	}

	d.Getenv = func(key string) string {
		if key == "DISPLAY" {
			return ":0"
		}
		return ""
	}
	if got := d.Detect().DisplayServer; got != DisplayX11 {
		t.Errorf("DisplayServer = %q, want %q", got, DisplayX11)
	}

	p := d.Detect()
	if !p.Desktop() {
		t.Error("Desktop() = false with DISPLAY set")
	}
}

func TestDetectDistro(t *testing.T) {
	d := fakeDetector()
	d.ReadFile = func(name string) ([]byte, error) {
		if name == "/etc/os-release" {
			return []byte("NAME=\"Ubuntu\"\nID=ubuntu\nVERSION_ID=\"24.04\"\n"), nil
		}
		return nil, errors.New("no such file")
	}
	if got := d.Detect().Distro; got != "ubuntu" {
		t.Errorf("Distro = %q, want %q", got, "ubuntu")
	}

	d.GOOS = "darwin"
	if got := d.Detect().Distro; got != "none" {
		t.Errorf("Distro on macos = %q, want %q", got, "none")
	}
}

func TestDetectWSL(t *testing.T) {
	d := fakeDetector()
	d.ReadFile = func(name string) ([]byte, error) {
		if name == "/proc/version" {
			return []byte("Linux version 5.15.0-microsoft-standard-WSL2"), nil
		}
		return nil, errors.New("no such file")
	}
	if !d.Detect().WSL {
		t.Error("WSL = false for microsoft kernel")
	}
}
