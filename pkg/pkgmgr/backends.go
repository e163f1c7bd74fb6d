package pkgmgr

import "github.com/homeforge/homeforge/pkg/platform"

// backendSpec holds the native command shapes for one package manager.
// Install and update go through sudo where the backend needs it; query
// commands are always unprivileged.
type backendSpec struct {
	install func(name string) (bin string, args []string)
	update  func() (bin string, args []string)
	query   func(name string) (bin string, args []string)
}

func sudo(bin string, args ...string) (string, []string) {
	return "sudo", append([]string{bin}, args...)
}

var backends = map[platform.PackageManager]backendSpec{
	platform.PkgApt: {
		install: func(name string) (string, []string) {
			return sudo("apt", "install", "-y", name)
		},
		update: func() (string, []string) {
			return sudo("apt", "update")
		},
		query: func(name string) (string, []string) {
			return "dpkg-query", []string{"-W", "-f=${Version}", name}
		},
	},
	platform.PkgDnf: {
		install: func(name string) (string, []string) {
			return sudo("dnf", "install", "-y", name)
		},
		update: func() (string, []string) {
			return sudo("dnf", "makecache")
		},
		query: func(name string) (string, []string) {
			return "rpm", []string{"-q", name}
		},
	},
	platform.PkgYum: {
		install: func(name string) (string, []string) {
			return sudo("yum", "install", "-y", name)
		},
		update: func() (string, []string) {
			return sudo("yum", "makecache")
		},
		query: func(name string) (string, []string) {
			return "rpm", []string{"-q", name}
		},
	},
	platform.PkgPacman: {
		install: func(name string) (string, []string) {
			return sudo("pacman", "-S", "--noconfirm", name)
		},
		update: func() (string, []string) {
			return sudo("pacman", "-Sy")
		},
		query: func(name string) (string, []string) {
			return "pacman", []string{"-Qi", name}
		},
	},
	platform.PkgApk: {
		install: func(name string) (string, []string) {
			return sudo("apk", "add", name)
		},
		update: func() (string, []string) {
			return sudo("apk", "update")
		},
		query: func(name string) (string, []string) {
			return "apk", []string{"info", "-e", name}
		},
	},
	platform.PkgBrew: {
		// Homebrew refuses to run as root; no sudo anywhere.
		install: func(name string) (string, []string) {
			return "brew", []string{"install", name}
		},
		update: func() (string, []string) {
			return "brew", []string{"update"}
		},
		query: func(name string) (string, []string) {
			return "brew", []string{"list", "--versions", name}
		},
	},
}
