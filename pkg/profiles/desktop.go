package profiles

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/homeforge/homeforge/pkg/engine"
	"github.com/homeforge/homeforge/pkg/platform"
)

const nerdFontBaseURL = "https://github.com/ryanoasis/nerd-fonts/releases/latest/download"

// Desktop appends the desktop feature steps: Nerd Fonts into the user's
// font directory and the Caps Lock to Escape keyboard remap.
func Desktop(p *engine.Planner, d Deps) {
	p.AddStep(engine.Step{
		ID:          "desktop-fonts",
		Description: "install Nerd Fonts",
		MarkerID:    d.RC.Marker("desktop-fonts"),
		Criticality: engine.CriticalityWarn,
		Operation:   func(ctx context.Context) error { return d.installFonts(ctx) },
	})

	p.AddStep(engine.Step{
		ID:          "desktop-keyboard",
		Description: "remap Caps Lock to Escape",
		Criticality: engine.CriticalityWarn,
		Operation:   func(ctx context.Context) error { return d.setupKeyboard(ctx) },
	})
}

// installFonts downloads each configured font family into the user font
// directory and refreshes the font cache. One failing family is a warning,
// not the whole step's failure.
func (d Deps) installFonts(ctx context.Context) error {
	fontsDir := filepath.Join(d.Home, ".local", "share", "fonts")
	if err := d.Files.EnsureDir(fontsDir, 0o755); err != nil {
		return err
	}

	var failed int
	for _, font := range d.RC.Config.Fonts {
		url := fmt.Sprintf("%s/%s.tar.xz", nerdFontBaseURL, font)
		archive := filepath.Join(d.RC.WorkDir, font+".tar.xz")

		d.RC.Log.Infof("installing %s Nerd Font", font)
		if err := d.Run.Run(ctx, "curl", "-fsSL", "-o", archive, url); err != nil {
			d.RC.Log.Warnf("failed to download %s: %v", font, err)
			failed++
			continue
		}
		if err := d.Run.Run(ctx, "tar", "-xf", archive, "-C", fontsDir); err != nil {
			d.RC.Log.Warnf("failed to extract %s: %v", font, err)
			failed++
		}
	}

	if len(d.RC.Config.Fonts) > 0 && failed == len(d.RC.Config.Fonts) {
		return fmt.Errorf("no font family could be installed")
	}

	if d.commandExists("fc-cache") {
		if err := d.Run.Run(ctx, "fc-cache", "-f"); err != nil {
			d.RC.Log.Warnf("font cache refresh failed: %v", err)
		}
	}
	return nil
}

// setupKeyboard remaps Caps Lock to Escape using whatever mechanism the
// session offers. No usable mechanism is a logged no-op, not an error.
func (d Deps) setupKeyboard(ctx context.Context) error {
	switch d.RC.Platform.DisplayServer {
	case platform.DisplayX11:
		if d.commandExists("setxkbmap") {
			return d.Run.Run(ctx, "setxkbmap", "-option", "caps:escape")
		}
	case platform.DisplayWayland:
		if d.commandExists("gsettings") {
			return d.Run.Run(ctx, "gsettings", "set",
				"org.gnome.desktop.input-sources", "xkb-options", "['caps:escape']")
		}
	}
	d.RC.Log.Infof("no keyboard remap mechanism for display server %q, skipping",
		d.RC.Platform.DisplayServer)
	return nil
}
