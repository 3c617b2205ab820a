package commands

import (
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/sitebuild/internal/assets"
	"git.home.luguber.info/inful/sitebuild/internal/errors"
	"git.home.luguber.info/inful/sitebuild/internal/pages"
)

// DiscoverCmd implements the 'discover' command.
type DiscoverCmd struct{}

func (d *DiscoverCmd) Run(g *Global, root *CLI) error {
	dir, cfg, err := loadSite(root)
	if err != nil {
		return err
	}
	out := g.stdout()

	found, err := pages.FindPages(dir, cfg)
	if err != nil {
		return errors.DiscoveryFailed(err)
	}
	found = pages.Outside(found, cfg.OutputPath(dir))

	proc := pages.NewProcessor(dir, cfg.OutputDir, "", cfg, nil)
	_, _ = fmt.Fprintf(out, "Pages (%d):\n", len(found))
	for _, p := range found {
		page, err := proc.Plan(p)
		if err != nil {
			return errors.DiscoveryFailed(err)
		}
		source := "default"
		if page.FromTable {
			source = "table"
		}
		_, _ = fmt.Fprintf(out, "  %s → %s  %q (%s)\n",
			filepath.ToSlash(page.RelPath), filepath.Join(cfg.OutputDir, page.RelPath), page.Title, source)
	}

	decisions, err := assets.Classify(dir, cfg.OutputPath(dir), cfg)
	if err != nil {
		return errors.AssetCopyFailed(err)
	}
	_, _ = fmt.Fprintln(out, "Assets:")
	for _, dec := range decisions {
		if dec.Action == assets.ActionSkip {
			_, _ = fmt.Fprintf(out, "  %-9s %s (%s)\n", dec.Action, dec.Name, dec.Reason)
			continue
		}
		_, _ = fmt.Fprintf(out, "  %-9s %s\n", dec.Action, dec.Name)
	}
	return nil
}
