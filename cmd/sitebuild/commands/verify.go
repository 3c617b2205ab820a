package commands

import (
	"fmt"

	"git.home.luguber.info/inful/sitebuild/internal/errors"
	"git.home.luguber.info/inful/sitebuild/internal/verify"
)

// VerifyCmd implements the 'verify' command.
type VerifyCmd struct{}

func (v *VerifyCmd) Run(g *Global, root *CLI) error {
	dir, cfg, err := loadSite(root)
	if err != nil {
		return err
	}
	out := g.stdout()

	report, err := verify.New(dir, cfg).Run()
	if err != nil {
		return err
	}
	for _, f := range report.Findings {
		_, _ = fmt.Fprintln(out, f.String())
	}
	_, _ = fmt.Fprintf(out, "Verified %d pages and %d assets in %s: %d findings\n",
		report.Pages, report.Assets, cfg.OutputDir, len(report.Findings))

	if !report.OK() {
		return errors.VerificationFailed(len(report.Findings))
	}
	return nil
}
