package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/vyuha/portfolioviz/internal/config"
	"github.com/vyuha/portfolioviz/internal/layout"
	"github.com/vyuha/portfolioviz/internal/session"
	"github.com/vyuha/portfolioviz/internal/ui"
	"github.com/vyuha/portfolioviz/internal/view"
)

func layoutConfig(cfg *config.Config) layout.Config {
	lc := layout.DefaultConfig()
	lc.Width = cfg.Layout.Width
	lc.Height = cfg.Layout.Height
	lc.Iterations = cfg.Layout.Iterations
	return lc
}

// lineForm is a search form fed by lines of text.
type lineForm struct {
	submit func(q string)
}

func (f *lineForm) OnSubmit(fn func(q string)) { f.submit = fn }

// run submits every line of r until EOF.
func (f *lineForm) run(r io.Reader) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if f.submit != nil {
			f.submit(sc.Text())
		}
	}
	return sc.Err()
}

// termCamera prints camera commands instead of animating them.
type termCamera struct {
	w io.Writer
}

func (c termCamera) ZoomToFit(d time.Duration, paddingPx int, keep func(int) bool) {
	if keep == nil {
		fmt.Fprintln(c.w, ui.Subtle.Sprintf("  [camera] fit all nodes (%s, %dpx)", d, paddingPx))
		return
	}
	fmt.Fprintln(c.w, ui.Subtle.Sprintf("  [camera] fit matches (%s, %dpx)", d, paddingPx))
}

func (c termCamera) CenterAt(p layout.Point, d time.Duration) {
	fmt.Fprintln(c.w, ui.Subtle.Sprintf("  [camera] center at (%.1f, %.1f) (%s)", p.X, p.Y, d))
}

var _ view.Camera = termCamera{}

func searchCmd() *cobra.Command {
	var showCamera bool

	cmd := &cobra.Command{
		Use:   "search <location> [query...]",
		Short: "Search a portfolio's names and addresses",
		Long: `Highlight the nodes whose label contains the query, ignoring case.
With no query, read one query per line from stdin; a blank line resets.

  portfolioctl search acme.json "main st"
  portfolioctl search catalog:acme < queries.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			// A portfolio that fails to load is reported and nothing else runs.
			p, m, err := loadModel(cmd.Context(), cfg, args[0])
			if err != nil {
				return err
			}

			geo := layout.Compute(m, layoutConfig(cfg))
			var cam view.Camera
			if showCamera {
				cam = termCamera{w: out}
			}
			sess := session.New(uuid.New().String(), args[0], m, geo, cam)

			ui.Banner(out, p.Title)
			fmt.Fprintf(out, "  %s\n\n", m.StatusLine())

			form := &lineForm{}
			sess.Bind(form, func(o session.Outcome) {
				printOutcome(out, sess, o)
			})

			if len(args) > 1 {
				form.submit(strings.Join(args[1:], " "))
				return nil
			}
			return form.run(cmd.InOrStdin())
		},
	}
	cmd.Flags().BoolVar(&showCamera, "camera", false, "Print camera commands")
	return cmd
}

func printOutcome(w io.Writer, sess *session.Session, o session.Outcome) {
	icon := ui.StatusIcon(len(o.Selected) > 0)
	if o.Kind == session.OutcomeReset {
		icon = ui.Info.Sprint("↺")
	} else if o.Kind == session.OutcomeNoMatch {
		icon = ui.WarnIcon()
	}
	fmt.Fprintf(w, "  %s %s\n", icon, o.Message)

	model := sess.Model()
	for _, id := range o.Selected {
		n, ok := model.Node(id)
		if !ok {
			continue
		}
		fmt.Fprintf(w, "      %s\n", ui.Node(n.Label, sess.NodeColor(id)))
	}
}
