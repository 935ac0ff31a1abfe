package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/foundry-lang/foundry/internal/watch"
	"github.com/foundry-lang/foundry/workspace"
)

var watchVerbose bool

func init() {
	watchCmd.Flags().BoolVar(&watchVerbose, "verbose", false, "Show detailed watch output")
}

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Load a foundry workspace and log change events as files are edited",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) > 0 {
			dir = args[0]
		}

		h, err := newHost(dir, watchVerbose)
		if err != nil {
			return err
		}
		defer h.ws.Close()

		if err := h.loadSolution(dir); err != nil {
			return err
		}
		printDiagnostics(h.ws.Diagnostics())

		event := color.New(color.FgGreen)
		sub := h.ws.Subscribe(func(e workspace.Event) {
			switch e.Kind {
			case workspace.DocumentChanged, workspace.DocumentAdded, workspace.DocumentRemoved:
				doc, _ := e.NewSolution.Document(e.DocumentID)
				name := e.DocumentID.String()
				if doc != nil {
					name = doc.Name()
				}
				event.Printf("%s %s\n", e.Kind, name)
			default:
				event.Printf("%s\n", e.Kind)
			}
		})
		defer sub.Unsubscribe()

		sw, err := watch.NewSolutionWatcher(h.ws, h.source, h.cfg.Debounce(), h.logger)
		if err != nil {
			return err
		}
		sw.Start()
		defer sw.Stop()

		fmt.Println("Watching for changes. Press Ctrl-C to stop.")
		<-contextWithInterrupt().Done()
		return nil
	},
}
