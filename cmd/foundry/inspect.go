package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/foundry-lang/foundry/workspace"
)

var inspectVerbose bool

func init() {
	inspectCmd.Flags().BoolVar(&inspectVerbose, "verbose", false, "Show detailed load output")
}

var inspectCmd = &cobra.Command{
	Use:   "inspect [dir]",
	Short: "Load a foundry workspace and print its projects and diagnostics",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) > 0 {
			dir = args[0]
		}

		h, err := newHost(dir, inspectVerbose)
		if err != nil {
			return err
		}
		defer h.ws.Close()

		if err := h.loadSolution(dir); err != nil {
			return err
		}

		printSolution(h.ws.CurrentSolution())
		printDiagnostics(h.ws.Diagnostics())
		return nil
	},
}

func printSolution(s *workspace.Solution) {
	heading := color.New(color.FgCyan, color.Bold)
	heading.Printf("Solution %s\n", s.ID())
	fmt.Printf("  version: %s\n", s.Version())

	for _, p := range s.Projects() {
		heading.Printf("Project %s (%s)\n", p.Name(), p.Language())
		fmt.Printf("  version: %s\n", p.Version())
		fmt.Printf("  latest document version: %s\n", p.LatestDocumentVersion())
		if p.OutputPath() != "" {
			fmt.Printf("  output: %s\n", p.OutputPath())
		}
		for _, d := range p.Documents() {
			name := d.Name()
			if len(d.Folders()) > 0 {
				name = strings.Join(d.Folders(), "/") + "/" + name
			}
			fmt.Printf("  document %s (version %s)\n", name, d.Version())
		}
		for _, d := range p.AdditionalDocuments() {
			fmt.Printf("  additional %s\n", d.Name())
		}
		for _, r := range p.ProjectReferences() {
			fmt.Printf("  -> project %s\n", r.ProjectID)
		}
		for _, r := range p.MetadataReferences() {
			fmt.Printf("  -> metadata %s\n", r.Path)
		}
		for _, r := range p.AnalyzerReferences() {
			fmt.Printf("  -> analyzer %s\n", r.Path)
		}
	}
}

func printDiagnostics(diags []workspace.Diagnostic) {
	if len(diags) == 0 {
		return
	}
	warn := color.New(color.FgYellow)
	fail := color.New(color.FgRed)
	for _, d := range diags {
		c := warn
		if d.Severity == workspace.DiagnosticSeverityError {
			c = fail
		}
		c.Printf("%s: %s (%s)\n", d.Severity, d.Message, d.Path)
	}
}

// contextWithInterrupt returns a context cancelled on Ctrl-C.
func contextWithInterrupt() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	go func() {
		<-ch
		cancel()
	}()
	return ctx
}
