package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kazaamjt/eikobot/internal/diag"
	"github.com/kazaamjt/eikobot/internal/eval"
	"github.com/kazaamjt/eikobot/internal/export"
	"github.com/kazaamjt/eikobot/internal/plugin"
	"github.com/kazaamjt/eikobot/internal/resolver"
	"github.com/kazaamjt/eikobot/internal/resource"
)

var (
	compileFile                   string
	compileOutputModel            bool
	compileEnablePluginStacktrace bool
)

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Compile an Eiko module into a task graph",
	Long: `Compile parses, resolves imports, and evaluates an .eiko entrypoint,
then exports the resulting resource graph into a task DAG without deploying
anything.`,
	RunE: runCompile,
}

func init() {
	rootCmd.AddCommand(compileCmd)

	compileCmd.Flags().StringVarP(&compileFile, "file", "f", "", "entrypoint .eiko file (required)")
	compileCmd.Flags().BoolVar(&compileOutputModel, "output-model", false, "print the resolved resource model as JSON instead of the task count")
	compileCmd.Flags().BoolVar(&compileEnablePluginStacktrace, "enable-plugin-stacktrace", false, "note under internal plugin errors that no host stack trace is captured")
	compileCmd.MarkFlagRequired("file")
}

func runCompile(cmd *cobra.Command, args []string) error {
	graph, _, errs := compileModule(compileFile, plugin.NewRegistry())
	if len(errs) > 0 {
		printDiagnostics(errs, compileEnablePluginStacktrace)
		return fmt.Errorf("compilation failed with %d error(s)", len(errs))
	}

	if compileOutputModel {
		return printModel(graph)
	}

	fmt.Printf("Compiled %s: %d task(s)\n", compileFile, graph.Total)
	return nil
}

// compileModule runs the full compile pipeline spec.md §§4.D-4.I describe:
// parse the entrypoint, evaluate it (resolving imports and registering
// resources as they're encountered, with `import <plugin package>` served
// out of registry instead of the file-based resolver), then export the
// resulting object graph into a task DAG.
func compileModule(file string, registry *plugin.Registry) (*export.TaskGraph, *eval.Evaluator, []*diag.Error) {
	sm := diag.NewSourceMap()
	res := resolver.New(sm)
	builder := resource.NewBuilder()
	ev := eval.New(res, builder)
	ev.Plugins = registry

	canon, err := res.BeginLoad(file)
	if err != nil {
		return nil, ev, []*diag.Error{err.(*diag.Error)}
	}
	prog, parseErrs, err := res.Parse(canon)
	if err != nil {
		return nil, ev, []*diag.Error{err.(*diag.Error)}
	}
	if len(parseErrs) > 0 {
		return nil, ev, parseErrs
	}

	modScope := ev.EvalModule(prog)
	res.FinishLoad(canon, modScope)
	if errs := ev.Errors(); len(errs) > 0 {
		return nil, ev, errs
	}

	graph, err := export.Build(ev)
	if err != nil {
		if de, ok := err.(*diag.Error); ok {
			return nil, ev, []*diag.Error{de}
		}
		return nil, ev, []*diag.Error{diag.New(diag.KindExportError, diag.SubCycle, diag.Span{}, "%s", err)}
	}
	return graph, ev, nil
}

func printDiagnostics(errs []*diag.Error, stacktrace bool) {
	red := color.New(color.FgRed, color.Bold)
	for _, e := range errs {
		red.Fprintf(os.Stderr, "error: ")
		fmt.Fprintf(os.Stderr, "%s: %s (%s)\n", e.Span, e.Message, e.Kind)
		if stacktrace && e.Kind == diag.KindPluginError && e.Sub == diag.SubInternal {
			fmt.Fprintln(os.Stderr, "  (host stack trace unavailable outside plugin invocation)")
		}
	}
}

func printModel(graph *export.TaskGraph) error {
	type taskModel struct {
		Index      string         `json:"index"`
		DefName    string         `json:"resource"`
		Properties map[string]any `json:"properties"`
	}
	out := make([]taskModel, 0, len(graph.Nodes))
	for _, t := range graph.Nodes {
		props := map[string]any{}
		for _, name := range t.Resource.Order {
			v, _ := t.Resource.Get(name)
			props[name] = renderModelValue(v)
		}
		out = append(out, taskModel{Index: t.Index, DefName: t.DefName, Properties: props})
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// renderModelValue implements SPEC_FULL.md §C's --output-model rendering: an
// unresolved promise prints as "<unresolved>" rather than PromiseV.String()'s
// "<promise name>" (which is meant for log/error-message contexts, where
// naming the slot is more useful than flagging it's a promise at all).
func renderModelValue(v eval.Value) string {
	if p, ok := v.(*eval.PromiseV); ok && !p.Resolved() {
		return "<unresolved>"
	}
	return v.String()
}
