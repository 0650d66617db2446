package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/ctxmerge/internal/orchestrator"
)

// requestFlags are shared by run and plan.
type requestFlags struct {
	query    string
	task     string
	url      string
	customer string
	document string
	fields   []string
	sources  []string
	params   []string
	budget   int
}

func (f *requestFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.query, "query", "q", "", "session query (required)")
	fl.StringVarP(&f.task, "task", "t", "", "task type, e.g. content_writing or seo_audit")
	fl.StringVar(&f.url, "url", "", "primary website url")
	fl.StringVar(&f.customer, "customer", "", "customer id for memory lookup")
	fl.StringVar(&f.document, "document", "", "document path (local or s3://bucket/key)")
	fl.StringArrayVar(&f.fields, "field", nil, "form field as key=value (repeatable)")
	fl.StringArrayVar(&f.sources, "source", nil, "source id to collect (repeatable; default: plan defaults)")
	fl.StringArrayVar(&f.params, "param", nil, "source parameter as id.key=value (repeatable)")
	fl.IntVar(&f.budget, "budget", 0, "token budget (0 uses merger.token_budget)")
	_ = cmd.MarkFlagRequired("query")
}

func (f *requestFlags) request() (orchestrator.Request, error) {
	if strings.TrimSpace(f.query) == "" {
		return orchestrator.Request{}, fmt.Errorf("--query must not be empty")
	}
	if f.budget < 0 {
		return orchestrator.Request{}, fmt.Errorf("--budget must be >= 0")
	}
	fields, err := parseFields(f.fields)
	if err != nil {
		return orchestrator.Request{}, err
	}
	params, err := parseParams(f.params)
	if err != nil {
		return orchestrator.Request{}, err
	}
	return orchestrator.Request{
		Query:           strings.TrimSpace(f.query),
		Task:            f.task,
		URL:             f.url,
		CustomerID:      f.customer,
		DocumentPath:    f.document,
		Fields:          fields,
		TokenBudget:     f.budget,
		SelectedSources: f.sources,
		SourceParams:    params,
	}, nil
}

func parseFields(raw []string) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(raw))
	for _, kv := range raw {
		k, v, ok := strings.Cut(kv, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --field %q, want key=value", kv)
		}
		out[k] = v
	}
	return out, nil
}

// parseParams reads id.key=value pairs. Repeating a key collects the values
// into a list, which the collectors accept wherever they take several items.
func parseParams(raw []string) (map[string]map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]map[string]any)
	for _, kv := range raw {
		path, v, ok := strings.Cut(kv, "=")
		id, key, dotted := strings.Cut(strings.TrimSpace(path), ".")
		if !ok || !dotted || id == "" || key == "" {
			return nil, fmt.Errorf("invalid --param %q, want id.key=value", kv)
		}
		bag, exists := out[id]
		if !exists {
			bag = map[string]any{}
			out[id] = bag
		}
		switch prev := bag[key].(type) {
		case nil:
			bag[key] = v
		case string:
			bag[key] = []string{prev, v}
		case []string:
			bag[key] = append(prev, v)
		}
	}
	return out, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func runCmd(state *cli) *cobra.Command {
	var flags requestFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Plan, collect and finalize in one shot and print the bundle",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := state.mustReady(); err != nil {
				return err
			}
			req, err := flags.request()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := newApp(ctx, state.cfg, state.logger)
			if err != nil {
				return err
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				a.Close(shutdownCtx)
			}()

			sess := orchestrator.NewSession("cli", req)
			a.orch.Plan(ctx, sess)
			a.orch.Collect(ctx, sess, nil, nil)
			bundle := a.orch.Finalize(ctx, sess)
			return writeJSON(cmd.OutOrStdout(), bundle)
		},
	}
	flags.register(cmd)
	return cmd
}
