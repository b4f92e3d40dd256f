package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"torch-hq/torch/pkg/cli"
	"torch-hq/torch/pkg/client"
)

var pushFlags struct {
	url         string
	description string
	labels      map[string]string
	buckets     []float64
	timeout     time.Duration
	output      string
}

// pushOp sends one observation through the client.
type pushOp func(c *client.Client, ctx context.Context, name string, labels map[string]string, value float64) error

// pushOps maps the push command's operation argument to the client call.
// hasDefault marks operations whose value may be omitted (it defaults to 1).
var pushOps = map[string]struct {
	call       pushOp
	hasDefault bool
}{
	"counter":   {(*client.Client).IncCounter, true},
	"gauge.inc": {(*client.Client).IncGauge, true},
	"gauge.dec": {(*client.Client).DecGauge, true},
	"gauge.set": {(*client.Client).SetGauge, false},
	"summary":   {(*client.Client).Summary, false},
	"histogram": {(*client.Client).Histogram, false},
}

type pushResult struct {
	URL    string            `json:"url"`
	Op     string            `json:"op"`
	Name   string            `json:"name"`
	Labels map[string]string `json:"labels,omitempty"`
	Value  float64           `json:"value"`
}

func (r pushResult) String() string {
	keys := make([]string, 0, len(r.Labels))
	for k := range r.Labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+r.Labels[k])
	}
	return fmt.Sprintf("✓ %s %s{%s} %s -> %s", r.Op, r.Name, strings.Join(pairs, ","),
		strconv.FormatFloat(r.Value, 'g', -1, 64), r.URL)
}

var pushCmd = &cobra.Command{
	Use:   "push <op> <name> [value]",
	Short: "Push one observation to a torch aggregator",
	Long: `Push one observation to a running torch aggregator.

Operations: counter, gauge.inc, gauge.dec, gauge.set, summary, histogram.
The value defaults to 1 for counter, gauge.inc and gauge.dec.

Examples:
  # Count a finished job
  torch push counter jobs_total --label queue=io --description "Jobs run"

  # Record a gauge reading
  torch push gauge.set temperature 21.5 --label room=lab

  # Observe a duration into custom buckets
  torch push histogram job_seconds 3.2 --bucket 1 --bucket 5 --bucket 10`,
	Args:      cobra.RangeArgs(2, 3),
	ValidArgs: []string{"counter", "gauge.inc", "gauge.dec", "gauge.set", "summary", "histogram"},
	RunE:      runPush,
}

func init() {
	rootCmd.AddCommand(pushCmd)

	pushCmd.Flags().StringVarP(&pushFlags.url, "url", "u", "http://127.0.0.1:8080", "aggregator base URL")
	pushCmd.Flags().StringVarP(&pushFlags.description, "description", "d", "", "metric description (HELP text)")
	pushCmd.Flags().StringToStringVarP(&pushFlags.labels, "label", "l", nil, "label as key=value (repeatable)")
	pushCmd.Flags().Float64SliceVar(&pushFlags.buckets, "bucket", nil, "histogram bucket upper bound (repeatable)")
	pushCmd.Flags().DurationVar(&pushFlags.timeout, "timeout", 10*time.Second, "request timeout")
	pushCmd.Flags().StringVarP(&pushFlags.output, "output", "o", "text", "output format (text, json)")
}

func runPush(cmd *cobra.Command, args []string) error {
	opName, name := args[0], args[1]
	op, ok := pushOps[opName]
	if !ok {
		return fmt.Errorf("unknown push operation %q", opName)
	}

	format, err := cli.ParseOutputFormat(pushFlags.output)
	if err != nil {
		return err
	}

	value, err := parsePushValue(args[2:], op.hasDefault)
	if err != nil {
		return err
	}

	c := client.New(pushFlags.url)
	c.AddMetric(name, pushFlags.description, pushFlags.buckets...)

	ctx, cancel := context.WithTimeout(cmd.Context(), pushFlags.timeout)
	defer cancel()

	if err := op.call(c, ctx, name, pushFlags.labels, value); err != nil {
		return cli.NewCommandError("push", err)
	}

	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), pushResult{
		URL:    pushFlags.url,
		Op:     opName,
		Name:   name,
		Labels: pushFlags.labels,
		Value:  value,
	})
}

// parsePushValue parses the optional value argument.
func parsePushValue(args []string, hasDefault bool) (float64, error) {
	if len(args) == 0 {
		if !hasDefault {
			return 0, fmt.Errorf("a value is required for this operation")
		}
		return 1, nil
	}
	v, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q: %w", args[0], err)
	}
	return v, nil
}
