package cmd

import (
	"fmt"
	"net/url"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	v1 "github.com/kubev2v/compute-offload-agent/api/v1"
	"github.com/kubev2v/compute-offload-agent/internal/loadgen"
)

type loadOptions struct {
	target         string
	n              int
	mode           string
	jobTimeout     time.Duration
	requests       int
	concurrency    int
	retries        int
	requestTimeout time.Duration
	initialBackoff time.Duration
}

func NewLoadCommand() *cobra.Command {
	opts := loadOptions{}

	c := &cobra.Command{
		Use:   "load",
		Short: "Fire concurrent fibonacci requests at a running agent and report latencies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := opts.url()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			zap.S().Named("load").Infow("starting load", "url", target, "requests", opts.requests, "concurrency", opts.concurrency)
			report, err := loadgen.Run(ctx, loadgen.Config{
				URL:            target,
				Requests:       opts.requests,
				Concurrency:    opts.concurrency,
				Retries:        opts.retries,
				RequestTimeout: opts.requestTimeout,
				InitialBackoff: opts.initialBackoff,
			}, nil)
			if report != nil {
				report.Print(cmd.OutOrStdout())
			}
			return err
		},
	}

	flags := c.Flags()
	flags.StringVar(&opts.target, "target", "http://localhost:8000", "base url of the agent")
	flags.IntVar(&opts.n, "n", 30, "fibonacci index computed by every request")
	flags.StringVar(&opts.mode, "mode", string(v1.FibonacciModeOffloaded), "compute mode (offloaded, inline)")
	flags.DurationVar(&opts.jobTimeout, "job-timeout", 0, "per-job deadline sent with every request, 0 uses the agent default")
	flags.IntVar(&opts.requests, "requests", 100, "total number of requests")
	flags.IntVar(&opts.concurrency, "concurrency", 10, "requests in flight at once")
	flags.IntVar(&opts.retries, "retries", 3, "extra attempts for a 503 answer")
	flags.DurationVar(&opts.requestTimeout, "request-timeout", time.Minute, "http client timeout per attempt")
	flags.DurationVar(&opts.initialBackoff, "initial-backoff", 50*time.Millisecond, "first wait between retries")

	return c
}

func (o loadOptions) url() (string, error) {
	base, err := url.Parse(strings.TrimSuffix(o.target, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid target %q: %w", o.target, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("invalid target %q: scheme and host are required", o.target)
	}

	u := base.JoinPath("api", "v1", "fibonacci", fmt.Sprint(o.n))
	q := u.Query()
	if o.mode != "" {
		q.Set("mode", o.mode)
	}
	if o.jobTimeout > 0 {
		q.Set("timeout", o.jobTimeout.String())
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
