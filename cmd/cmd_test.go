package cmd

import (
	"bytes"
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/kubev2v/compute-offload-agent/internal/config"
	"github.com/kubev2v/compute-offload-agent/pkg/dispatcher"
	srvErrors "github.com/kubev2v/compute-offload-agent/pkg/errors"
)

// handlerServer stands in for the http server: Stop returns once the
// in-flight request, which waits on a dispatcher job, has been answered.
type handlerServer struct {
	inflight <-chan dispatcher.Result[int]
	answered chan dispatcher.Result[int]
}

func (s *handlerServer) Stop(ctx context.Context) error {
	select {
	case r := <-s.inflight:
		s.answered <- r
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type journalSpy struct {
	closed bool
}

func (j *journalSpy) Close() { j.closed = true }

func TestCmd(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Cmd Suite")
}

var _ = Describe("load target", func() {
	DescribeTable("should build the fibonacci url",
		func(opts loadOptions, expected string) {
			u, err := opts.url()
			Expect(err).NotTo(HaveOccurred())
			Expect(u).To(Equal(expected))
		},
		Entry("defaults", loadOptions{target: "http://localhost:8000", n: 30, mode: "offloaded"},
			"http://localhost:8000/api/v1/fibonacci/30?mode=offloaded"),
		Entry("trailing slash and timeout", loadOptions{target: "http://agent:9000/", n: 12, mode: "inline", jobTimeout: 2 * time.Second},
			"http://agent:9000/api/v1/fibonacci/12?mode=inline&timeout=2s"),
	)

	It("should reject a target without scheme", func() {
		_, err := loadOptions{target: "localhost:8000"}.url()
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("logger", func() {
	It("should build console and json loggers", func() {
		for _, format := range []string{"console", "json"} {
			l, err := newLogger(format, "info")
			Expect(err).NotTo(HaveOccurred())
			Expect(l.Core().Enabled(zap.DebugLevel)).To(BeFalse())
		}
	})

	It("should reject unknown formats and levels", func() {
		_, err := newLogger("xml", "info")
		Expect(err).To(HaveOccurred())
		_, err = newLogger("json", "loud")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("config command", func() {
	AfterEach(func() {
		cfg = config.NewConfigurationWithOptionsAndDefaults()
	})

	It("should print the configuration with flag overrides", func() {
		var out bytes.Buffer
		root := NewRootCommand()
		root.SetOut(&out)
		root.SetArgs([]string{"config", "--max-workers", "3", "--env-file", "", "--log-level", "error"})

		Expect(root.Execute()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("maxWorkers: 3"))
		Expect(out.String()).To(ContainSubstring("logLevel: error"))
	})
})

var _ = Describe("shutdown", func() {
	AfterEach(func() {
		cfg = config.NewConfigurationWithOptionsAndDefaults()
	})

	It("should fail queued jobs at once instead of waiting for the http server", func() {
		cfg.Server.ShutdownTimeout = 5 * time.Second

		release := make(chan struct{})
		d := dispatcher.New(func(ctx context.Context, n int) (int, error) {
			if n < 0 {
				<-release
			}
			return n, nil
		}, dispatcher.WithMaxWorkers(1))

		running, err := d.Submit(context.Background(), -1)
		Expect(err).NotTo(HaveOccurred())
		queued, err := d.Submit(context.Background(), 2)
		Expect(err).NotTo(HaveOccurred())

		srv := &handlerServer{inflight: queued.C(), answered: make(chan dispatcher.Result[int], 1)}
		journal := &journalSpy{}

		done := make(chan error, 1)
		go func() { done <- shutdown(srv, d, journal) }()

		var answer dispatcher.Result[int]
		Eventually(srv.answered, time.Second).Should(Receive(&answer))
		Expect(srvErrors.IsDispatcherClosedError(answer.Err)).To(BeTrue())
		Expect(journal.closed).To(BeFalse())

		close(release)
		Eventually(running.C(), time.Second).Should(Receive())
		Eventually(done, time.Second).Should(Receive(BeNil()))
		Expect(journal.closed).To(BeTrue())
	})
})
