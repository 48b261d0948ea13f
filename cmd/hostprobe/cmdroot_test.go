// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"time"

	"github.com/siemens/hostprobe/test"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gleak"
	. "github.com/thediveo/success"
)

// execute the root command with the specified CLI args, returning the error
// as well as what has been rendered.
func execute(args ...string) (string, error) {
	GinkgoHelper()
	var out bytes.Buffer
	oldStdout := stdout
	stdout = &out
	defer func() { stdout = oldStdout }()
	cmd := newRootCmd()
	cmd.SetArgs(append([]string{}, args...)) // never nil, so cobra doesn't fall back to os.Args
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	err := cmd.Execute()
	return out.String(), err
}

var _ = Describe("hostprobe command", func() {

	DescribeTable("rejects invalid flags",
		func(errtext string, args ...string) {
			Expect(execute(args...)).Error().To(MatchError(ContainSubstring(errtext)))
		},
		Entry("too few workers", "--workers out of range", "--workers=0", "example.org"),
		Entry("too many workers", "--workers out of range", "--workers=65", "example.org"),
		Entry("indentation", "--indent width out of range", "--indent=81", "example.org"),
		Entry("spinner", "--spinner must be at least", "--spinner=1ms", "example.org"),
		Entry("timeout", "--timeout must be at least", "--timeout=99ms", "example.org"),
		Entry("unprivileged without ping", "--unprivileged requires --ping", "--unprivileged", "example.org"),
		Entry("conflicting filters", "private-only", "--private-only", "--public-only", "example.org"),
		Entry("no hosts", "no hosts to probe"),
		Entry("empty hosts", "no hosts to probe", "", " "),
		Entry("missing host file", "cannot open host list", "--file=/nonexisting/hosts"),
	)

	It("exits with an error code", func() {
		oldExit := osExit
		oldArgs := os.Args
		defer func() {
			osExit = oldExit
			os.Args = oldArgs
		}()
		var code int
		osExit = func(c int) { code = c }
		os.Args = []string{"hostprobe", "--workers=0", "example.org"}
		oldStderr := os.Stderr
		os.Stderr = Successful(os.Open(os.DevNull))
		defer func() {
			os.Stderr.Close()
			os.Stderr = oldStderr
		}()
		main()
		Expect(code).To(Equal(1))
	})

	When("probing hosts", func() {

		var target string

		BeforeEach(func() {
			goodgos := Goroutines()
			DeferCleanup(func() {
				Eventually(Goroutines).Within(3 * time.Second).ProbeEvery(250 * time.Millisecond).
					ShouldNot(HaveLeaked(goodgos))
			})

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusTeapot)
			}))
			DeferCleanup(srv.Close)
			_, port := Successful2R(net.SplitHostPort(srv.Listener.Addr().String()))
			target = "probe.test:" + port
		})

		It("probes and reports hosts", NodeTimeout(30*time.Second), func(ctx context.Context) {
			dnssrv := test.StartDNSServer(test.Zone{"probe.test": {"127.0.0.1"}})
			defer dnssrv.Stop()
			hosts := filepath.Join(GinkgoT().TempDir(), "hosts")
			Expect(os.WriteFile(hosts, []byte("# more of the same\n"+target+"\n"), 0o644)).To(Succeed())

			out, err := execute("--dns", dnssrv.Addr, "--timeout=2s", "--file", hosts, target)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring(target))
			Expect(out).To(ContainSubstring("✔ http"))
			Expect(out).To(ContainSubstring("127.0.0.1"))
			Expect(out).To(ContainSubstring("1 of 1 hosts reachable, 1 with private addresses"))
		})

		It("accepts self-signed certificates only when told so", NodeTimeout(30*time.Second), func(ctx context.Context) {
			dnssrv := test.StartDNSServer(test.Zone{"probe.test": {"127.0.0.1"}})
			defer dnssrv.Stop()
			tlssrv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
			defer tlssrv.Close()
			_, port := Successful2R(net.SplitHostPort(tlssrv.Listener.Addr().String()))
			tlstarget := "probe.test:" + port

			By("rejecting the certificate")
			out, err := execute("--dns", dnssrv.Addr, "--timeout=2s", tlstarget)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).NotTo(ContainSubstring("✔ https"))

			By("accepting the certificate")
			out, err = execute("--dns", dnssrv.Addr, "--timeout=2s", "--insecure", tlstarget)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("✔ https"))
			Expect(out).To(ContainSubstring("1 of 1 hosts reachable"))
		})

		It("filters public-only hosts", NodeTimeout(30*time.Second), func(ctx context.Context) {
			dnssrv := test.StartDNSServer(test.Zone{"probe.test": {"127.0.0.1"}})
			defer dnssrv.Stop()

			out, err := execute("--dns", dnssrv.Addr, "--timeout=2s", "--public-only", target)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("0 of 0 hosts reachable"))
		})

	})

})
