// Package preflight validates host environment preconditions before any
// pipeline stage runs. Each check is fatal (run stops, remediation shown) or
// advisory (warn and continue); disk space is three-way against a hard and a
// recommended threshold.
package preflight

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/blendforge/blendforge/internal/config"
	"github.com/blendforge/blendforge/internal/errors"
)

// TargetArch is the only architecture this pipeline supports: the target
// machine is an arm64 CUDA host.
const TargetArch = "arm64"

// RequiredTools are external commands the pipeline cannot start without.
// The toolchain itself (cmake, gcc, ...) is installed by the packages stage,
// so its absence is only advisory here.
var RequiredTools = []string{"apt-get"}

// BuildTools are commands later stages need; the packages stage installs
// them, so preflight reports their absence as a warning, not a failure.
var BuildTools = []string{"git", "cmake", "make", "gcc", "g++", "python3"}

// networkProbeTimeout bounds the reachability check so an unreachable host
// cannot stall the run start.
const networkProbeTimeout = 5 * time.Second

// Severity classifies a check's consequence on failure.
type Severity int

const (
	// Fatal checks stop the run when they fail.
	Fatal Severity = iota
	// Advisory checks warn and continue.
	Advisory
)

// Status is a check outcome.
type Status int

const (
	Pass Status = iota
	Warn
	Fail
)

// String returns a short marker for the status.
func (s Status) String() string {
	switch s {
	case Warn:
		return "WARN"
	case Fail:
		return "FAIL"
	default:
		return "OK"
	}
}

// Result is one check's outcome.
type Result struct {
	Name     string
	Severity Severity
	Status   Status
	Detail   string
}

// Checker runs the preflight checks for a configuration. Probe functions are
// fields so tests can substitute them.
type Checker struct {
	cfg *config.Configuration

	goarch    string
	lookPath  func(name string) (string, error)
	freeBytes func(path string) (uint64, error)
	probe     func(ctx context.Context, rawURL string) error
}

// New creates a Checker with real host probes.
func New(cfg *config.Configuration) *Checker {
	return &Checker{
		cfg:       cfg,
		goarch:    runtime.GOARCH,
		lookPath:  exec.LookPath,
		freeBytes: freeBytes,
		probe:     probeHost,
	}
}

// Run executes all checks in order and returns every result. The returned
// error is non-nil only when a fatal check failed; advisory findings are
// reported through the results alone.
func (c *Checker) Run(ctx context.Context) ([]Result, error) {
	results := []Result{
		c.checkArch(),
		c.checkDisk(),
	}
	results = append(results, c.checkTools()...)
	results = append(results, c.checkNetwork(ctx))

	for _, r := range results {
		if r.Severity == Fatal && r.Status == Fail {
			return results, errors.NewPreflightError(
				fmt.Sprintf("preflight check failed: %s (%s)", r.Name, r.Detail),
				remediationFor(r.Name)...,
			)
		}
	}
	return results, nil
}

func (c *Checker) checkArch() Result {
	r := Result{Name: "architecture", Severity: Fatal, Status: Pass,
		Detail: c.goarch}
	if c.goarch != TargetArch {
		r.Status = Fail
		r.Detail = fmt.Sprintf("host is %s, supported target is %s", c.goarch, TargetArch)
	}
	return r
}

func (c *Checker) checkDisk() Result {
	r := Result{Name: "disk space", Severity: Fatal}

	free, err := c.freeBytes(c.cfg.BuildRoot)
	if err != nil {
		r.Status = Warn
		r.Severity = Advisory
		r.Detail = fmt.Sprintf("could not determine free space: %v", err)
		return r
	}

	freeGB := free / (1 << 30)
	hard := uint64(c.cfg.DiskHardMinGB)
	recommended := uint64(c.cfg.DiskRecommendedGB)

	switch {
	case freeGB < hard:
		r.Status = Fail
		r.Detail = fmt.Sprintf("%d GB free, hard minimum is %d GB", freeGB, hard)
	case freeGB < recommended:
		r.Status = Warn
		r.Detail = fmt.Sprintf("%d GB free, %d GB recommended", freeGB, recommended)
	default:
		r.Status = Pass
		r.Detail = fmt.Sprintf("%d GB free", freeGB)
	}
	return r
}

func (c *Checker) checkTools() []Result {
	results := make([]Result, 0, len(RequiredTools)+len(BuildTools))
	for _, tool := range RequiredTools {
		r := Result{Name: "tool: " + tool, Severity: Fatal, Status: Pass}
		if _, err := c.lookPath(tool); err != nil {
			r.Status = Fail
			r.Detail = "not found on PATH"
		}
		results = append(results, r)
	}
	for _, tool := range BuildTools {
		r := Result{Name: "tool: " + tool, Severity: Advisory, Status: Pass}
		if _, err := c.lookPath(tool); err != nil {
			r.Status = Warn
			r.Detail = "not found on PATH (installed by the packages stage)"
		}
		results = append(results, r)
	}
	return results
}

// checkNetwork probes the source host. Advisory only: a later fetch may still
// succeed from a local cache, so absence warns rather than blocks.
func (c *Checker) checkNetwork(ctx context.Context) Result {
	r := Result{Name: "network: source host", Severity: Advisory, Status: Pass}
	if err := c.probe(ctx, c.cfg.GitRemote); err != nil {
		r.Status = Warn
		r.Detail = fmt.Sprintf("%s unreachable: %v", hostOf(c.cfg.GitRemote), err)
	} else {
		r.Detail = hostOf(c.cfg.GitRemote) + " reachable"
	}
	return r
}

// probeHost issues a HEAD request against the remote's host.
func probeHost(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("invalid remote URL %q", rawURL)
	}

	probeCtx, cancel := context.WithTimeout(ctx, networkProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodHead,
		u.Scheme+"://"+u.Host+"/", nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func hostOf(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		return u.Host
	}
	return rawURL
}

// remediationFor maps a failed fatal check to its remediation steps.
func remediationFor(name string) []string {
	switch {
	case name == "architecture":
		return []string{
			fmt.Sprintf("This pipeline targets %s hosts only", TargetArch),
			"Run blendforge on the target machine, not your workstation",
		}
	case name == "disk space":
		return []string{
			"Free up space under the build root or move it with --build-root",
			"A full source + deps + build tree needs tens of gigabytes",
		}
	case strings.HasPrefix(name, "tool: "):
		tool := strings.TrimPrefix(name, "tool: ")
		return []string{
			fmt.Sprintf("%s must be present before any stage runs", tool),
			"This pipeline only supports apt-based hosts",
		}
	default:
		return nil
	}
}
