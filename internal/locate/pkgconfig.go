// Package locate discovers installed native libraries through the
// system's pkg-config registry.
package locate

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"

	"github.com/avbuild/avconf/pkgs/library"
)

// NotFoundError reports that pkg-config has no record of the library.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("library %s not found by pkg-config", e.Name)
}

// MalformedMetadataError reports pkg-config output that cannot be parsed
// into library metadata.
type MalformedMetadataError struct {
	Name   string
	Output string
}

func (e *MalformedMetadataError) Error() string {
	return fmt.Sprintf("library %s: malformed pkg-config metadata: %q", e.Name, e.Output)
}

// Runner executes the pkg-config binary and returns its stdout. It is a
// field so tests can substitute canned output.
type Runner func(ctx context.Context, env []string, args ...string) (string, error)

// PkgConfig queries the system package metadata registry. Each Locate
// call is a single query attempt; there is no retry and no fallback to
// another strategy.
type PkgConfig struct {
	bin         string
	searchPaths []string
	run         Runner
}

// Option configures a PkgConfig locator.
type Option func(*PkgConfig)

// WithBin sets a custom pkg-config executable.
func WithBin(bin string) Option {
	return func(p *PkgConfig) {
		p.bin = bin
	}
}

// WithSearchPath prepends extra directories to PKG_CONFIG_PATH for every
// query, e.g. a Homebrew prefix or a vendored install tree.
func WithSearchPath(dirs ...string) Option {
	return func(p *PkgConfig) {
		p.searchPaths = append(p.searchPaths, dirs...)
	}
}

// WithRunner substitutes the command runner.
func WithRunner(run Runner) Option {
	return func(p *PkgConfig) {
		p.run = run
	}
}

// NewPkgConfig creates a locator.
func NewPkgConfig(opts ...Option) *PkgConfig {
	p := &PkgConfig{bin: "pkg-config"}
	for _, opt := range opts {
		opt(p)
	}
	if p.run == nil {
		p.run = p.execRun
	}
	return p
}

// Locate queries pkg-config for the named library and returns its
// include paths, link directives, and version.
func (p *PkgConfig) Locate(ctx context.Context, name string) (library.Metadata, error) {
	out, err := p.run(ctx, p.queryEnv(), "--cflags", "--libs", "--modversion", name)
	if err != nil {
		if isNotFound(err) {
			return library.Metadata{}, &NotFoundError{Name: name}
		}
		return library.Metadata{}, &MalformedMetadataError{Name: name, Output: err.Error()}
	}
	meta, err := parseMetadata(name, out)
	if err != nil {
		return library.Metadata{}, err
	}
	return meta, nil
}

func (p *PkgConfig) queryEnv() []string {
	if len(p.searchPaths) == 0 {
		return os.Environ()
	}
	path := strings.Join(p.searchPaths, string(os.PathListSeparator))
	if current := os.Getenv("PKG_CONFIG_PATH"); current != "" {
		path = path + string(os.PathListSeparator) + current
	}
	return append(os.Environ(), "PKG_CONFIG_PATH="+path)
}

func (p *PkgConfig) execRun(ctx context.Context, env []string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, p.bin, args...)
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%s", msg)
		}
		return "", err
	}
	return stdout.String(), nil
}

func isNotFound(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "no package")
}

var versionLine = regexp.MustCompile(`^[0-9][0-9A-Za-z.+~ -]*$`)

// parseMetadata splits pkg-config output into flag lines and the version
// line. Flag tokens -I, -L, and -l map to include paths, search paths,
// and dynamic link directives; -framework tokens (macOS) map to
// framework directives. Unknown flags are ignored.
func parseMetadata(name, out string) (library.Metadata, error) {
	var meta library.Metadata

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "-") {
			if err := parseFlags(line, &meta); err != nil {
				return library.Metadata{}, &MalformedMetadataError{Name: name, Output: line}
			}
			continue
		}
		if versionLine.MatchString(line) && meta.Version == "" {
			meta.Version = line
			continue
		}
		return library.Metadata{}, &MalformedMetadataError{Name: name, Output: line}
	}

	if meta.Version == "" {
		return library.Metadata{}, &MalformedMetadataError{Name: name, Output: out}
	}
	return meta, nil
}

func parseFlags(line string, meta *library.Metadata) error {
	fields := strings.Fields(line)
	for i := 0; i < len(fields); i++ {
		token := fields[i]
		switch {
		case strings.HasPrefix(token, "-I"):
			meta.IncludePaths = append(meta.IncludePaths, strings.TrimPrefix(token, "-I"))
		case strings.HasPrefix(token, "-L"):
			meta.SearchPaths = append(meta.SearchPaths, strings.TrimPrefix(token, "-L"))
		case token == "-framework":
			if i+1 >= len(fields) {
				return fmt.Errorf("dangling -framework")
			}
			i++
			meta.Links = append(meta.Links, library.LinkDirective{Kind: library.Framework, Name: fields[i]})
		case strings.HasPrefix(token, "-l"):
			meta.Links = append(meta.Links, library.LinkDirective{Kind: library.Dylib, Name: strings.TrimPrefix(token, "-l")})
		}
	}
	return nil
}
