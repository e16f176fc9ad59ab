package autotools

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/avbuild/avconf/pkgs/buildsys"
)

// AutoTools wraps configure/make/make-install style builds. FFmpeg and
// most of the optional codec libraries build this way.
type AutoTools struct {
	SourceDir  string
	buildDir   string
	installDir string
	jobs       int
	env        map[string]string
}

var _ buildsys.BuildSystem = (*AutoTools)(nil)

// New creates a new AutoTools helper rooted at the given source tree.
func New(sourceDir string) *AutoTools {
	buildDir, err := os.MkdirTemp("", "avconf-build-")
	if err != nil {
		buildDir = filepath.Join(sourceDir, "build")
	}
	return &AutoTools{
		SourceDir:  sourceDir,
		buildDir:   buildDir,
		installDir: filepath.Join(sourceDir, "build"),
		jobs:       runtime.NumCPU(),
		env:        map[string]string{},
	}
}

func (a *AutoTools) Source(dir string) {
	a.SourceDir = dir
}

func (a *AutoTools) InstallDir(dir string) {
	a.installDir = dir
}

// Jobs sets the make parallelism.
func (a *AutoTools) Jobs(n int) *AutoTools {
	if n > 0 {
		a.jobs = n
	}
	return a
}

func (a *AutoTools) Env(key, value string) {
	if a.env == nil {
		a.env = map[string]string{}
	}
	a.env[key] = value
}

func (a *AutoTools) Configure(ctx context.Context, args ...string) error {
	if err := os.MkdirAll(a.buildDir, 0755); err != nil {
		return err
	}
	configureArgs := []string{"--prefix=" + a.installDir}
	configureArgs = append(configureArgs, args...)
	return a.run(ctx, filepath.Join(a.SourceDir, "configure"), configureArgs...)
}

func (a *AutoTools) Build(ctx context.Context, args ...string) error {
	makeArgs := []string{"-j" + strconv.Itoa(a.jobs)}
	makeArgs = append(makeArgs, args...)
	return a.run(ctx, "make", makeArgs...)
}

func (a *AutoTools) Install(ctx context.Context, args ...string) error {
	makeArgs := []string{"install"}
	makeArgs = append(makeArgs, args...)
	return a.run(ctx, "make", makeArgs...)
}

// OutputDir returns the install dir if set, otherwise the build dir.
func (a *AutoTools) OutputDir() string {
	if a.installDir != "" {
		return a.installDir
	}
	return a.buildDir
}

func (a *AutoTools) run(ctx context.Context, bin string, args ...string) error {
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = a.buildDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if len(a.env) > 0 {
		cmd.Env = mergeEnv(os.Environ(), a.env)
	}
	return cmd.Run()
}

func mergeEnv(base []string, override map[string]string) []string {
	envMap := make(map[string]string, len(base))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			envMap[k] = v
		}
	}
	for k, v := range override {
		envMap[k] = v
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+envMap[k])
	}
	return out
}
