// Package shopt loads the shell-option set the expansion core reads through
// expand.OptionSet, layered the way tally's internal/config loads its
// configuration: built-in defaults, then a discovered config file, then
// environment variables, highest priority last.
//
// Discovery and the koanf layering shape are grounded directly on
// internal/config/config.go; the cascading "closest .loshellrc wins, no
// merging" search and the TOML/env layering are kept verbatim in spirit,
// only the option names and defaults are shell options instead of lint
// rules.
package shopt

import (
	"os"
	"path/filepath"
	"strings"

	toml "github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigFileNames are searched for in priority order during discovery.
var ConfigFileNames = []string{".loshellrc.toml", "loshellrc.toml"}

// EnvPrefix is the prefix recognized for environment variable overrides.
const EnvPrefix = "LOSHELL_"

// Options is the full set of `set -o`/`shopt` style switches the expansion
// core consults through expand.OptionSet, plus the IFS default.
type Options struct {
	NoUnsetOpt        bool   `koanf:"nounset"`
	NoGlobOpt         bool   `koanf:"noglob"`
	NullGlobOpt       bool   `koanf:"nullglob"`
	FailGlobOpt       bool   `koanf:"failglob"`
	NoCaseMatchOpt    bool   `koanf:"nocasematch"`
	ExtGlobOpt        bool   `koanf:"extglob"`
	DotGlobOpt        bool   `koanf:"dotglob"`
	GlobAsciiRangesOpt bool  `koanf:"globasciiranges"`
	GlobStarOpt       bool   `koanf:"globstar"`
	BraceOpt          bool   `koanf:"braceexpand"`
	ErrExitOpt        bool   `koanf:"errexit"`
	InheritErrExitOpt bool   `koanf:"inherit_errexit"`
	FuncTraceOpt      bool   `koanf:"functrace"`
	ErrTraceOpt       bool   `koanf:"errtrace"`
	InteractiveOpt    bool   `koanf:"interactive"`
	IFS               string `koanf:"ifs"`

	// ConfigFile records which file (if any) contributed to this Options,
	// metadata only, never round-tripped through koanf itself.
	ConfigFile string `koanf:"-"`
}

// These accessors satisfy internal/expand.OptionSet.
func (o *Options) NoUnset() bool         { return o.NoUnsetOpt }
func (o *Options) NoGlob() bool          { return o.NoGlobOpt }
func (o *Options) NullGlob() bool        { return o.NullGlobOpt }
func (o *Options) FailGlob() bool        { return o.FailGlobOpt }
func (o *Options) NoCaseMatch() bool     { return o.NoCaseMatchOpt }
func (o *Options) ExtGlob() bool         { return o.ExtGlobOpt }
func (o *Options) DotGlob() bool         { return o.DotGlobOpt }
func (o *Options) GlobAsciiRanges() bool { return o.GlobAsciiRangesOpt }
func (o *Options) GlobStar() bool        { return o.GlobStarOpt }
func (o *Options) Brace() bool           { return o.BraceOpt }
func (o *Options) ErrExit() bool         { return o.ErrExitOpt }
func (o *Options) InheritErrExit() bool  { return o.InheritErrExitOpt }
func (o *Options) FuncTrace() bool       { return o.FuncTraceOpt }
func (o *Options) ErrTrace() bool        { return o.ErrTraceOpt }
func (o *Options) Interactive() bool     { return o.InteractiveOpt }

// Default returns the option set bash itself boots with: brace expansion
// and extglob-free globbing on, nounset/nullglob/failglob off.
func Default() *Options {
	return &Options{
		BraceOpt: true,
		IFS:      " \t\n",
	}
}

// Load discovers the closest config file relative to workingDir, applies it
// over the defaults, then applies LOSHELL_-prefixed environment overrides.
func Load(workingDir string) (*Options, error) {
	return loadWithConfigPath(Discover(workingDir))
}

// LoadFromFile loads options from a specific file, skipping discovery.
func LoadFromFile(configPath string) (*Options, error) {
	return loadWithConfigPath(configPath)
}

func loadWithConfigPath(configPath string) (*Options, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, err
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, err
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: envTransform,
	}), nil); err != nil {
		return nil, err
	}

	opts := &Options{}
	if err := k.Unmarshal("", opts); err != nil {
		return nil, err
	}
	opts.ConfigFile = configPath
	return opts, nil
}

// envTransform converts LOSHELL_NOCASEMATCH -> nocasematch,
// LOSHELL_GLOBASCIIRANGES -> globasciiranges. Shell option names have no
// internal hyphenation, unlike tally's rule keys, so no lookup table is
// needed here.
func envTransform(k, v string) (string, any) {
	key := strings.ToLower(strings.TrimPrefix(k, EnvPrefix))
	return key, v
}

// Discover walks up from workingDir looking for the closest config file,
// returning "" if none is found. Mirrors internal/config.Discover exactly.
func Discover(workingDir string) string {
	absPath, err := filepath.Abs(workingDir)
	if err != nil {
		return ""
	}

	dir := absPath
	if info, statErr := os.Stat(absPath); statErr == nil && !info.IsDir() {
		dir = filepath.Dir(absPath)
	}

	for {
		for _, name := range ConfigFileNames {
			candidate := filepath.Join(dir, name)
			if fileExists(candidate) {
				return candidate
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
