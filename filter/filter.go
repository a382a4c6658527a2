package filter

import (
	"sort"
	"strings"

	"go.jacobcolvin.com/turbotrace/event"
)

// EnvVar is the environment variable conventionally holding the directive
// string passed to [Build].
const EnvVar = "TURBO_LOG_VERBOSITY"

// hardRules cap known chatty infrastructure targets regardless of user
// configuration. They are applied last so they override directive rules for
// the same targets.
var hardRules = []rule{
	{prefix: "reqwest", level: event.LevelError},
	{prefix: "hyper", level: event.LevelWarn},
	{prefix: "h2", level: event.LevelWarn},
}

type rule struct {
	prefix string
	level  event.Level
}

// Filter decides, per event, whether a sink observes it. Immutable after
// [Build]; safe for concurrent use.
type Filter struct {
	def   event.Level
	rules []rule
}

// Build constructs a [Filter] from a baseline default level, a CLI verbosity
// count, and a directive string (see the package documentation for the
// directive language and precedence).
func Build(def event.Level, verbosity int, directives string) *Filter {
	f := &Filter{def: def}

	// Directive string first: per-target rules accumulate, a bare level
	// token replaces the default. Later rules for the same prefix win.
	for _, d := range strings.Split(directives, ",") {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}

		prefix, levelStr, found := strings.Cut(d, "=")
		if !found {
			if lvl, err := event.ParseLevel(d); err == nil {
				f.def = lvl
			}

			continue
		}

		lvl, err := event.ParseLevel(levelStr)
		if err != nil {
			continue
		}

		f.setRule(strings.TrimSpace(prefix), lvl)
	}

	// The verbosity count raises the default rule only, never per-target
	// rules, and never lowers a default already looser than it.
	if override := verbosityLevel(verbosity); override > f.def {
		f.def = override
	}

	for _, hr := range hardRules {
		f.setRule(hr.prefix, hr.level)
	}

	// Longest prefix first, so the first match during lookup is the most
	// specific one.
	sort.SliceStable(f.rules, func(i, j int) bool {
		return len(f.rules[i].prefix) > len(f.rules[j].prefix)
	})

	return f
}

// verbosityLevel maps a CLI verbosity count to a default-level override.
// Zero means no override.
func verbosityLevel(verbosity int) event.Level {
	switch {
	case verbosity <= 0:
		return 0
	case verbosity == 1:
		return event.LevelInfo
	case verbosity == 2:
		return event.LevelDebug
	default:
		return event.LevelTrace
	}
}

func (f *Filter) setRule(prefix string, lvl event.Level) {
	for i, r := range f.rules {
		if r.prefix == prefix {
			f.rules[i].level = lvl
			return
		}
	}

	f.rules = append(f.rules, rule{prefix: prefix, level: lvl})
}

// Allows reports whether an event at the given level and target passes the
// filter. The longest matching target prefix wins; targets match a prefix
// exactly or at a "." segment boundary. No match falls back to the default
// level.
func (f *Filter) Allows(level event.Level, target string) bool {
	for _, r := range f.rules {
		if matchesPrefix(target, r.prefix) {
			return level.Allows(r.level)
		}
	}

	return level.Allows(f.def)
}

// Default returns the filter's default minimum level.
func (f *Filter) Default() event.Level {
	return f.def
}

func matchesPrefix(target, prefix string) bool {
	if !strings.HasPrefix(target, prefix) {
		return false
	}

	return len(target) == len(prefix) || target[len(prefix)] == '.'
}
