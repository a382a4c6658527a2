// Package filter implements per-sink severity filtering with target-prefix
// rules.
//
// A [Filter] maps dotted target-name prefixes to minimum severity levels,
// with a single default level for targets no rule matches. Filters are built
// once with [Build] and are immutable afterwards, so [Filter.Allows] is safe
// for concurrent use on the emission hot path.
//
// Three inputs combine at build time, loosest-specificity first:
//
//  1. A baseline default level.
//  2. A directive string, usually taken from the TURBO_LOG_VERBOSITY
//     environment variable (see [EnvVar]): comma-separated
//     "target=level" rules plus an optional bare "level" token that
//     replaces the default. Unparseable directives are skipped.
//  3. A verbosity count (0 = no override, 1 = info, 2 = debug, >=3 = trace)
//     that raises the default rule only. Per-target rules always win over
//     the verbosity override.
//
// Finally, fixed suppression rules cap three known chatty dependencies
// regardless of anything above: reqwest at ERROR, hyper and h2 at WARN.
package filter
