package oteltrace

import (
	"errors"

	"github.com/spf13/pflag"
)

// ErrParentRequiresDestination indicates --otlp-parent was set without
// --otlp-destination.
var ErrParentRequiresDestination = errors.New("otlp-parent requires otlp-destination")

// Flags holds CLI flag names for OTLP configuration, allowing callers to
// customize flag names while keeping sensible defaults via [NewOtelConfig].
type Flags struct {
	Destination string
	Parent      string
}

// NewOtelConfig creates a new [OtelConfig] embedding these flag names.
func (f Flags) NewOtelConfig() *OtelConfig {
	return &OtelConfig{
		Flags: f,
	}
}

// OtelConfig holds the CLI flag values for remote-trace export: an optional
// collector destination and an optional propagated trace context. It is
// plain data owned by the argument-parsing boundary.
//
// Create instances with [NewOtelConfig] and register CLI flags with
// [OtelConfig.RegisterFlags].
type OtelConfig struct {
	// Destination enables export to the given collector URL when set.
	Destination string `json:"destination,omitempty" yaml:"destination,omitempty"`
	// Traceparent preserves the calling service's trace context across
	// process boundaries. Only meaningful with Destination set.
	Traceparent string `json:"traceparent,omitempty" yaml:"traceparent,omitempty"`

	Flags Flags `json:"-" yaml:"-"`
}

// NewOtelConfig creates a new [OtelConfig] with default flag names and
// zero-value fields.
func NewOtelConfig() *OtelConfig {
	f := Flags{
		Destination: "otlp-destination",
		Parent:      "otlp-parent",
	}

	return f.NewOtelConfig()
}

// RegisterFlags adds OTLP flags to the given [*pflag.FlagSet].
func (c *OtelConfig) RegisterFlags(flags *pflag.FlagSet) {
	flags.StringVar(&c.Destination, c.Flags.Destination, "",
		"export spans to the specified collector URL over gRPC")
	flags.StringVar(&c.Traceparent, c.Flags.Parent, "",
		"trace parent preserving context from a calling service (requires "+
			c.Flags.Destination+")")
}

// Validate enforces the boundary constraint that a traceparent is only
// meaningful with a destination.
func (c *OtelConfig) Validate() error {
	if c.Traceparent != "" && c.Destination == "" {
		return ErrParentRequiresDestination
	}

	return nil
}
