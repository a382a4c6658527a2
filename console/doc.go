// Package console renders pipeline events as human-readable terminal lines.
//
// The layout is a compatibility contract with the reference turbo CLI and is
// reproduced byte for byte, including the literal padding spaces around the
// severity labels:
//
//	ERROR:       " ERROR " label (red on black) + space + message (red)
//	WARN:        " WARNING " label (yellow on black) + space + message (yellow)
//	INFO:        message only
//	DEBUG/TRACE: "<timestamp> [<LEVEL>] <target>: <message>", uncolored
//
// Every line ends with a newline. Only the distinguished "message" field is
// rendered; all other structured fields are ignored, as is span context.
// Colors are plain SGR escape sequences, emitted only when the [Formatter]
// was constructed with ANSI enabled. Use [ColorMode] to resolve the ANSI
// decision once at startup from a user override plus terminal detection.
package console
