// Package transport provides line-delimited JSON transports for the engine.
//
// Pipe runs over any reader/writer pair such as a socket or an os.Pipe.
// Command starts a caller-built *exec.Cmd and talks to it over stdin and
// stdout, capturing stderr for the exit error. Neither one locates a binary
// or builds its arguments.
package transport
