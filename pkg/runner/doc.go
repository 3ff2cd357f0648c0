/*
Package runner executes user scripts as subprocesses and reports their
output and exit code.

Runner resolves a script name under a fixed root (rejecting any path that
escapes it), runs it with exec.CommandContext, and streams stdout/stderr
chunks to an optional Observer while also buffering them for the final
Result. SiloRunner composes over a Runner to overlay DATA_URL into the
subprocess environment for a given silo handle, so the running script's
only path back into siloscript is the URL it was handed.
*/
package runner
