/*
Package log provides structured logging for siloscript using zerolog.

The log package wraps the zerolog library to provide JSON-structured logging
with component-specific child loggers, configurable log levels, and helper
functions for common logging patterns. All logs include timestamps and
support filtering by severity level for production debugging.

# Architecture

siloscript's logging system provides structured JSON logging with minimal
overhead:

	┌──────────────────── LOGGING SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │            Global Logger                    │          │
	│  │  - Zerolog instance                         │          │
	│  │  - Initialized via log.Init()               │          │
	│  │  - Thread-safe for concurrent use           │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Configuration                     │          │
	│  │  - Level: debug/info/warn/error             │          │
	│  │  - Format: JSON or console (human)          │          │
	│  │  - Output: stdout, file, or custom writer   │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │         Component Loggers                   │          │
	│  │  - WithComponent("machine")                 │          │
	│  │  - WithSilo("jim", "deploy")                │          │
	│  │  - WithChannel("9f1c...")                    │          │
	│  │  - WithHandle("a71b...")                     │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │            Log Output                       │          │
	│  │                                              │          │
	│  │  JSON Format:                               │          │
	│  │  {                                           │          │
	│  │    "level": "info",                         │          │
	│  │    "component": "machine",                  │          │
	│  │    "time": "2026-07-31T10:30:00Z",          │          │
	│  │    "message": "run started"                 │          │
	│  │  }                                           │          │
	│  │                                              │          │
	│  │  Console Format:                            │          │
	│  │  10:30AM INF run started component=machine  │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Core Components

Global Logger:
  - Package-level zerolog.Logger instance
  - Initialized once via log.Init()
  - Accessible from all siloscript packages
  - Thread-safe concurrent writes

Component Loggers:
  - WithComponent attaches a "component" field (machine, control, public)
  - WithSilo attaches "user" and "silo" fields for silo-scoped log lines
  - WithChannel attaches a "channel" field
  - WithHandle attaches a "handle" field

None of these helpers allocate a new backend; they derive a child logger from
the shared backend via zerolog's With().Str(...).Logger(), so log level and
output destination stay consistent everywhere.
*/
package log
