/*
Package store implements siloscript's durable key-value layer: a partitioned
map keyed by (user, silo, key), with three interchangeable backends.

# Architecture

	┌──────────────────────── STORE ────────────────────────────┐
	│                                                              │
	│   caller (pkg/silo)                                          │
	│        │ Get/Put/Delete(Partition{user,silo}, key)           │
	│        ▼                                                      │
	│   ┌─────────────────────────────┐                            │
	│   │        Encrypting            │  (optional wrapper)        │
	│   │  - lazy RSA/OpenPGP keyring  │                            │
	│   │  - worker pool for crypto    │                            │
	│   └──────────────┬──────────────┘                            │
	│                  │ ciphertext Value                            │
	│                  ▼                                            │
	│   ┌─────────────────────────────┐                            │
	│   │      Memory  /  SQL          │  (one concrete backend)    │
	│   │  map+RWMutex    sqlite table │                            │
	│   └─────────────────────────────┘                            │
	└──────────────────────────────────────────────────────────────┘

# Backends

Memory:
  - map[Partition]map[Key]Value behind a sync.RWMutex
  - used in tests and for storeBackend: memory deployments; not durable

SQL:
  - modernc.org/sqlite (pure Go, no cgo) via database/sql
  - one table, entries(created, user, silo, key, value), unique index on
    (user, silo, key)
  - WAL journal mode; a single pooled connection serializes writers rather
    than adding an extra application-level lock

Encrypting:
  - wraps any Store; opaque to callers — Get/Put look identical
  - generates a 2048-bit RSA OpenPGP entity on first use, persisted as
    armored identity.asc (private, optionally passphrase-encrypted) and
    identity.pub.asc (public) under a keyring directory
  - key generation is serialized by a mutex; steady-state encrypt/decrypt
    run on a small worker pool so a slow cipher operation never blocks the
    caller's own serialization point
  - wrong passphrase or corrupt ciphertext surfaces as ErrCrypt, never as
    ErrNotFound

# Errors

ErrNotFound and ErrCrypt are sentinel errors; callers compare with
errors.Is. The Store interface itself carries no other policy — key-prefix
validation (the reserved ":" prefix) lives in pkg/machine, not here, so the
Machine can freely read and write its own internal entries through the same
interface a script's keys go through.
*/
package store
