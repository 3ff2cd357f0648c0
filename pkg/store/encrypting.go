package store

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
	"github.com/cuemby/siloscript/pkg/metrics"
)

const (
	privateKeyFile = "identity.asc"
	publicKeyFile  = "identity.pub.asc"
)

// PassphraseFunc supplies the passphrase protecting the keyring's private
// key. Called at most once per Encrypting instance: when a fresh key is
// generated (to lock the copy written to disk) or when an existing keyring
// is first loaded (to unlock it). A nil PassphraseFunc means the key is
// unprotected.
type PassphraseFunc func() ([]byte, error)

// Encrypting composes over any Store, encrypting values to a local OpenPGP
// keyring before handing them to the inner Store, and decrypting on read.
// The keyring (a 2048-bit RSA entity) is generated lazily on first use and
// persisted under keyringDir. Encrypt/decrypt run on a bounded worker pool
// so they never block whatever goroutine is coordinating the caller.
type Encrypting struct {
	inner      Store
	keyringDir string
	passphrase PassphraseFunc

	genMu  sync.Mutex
	entity *openpgp.Entity

	jobs chan cryptoJob
	wg   sync.WaitGroup
}

type cryptoJob struct {
	op     string
	fn     func() (Value, error)
	result chan cryptoResult
}

type cryptoResult struct {
	value Value
	err   error
}

// NewEncrypting wraps inner with an encrypting facade. The keyring lives
// under keyringDir; passphrase may be nil for an unprotected key.
func NewEncrypting(inner Store, keyringDir string, passphrase PassphraseFunc) *Encrypting {
	workers := runtime.GOMAXPROCS(0)
	if workers < 2 {
		workers = 2
	}

	e := &Encrypting{
		inner:      inner,
		keyringDir: keyringDir,
		passphrase: passphrase,
		jobs:       make(chan cryptoJob),
	}

	for i := 0; i < workers; i++ {
		e.wg.Add(1)
		go e.worker()
	}
	return e
}

func (e *Encrypting) worker() {
	defer e.wg.Done()
	for job := range e.jobs {
		metrics.CryptoQueueDepth.Dec()
		timer := metrics.NewTimer()
		value, err := job.fn()
		timer.ObserveDurationVec(metrics.CryptoOperationDuration, job.op)
		job.result <- cryptoResult{value: value, err: err}
	}
}

func (e *Encrypting) submit(op string, fn func() (Value, error)) (Value, error) {
	result := make(chan cryptoResult, 1)
	metrics.CryptoQueueDepth.Inc()
	e.jobs <- cryptoJob{op: op, fn: fn, result: result}
	r := <-result
	return r.value, r.err
}

func (e *Encrypting) Get(p Partition, key Key) (Value, error) {
	ciphertext, err := e.inner.Get(p, key)
	if err != nil {
		return nil, err
	}
	plaintext, err := e.submit("decrypt", func() (Value, error) {
		return e.decrypt(ciphertext)
	})
	if err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("encrypting", "crypt").Inc()
		return nil, err
	}
	return plaintext, nil
}

func (e *Encrypting) Put(p Partition, key Key, value Value) error {
	ciphertext, err := e.submit("encrypt", func() (Value, error) {
		return e.encrypt(value)
	})
	if err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("encrypting", "crypt").Inc()
		return err
	}
	return e.inner.Put(p, key, ciphertext)
}

func (e *Encrypting) Delete(p Partition, key Key) error {
	return e.inner.Delete(p, key)
}

func (e *Encrypting) Close() error {
	close(e.jobs)
	e.wg.Wait()
	return e.inner.Close()
}

func (e *Encrypting) encrypt(plaintext Value) (Value, error) {
	entity, err := e.loadOrGenerateEntity()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w, err := openpgp.Encrypt(&buf, []*openpgp.Entity{entity}, nil, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: encrypt: %v", ErrCrypt, err)
	}
	if _, err := w.Write(plaintext); err != nil {
		return nil, fmt.Errorf("%w: encrypt: %v", ErrCrypt, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%w: encrypt: %v", ErrCrypt, err)
	}
	return buf.Bytes(), nil
}

func (e *Encrypting) decrypt(ciphertext Value) (Value, error) {
	entity, err := e.loadOrGenerateEntity()
	if err != nil {
		return nil, err
	}

	keyring := openpgp.EntityList{entity}
	md, err := openpgp.ReadMessage(bytes.NewReader(ciphertext), keyring, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: decrypt: %v", ErrCrypt, err)
	}
	plaintext, err := io.ReadAll(md.UnverifiedBody)
	if err != nil {
		return nil, fmt.Errorf("%w: decrypt: %v", ErrCrypt, err)
	}
	return plaintext, nil
}

// loadOrGenerateEntity returns the wrapper's OpenPGP entity, generating and
// persisting a fresh 2048-bit RSA keypair on first use. Serialized with
// genMu so concurrent first-time callers don't race each other into
// generating two distinct keyrings.
func (e *Encrypting) loadOrGenerateEntity() (*openpgp.Entity, error) {
	e.genMu.Lock()
	defer e.genMu.Unlock()

	if e.entity != nil {
		return e.entity, nil
	}

	privPath := filepath.Join(e.keyringDir, privateKeyFile)
	if _, err := os.Stat(privPath); err == nil {
		entity, err := e.readEntity(privPath)
		if err != nil {
			return nil, err
		}
		e.entity = entity
		return entity, nil
	}

	entity, err := e.generateEntity()
	if err != nil {
		return nil, err
	}
	e.entity = entity
	return entity, nil
}

func (e *Encrypting) generateEntity() (*openpgp.Entity, error) {
	if err := os.MkdirAll(e.keyringDir, 0o700); err != nil {
		return nil, fmt.Errorf("store: create keyring dir: %w", err)
	}

	config := &packet.Config{RSABits: 2048}
	entity, err := openpgp.NewEntity("siloscript", "silo keyring", "", config)
	if err != nil {
		return nil, fmt.Errorf("store: generate keypair: %w", err)
	}

	// The entity cached in e.entity for the rest of this process's life
	// must stay unlocked — encrypt()/decrypt() never re-derive the
	// passphrase after the first call. Only a private-key round-tripped
	// copy gets its private key locked, so locking it for disk storage
	// never mutates the in-memory original.
	diskEntity := entity
	if e.passphrase != nil {
		passphrase, err := e.passphrase()
		if err != nil {
			return nil, fmt.Errorf("store: read passphrase: %w", err)
		}
		diskEntity, err = cloneEntity(entity)
		if err != nil {
			return nil, fmt.Errorf("store: clone keypair: %w", err)
		}
		if err := diskEntity.PrivateKey.Encrypt(passphrase); err != nil {
			return nil, fmt.Errorf("store: encrypt private key: %w", err)
		}
		for _, sub := range diskEntity.Subkeys {
			if err := sub.PrivateKey.Encrypt(passphrase); err != nil {
				return nil, fmt.Errorf("store: encrypt subkey: %w", err)
			}
		}
	}

	if err := e.writeArmored(filepath.Join(e.keyringDir, privateKeyFile), "PGP PRIVATE KEY BLOCK", func(w io.Writer) error {
		return diskEntity.SerializePrivate(w, nil)
	}); err != nil {
		return nil, err
	}
	if err := e.writeArmored(filepath.Join(e.keyringDir, publicKeyFile), "PGP PUBLIC KEY BLOCK", diskEntity.Serialize); err != nil {
		return nil, err
	}

	return entity, nil
}

// cloneEntity serializes entity's unlocked private key and re-parses it
// into an independent Entity, so the copy returned can be locked with a
// passphrase without mutating the caller's original.
func cloneEntity(entity *openpgp.Entity) (*openpgp.Entity, error) {
	var buf bytes.Buffer
	if err := entity.SerializePrivate(&buf, nil); err != nil {
		return nil, fmt.Errorf("store: serialize keypair: %w", err)
	}
	return openpgp.ReadEntity(packet.NewReader(&buf))
}

func (e *Encrypting) writeArmored(path, blockType string, serialize func(io.Writer) error) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("store: write %s: %w", path, err)
	}
	defer f.Close()

	w, err := armor.Encode(f, blockType, nil)
	if err != nil {
		return fmt.Errorf("store: armor %s: %w", path, err)
	}
	if err := serialize(w); err != nil {
		return fmt.Errorf("store: serialize %s: %w", path, err)
	}
	return w.Close()
}

func (e *Encrypting) readEntity(path string) (*openpgp.Entity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("store: open keyring: %w", err)
	}
	defer f.Close()

	block, err := armor.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("store: decode keyring: %w", err)
	}

	entity, err := openpgp.ReadEntity(packet.NewReader(block.Body))
	if err != nil {
		return nil, fmt.Errorf("store: read keyring: %w", err)
	}

	if entity.PrivateKey != nil && entity.PrivateKey.Encrypted {
		if e.passphrase == nil {
			return nil, fmt.Errorf("%w: keyring requires a passphrase", ErrCrypt)
		}
		passphrase, err := e.passphrase()
		if err != nil {
			return nil, fmt.Errorf("store: read passphrase: %w", err)
		}
		if err := entity.PrivateKey.Decrypt(passphrase); err != nil {
			return nil, fmt.Errorf("%w: wrong passphrase", ErrCrypt)
		}
		for _, sub := range entity.Subkeys {
			if sub.PrivateKey != nil && sub.PrivateKey.Encrypted {
				if err := sub.PrivateKey.Decrypt(passphrase); err != nil {
					return nil, fmt.Errorf("%w: wrong passphrase", ErrCrypt)
				}
			}
		}
	}

	return entity, nil
}
