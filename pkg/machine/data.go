package machine

import (
	"context"
	"crypto/rand"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cuemby/siloscript/pkg/silo"
	"github.com/cuemby/siloscript/pkg/store"
)

// reservedPrefix marks Machine-internal keys (":tokens" and any future
// ones) that a script may never read or write directly.
const reservedPrefix = ":"

// tokensKey is the reserved Store key holding one silo's token map.
const tokensKey = store.Key(reservedPrefix + "tokens")

func checkUserKey(key string) error {
	if strings.HasPrefix(key, reservedPrefix) {
		return fmt.Errorf("%w: %q starts with reserved prefix %q", ErrInvalidKey, key, reservedPrefix)
	}
	return nil
}

// DataGet delegates to the Silo bound to handle, rejecting unknown
// handles and reserved-prefix keys.
func (m *Machine) DataGet(ctx context.Context, handle silo.Handle, key string, opts silo.GetOptions) (store.Value, error) {
	if err := checkUserKey(key); err != nil {
		return nil, err
	}
	s, err := m.lookupSilo(handle)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, store.Key(key), opts)
}

// DataPut delegates to the Silo bound to handle, rejecting unknown
// handles and reserved-prefix keys.
func (m *Machine) DataPut(handle silo.Handle, key string, value store.Value) error {
	if err := checkUserKey(key); err != nil {
		return err
	}
	s, err := m.lookupSilo(handle)
	if err != nil {
		return err
	}
	return s.Put(store.Key(key), value)
}

// DataCreateToken returns a stable, opaque substitute for plaintext,
// scoped to handle's (user, silo-name) partition. Repeated calls with the
// same plaintext in the same scope return the same token; distinct
// plaintexts never collide to the same token. The mapping lives in the
// reserved ":tokens" key as a JSON object from sha1(plaintext||salt) hex
// to token — the one reserved key a script can cause to be written,
// indirectly, through this call.
func (m *Machine) DataCreateToken(handle silo.Handle, plaintext string) (string, error) {
	s, err := m.lookupSilo(handle)
	if err != nil {
		return "", err
	}

	tokens, err := m.loadTokens(s)
	if err != nil {
		return "", err
	}

	sum := sha1.Sum([]byte(plaintext + m.tokenSalt))
	digest := hex.EncodeToString(sum[:])

	if token, ok := tokens[digest]; ok {
		return token, nil
	}

	token, err := mintToken()
	if err != nil {
		return "", err
	}
	tokens[digest] = token

	encoded, err := json.Marshal(tokens)
	if err != nil {
		return "", fmt.Errorf("machine: marshal tokens: %w", err)
	}
	if err := s.Put(tokensKey, store.Value(encoded)); err != nil {
		return "", err
	}
	return token, nil
}

func (m *Machine) loadTokens(s *silo.Silo) (map[string]string, error) {
	raw, err := s.Store.Get(s.Partition, tokensKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return make(map[string]string), nil
		}
		return nil, err
	}

	tokens := make(map[string]string)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &tokens); err != nil {
			return nil, fmt.Errorf("machine: unmarshal tokens: %w", err)
		}
	}
	return tokens, nil
}

func mintToken() (string, error) {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("machine: mint token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
