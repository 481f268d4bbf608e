package server

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"go.etcd.io/bbolt"
)

const sessionCleanupInterval = 5 * time.Minute

var sessionBucket = []byte("sessions")

// BoltSessionStore keeps sessions in a BBolt bucket, sealed at rest with
// AES-256-GCM under a key derived from the configured session secret.
// Sessions survive server restarts; changing the secret invalidates them
// all, which is the correct behavior.
type BoltSessionStore struct {
	db          *bbolt.DB
	key         []byte
	idleTimeout time.Duration
	stopOnce    sync.Once
	stopCh      chan struct{}
}

var _ SessionStore = (*BoltSessionStore)(nil)

// NewBoltSessionStore creates a persistent session store in the given
// database. idleTimeout of 0 disables idle timeout checking.
func NewBoltSessionStore(db *bbolt.DB, secret string, idleTimeout time.Duration) (*BoltSessionStore, error) {
	if secret == "" {
		return nil, fmt.Errorf("session secret must not be empty")
	}
	key := sha256.Sum256([]byte(secret))
	s := &BoltSessionStore{
		db:          db,
		key:         key[:],
		idleTimeout: idleTimeout,
		stopCh:      make(chan struct{}),
	}
	go s.cleanupLoop()
	return s, nil
}

// Close stops the background cleanup goroutine.
func (s *BoltSessionStore) Close() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

func (s *BoltSessionStore) Get(token string) (Session, bool) {
	var sealed []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(sessionBucket)
		if b == nil {
			return nil
		}
		if data := b.Get([]byte(token)); data != nil {
			sealed = append([]byte(nil), data...)
		}
		return nil
	})
	if err != nil || sealed == nil {
		return Session{}, false
	}
	data, err := openSealed(s.key, sealed, []byte(token))
	if err != nil {
		// Wrong secret or corrupt entry — drop it.
		s.Delete(token)
		return Session{}, false
	}
	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		s.Delete(token)
		return Session{}, false
	}
	if time.Now().After(session.ExpiresAt) {
		s.Delete(token)
		return Session{}, false
	}
	if s.idleTimeout > 0 && time.Since(session.LastAccessedAt) > s.idleTimeout {
		s.Delete(token)
		return Session{}, false
	}
	return session, true
}

func (s *BoltSessionStore) Put(token string, session Session) {
	data, err := json.Marshal(session)
	if err != nil {
		return
	}
	sealed, err := seal(s.key, data, []byte(token))
	if err != nil {
		return
	}
	_ = s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(sessionBucket)
		if err != nil {
			return err
		}
		return b.Put([]byte(token), sealed)
	})
}

func (s *BoltSessionStore) Delete(token string) {
	_ = s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(sessionBucket)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(token))
	})
}

// cleanupLoop periodically removes expired sessions from storage.
func (s *BoltSessionStore) cleanupLoop() {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.sweepExpired()
		}
	}
}

func (s *BoltSessionStore) sweepExpired() {
	var tokens []string
	_ = s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(sessionBucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, _ []byte) error {
			tokens = append(tokens, string(k))
			return nil
		})
	})
	for _, token := range tokens {
		// Get removes expired, idle, and undecryptable entries.
		s.Get(token)
	}
}

// seal encrypts plaintext with AES-256-GCM, binding it to the token via AAD
// and prepending the nonce.
func seal(key, plaintext, aad []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}
	return gcm.Seal(nonce, nonce, plaintext, aad), nil
}

func openSealed(key, sealed, aad []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}
	if len(sealed) < gcm.NonceSize() {
		return nil, fmt.Errorf("ciphertext shorter than nonce size")
	}
	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, fmt.Errorf("decrypting session: %w", err)
	}
	return plaintext, nil
}
