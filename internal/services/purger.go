package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/leads"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/logger"
)

// DefaultPurgeTokenTTL bounds how long a purge confirmation stays valid.
const DefaultPurgeTokenTTL = 2 * time.Minute

var (
	ErrPurgeDisabled     = errors.New("purge is not configured")
	ErrInvalidPassphrase = errors.New("invalid passphrase")
	ErrInvalidPurgeToken = errors.New("purge token is invalid or expired")
	ErrPurgeInProgress   = errors.New("a purge confirmation is already outstanding")
)

// PurgeConfirmation is the one-time token that authorizes a purge.
type PurgeConfirmation struct {
	ExpiresAt time.Time `json:"expiresAt"`
	Token     string    `json:"token"`
}

// Purger deletes every lead in two steps. Confirm checks the passphrase and
// issues a short-lived token; Purge consumes the token. Only one
// confirmation may be outstanding at a time.
type Purger struct {
	store leads.Store
	hash  []byte
	ttl   time.Duration
	log   *logger.Logger
	now   func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
	issuer  string
}

// NewPurger creates a Purger. An empty passphraseHash disables purging.
func NewPurger(store leads.Store, passphraseHash string, ttl time.Duration, log *logger.Logger) *Purger {
	if ttl <= 0 {
		ttl = DefaultPurgeTokenTTL
	}
	return &Purger{
		store: store,
		hash:  []byte(passphraseHash),
		ttl:   ttl,
		log:   log,
		now:   time.Now,
	}
}

// Enabled reports whether a passphrase hash is configured.
func (p *Purger) Enabled() bool {
	return len(p.hash) > 0
}

// Confirm verifies the passphrase and issues a purge token.
func (p *Purger) Confirm(s leads.Session, passphrase string) (*PurgeConfirmation, error) {
	if err := leads.CanPurge(s); err != nil {
		return nil, err
	}
	if !p.Enabled() {
		return nil, ErrPurgeDisabled
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if p.token != "" && now.Before(p.expires) {
		return nil, ErrPurgeInProgress
	}

	if err := bcrypt.CompareHashAndPassword(p.hash, []byte(passphrase)); err != nil {
		p.log.Warn("Purge passphrase rejected", map[string]interface{}{
			"user_id": s.UserID,
		})
		return nil, ErrInvalidPassphrase
	}

	token, err := newToken()
	if err != nil {
		return nil, err
	}
	p.token = token
	p.expires = now.Add(p.ttl)
	p.issuer = s.UserID

	p.log.Warn("Purge confirmation issued", map[string]interface{}{
		"user_id":    s.UserID,
		"expires_at": p.expires,
	})
	return &PurgeConfirmation{Token: token, ExpiresAt: p.expires}, nil
}

// Purge deletes every lead if token matches the outstanding confirmation.
// The token is spent even when the delete fails.
func (p *Purger) Purge(ctx context.Context, s leads.Session, token string) (int64, error) {
	if err := leads.CanPurge(s); err != nil {
		return 0, err
	}

	p.mu.Lock()
	valid := p.token != "" &&
		p.now().Before(p.expires) &&
		p.issuer == s.UserID &&
		subtle.ConstantTimeCompare([]byte(p.token), []byte(token)) == 1
	if valid {
		p.token, p.issuer = "", ""
	}
	p.mu.Unlock()

	if !valid {
		return 0, ErrInvalidPurgeToken
	}

	n, err := p.store.DeleteAll(ctx)
	if err != nil {
		return n, storeError("purge leads", err)
	}

	p.log.Warn("All leads purged", map[string]interface{}{
		"user_id": s.UserID,
		"deleted": n,
	})
	return n, nil
}

// HashPassphrase returns the bcrypt hash to configure for a passphrase.
func HashPassphrase(passphrase string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(passphrase), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash passphrase: %w", err)
	}
	return string(hash), nil
}

func newToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate purge token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
