// Package identity simulates the corporate directory the remediation
// playbook operates on. Accounts are held in memory, derived on first
// lookup from the requester address, and carry a bcrypt-hashed credential
// so resets behave like the real thing.
package identity

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/ticket-autopilot/internal/domain"
	"github.com/spec-kit/ticket-autopilot/pkg/util"
)

const (
	tempCredentialLength  = 12
	tempCredentialCharset = "abcdefghjkmnpqrstuvwxyzABCDEFGHJKMNPQRSTUVWXYZ23456789!#%+"
)

type account struct {
	info         domain.UserInfo
	locked       bool
	passwordHash []byte
}

// Directory is an in-memory account store safe for concurrent use.
type Directory struct {
	mu       sync.Mutex
	accounts map[string]*account
}

// Seed declares an account up front, typically from test fixtures or the
// demo data set.
type Seed struct {
	UserID      string
	Email       string
	DisplayName string
	Locked      bool
}

// NewDirectory builds a directory holding the given seed accounts.
func NewDirectory(seeds ...Seed) *Directory {
	d := &Directory{accounts: make(map[string]*account, len(seeds))}
	for _, s := range seeds {
		status := "active"
		if s.Locked {
			status = "locked"
		}
		d.accounts[s.UserID] = &account{
			info: domain.UserInfo{
				UserID:      s.UserID,
				Email:       s.Email,
				DisplayName: s.DisplayName,
				Status:      status,
			},
			locked: s.Locked,
		}
	}
	return d
}

// GetUser resolves a requester address or user ID to a directory profile.
// Unknown identifiers get a profile derived from the address, the way a
// directory sync would have provisioned it.
func (d *Directory) GetUser(ctx context.Context, identifier string) (domain.UserInfo, error) {
	if err := ctx.Err(); err != nil {
		return domain.UserInfo{}, util.NewFault("directory", "get_user", err)
	}
	if identifier == "" {
		return domain.UserInfo{}, util.NewFault("directory", "get_user", fmt.Errorf("empty identifier"))
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.resolveLocked(identifier).info, nil
}

func (d *Directory) IsLocked(ctx context.Context, userID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, util.NewFault("directory", "is_locked", err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.resolveLocked(userID).locked, nil
}

func (d *Directory) Unlock(ctx context.Context, userID string, system domain.SystemKind) (domain.ActionResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.ActionResult{}, util.NewFault("directory", "unlock", err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	acc := d.resolveLocked(userID)
	acc.locked = false
	acc.info.Status = "active"
	return domain.ActionResult{
		OK:      true,
		UserID:  acc.info.UserID,
		System:  system,
		Action:  "unlock",
		Message: fmt.Sprintf("account %s unlocked on %s", acc.info.UserID, system),
	}, nil
}

// ResetPassword issues a fresh temporary credential and stores its bcrypt
// hash. The plaintext is returned exactly once, for the requester notice.
func (d *Directory) ResetPassword(ctx context.Context, userID string, system domain.SystemKind) (domain.ActionResult, string, error) {
	if err := ctx.Err(); err != nil {
		return domain.ActionResult{}, "", util.NewFault("directory", "reset_password", err)
	}

	temp, err := generateTempCredential()
	if err != nil {
		return domain.ActionResult{}, "", util.NewFault("directory", "reset_password", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(temp), bcrypt.DefaultCost)
	if err != nil {
		return domain.ActionResult{}, "", util.NewFault("directory", "reset_password", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	acc := d.resolveLocked(userID)
	acc.passwordHash = hash
	return domain.ActionResult{
		OK:      true,
		UserID:  acc.info.UserID,
		System:  system,
		Action:  "reset_password",
		Message: fmt.Sprintf("temporary credential issued for %s on %s", acc.info.UserID, system),
	}, temp, nil
}

func (d *Directory) VerifyUnlocked(ctx context.Context, userID string, system domain.SystemKind) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, util.NewFault("directory", "verify_unlocked", err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.resolveLocked(userID).locked, nil
}

func (d *Directory) GrantAccess(ctx context.Context, userID string, system domain.SystemKind) (domain.ActionResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.ActionResult{}, util.NewFault("directory", "grant_access", err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	acc := d.resolveLocked(userID)
	return domain.ActionResult{
		OK:      true,
		UserID:  acc.info.UserID,
		System:  system,
		Action:  "grant_access",
		Message: fmt.Sprintf("access to %s granted for %s", system, acc.info.UserID),
	}, nil
}

// VerifyCredential checks a plaintext credential against the stored hash.
// Accounts that never had a reset have no credential on record.
func (d *Directory) VerifyCredential(userID, password string) bool {
	d.mu.Lock()
	acc, ok := d.accounts[normalizeID(userID)]
	var hash []byte
	if ok {
		hash = acc.passwordHash
	}
	d.mu.Unlock()

	if len(hash) == 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

// Lock flips an account into the locked state. Test and demo helper.
func (d *Directory) Lock(userID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	acc := d.resolveLocked(userID)
	acc.locked = true
	acc.info.Status = "locked"
}

// resolveLocked returns the account for an identifier, provisioning a
// derived profile on first sight. Caller holds d.mu.
func (d *Directory) resolveLocked(identifier string) *account {
	id := normalizeID(identifier)
	if acc, ok := d.accounts[id]; ok {
		return acc
	}
	email := identifier
	if !strings.Contains(email, "@") {
		email = id + "@company.example"
	}
	acc := &account{
		info: domain.UserInfo{
			UserID:      id,
			Email:       strings.ToLower(email),
			DisplayName: displayNameFor(id),
			Status:      "active",
		},
	}
	d.accounts[id] = acc
	return acc
}

func normalizeID(identifier string) string {
	id := strings.ToLower(strings.TrimSpace(identifier))
	if at := strings.Index(id, "@"); at > 0 {
		id = id[:at]
	}
	return id
}

func displayNameFor(userID string) string {
	parts := strings.FieldsFunc(userID, func(r rune) bool { return r == '.' || r == '_' || r == '-' })
	for i, part := range parts {
		if part != "" {
			parts[i] = strings.ToUpper(part[:1]) + part[1:]
		}
	}
	return strings.Join(parts, " ")
}

func generateTempCredential() (string, error) {
	out := make([]byte, tempCredentialLength)
	max := big.NewInt(int64(len(tempCredentialCharset)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = tempCredentialCharset[n.Int64()]
	}
	return string(out), nil
}
