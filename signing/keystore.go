// Package signing is the narrow signing-params API the forwarding core
// consumes (The keystore / signing / hashing primitives — consumed through a narrow signing-params API). It owns the daemon's
// own keypair and ccnd_id, and verifies the signed ContentObjects the
// internal client's control-plane handlers receive, but
// never implements a general cryptographic library: exactly one key
// type (Ed25519), one digest (SHA-256), one keystore format.
package signing

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/scrypt"
)

// shroudPassword is the fixed byte constant C ccnd uses
// to encrypt the on-disk private key. It buys obscurity against casual disk
// browsing, not real secrecy.
var shroudPassword = []byte("\x00CCNDKEYS\x00")

const (
	scryptN = 1 << 14
	scryptR = 8
	scryptP = 1
	kekLen  = 32
)

// DefaultDir returns the per-user keystore directory
// (/var/tmp/.ccnx-user<euid>/), overridable by CCND_KEYSTORE_DIRECTORY.
func DefaultDir() string {
	return fmt.Sprintf("/var/tmp/.ccnx-user%d", os.Geteuid())
}

// Keystore holds the daemon's own Ed25519 keypair, persisted (encrypted)
// in a sqlite file under dir, and the derived ccnd_id.
type Keystore struct {
	dir     string
	pub     ed25519.PublicKey
	priv    ed25519.PrivateKey
	ccndID  [32]byte
}

// Open loads an existing keystore from dir, or creates a fresh one under
// the fixed shroud pass if none exists yet. This is the one known
// multi-second stall in daemon startup and must run before the event
// loop begins.
func Open(dir string) (*Keystore, error) {
	if dir == "" {
		dir = DefaultDir()
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("signing: mkdir keystore dir: %w", err)
	}

	dbPath := filepath.Join(dir, "ccnd_keystore.sqlite")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("signing: open keystore db: %w", err)
	}
	defer db.Close()

	if err := ensureSchema(db); err != nil {
		return nil, err
	}

	pub, priv, err := loadOrCreate(db)
	if err != nil {
		return nil, err
	}

	ks := &Keystore{dir: dir, pub: pub, priv: priv}
	ks.ccndID = sha256.Sum256(pub)
	return ks, nil
}

func ensureSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS keypair (
		id INTEGER PRIMARY KEY CHECK (id = 0),
		salt BLOB NOT NULL,
		pubkey BLOB NOT NULL,
		sealed_priv BLOB NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("signing: create schema: %w", err)
	}
	return nil
}

func loadOrCreate(db *sql.DB) (ed25519.PublicKey, ed25519.PrivateKey, error) {
	var salt, pub, sealed []byte
	err := db.QueryRow(`SELECT salt, pubkey, sealed_priv FROM keypair WHERE id = 0`).Scan(&salt, &pub, &sealed)
	switch err {
	case nil:
		kek, err := scrypt.Key(shroudPassword, salt, scryptN, scryptR, scryptP, kekLen)
		if err != nil {
			return nil, nil, fmt.Errorf("signing: derive kek: %w", err)
		}
		priv := xorUnseal(sealed, kek)
		return ed25519.PublicKey(pub), ed25519.PrivateKey(priv), nil
	case sql.ErrNoRows:
		return createKeypair(db)
	default:
		return nil, nil, fmt.Errorf("signing: read keypair: %w", err)
	}
}

func createKeypair(db *sql.DB) (ed25519.PublicKey, ed25519.PrivateKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("signing: generate key: %w", err)
	}
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, nil, fmt.Errorf("signing: salt: %w", err)
	}
	kek, err := scrypt.Key(shroudPassword, salt, scryptN, scryptR, scryptP, kekLen)
	if err != nil {
		return nil, nil, fmt.Errorf("signing: derive kek: %w", err)
	}
	sealed := xorUnseal(priv, kek) // XOR is its own inverse
	_, err = db.Exec(`INSERT INTO keypair (id, salt, pubkey, sealed_priv) VALUES (0, ?, ?, ?)`, salt, []byte(pub), sealed)
	if err != nil {
		return nil, nil, fmt.Errorf("signing: persist keypair: %w", err)
	}
	return pub, priv, nil
}

// xorUnseal is the keystore's "sealing" transform: a stream cipher built
// from repeating the KEK, matching the shroud's job of deterring casual
// inspection rather than providing real confidentiality (see
// shroudPassword's doc comment). Applying it twice with the same key is
// the identity, so the same function seals and unseals.
func xorUnseal(data, kek []byte) []byte {
	out := make([]byte, len(data))
	for i := range data {
		out[i] = data[i] ^ kek[i%len(kek)]
	}
	return out
}

// CcndID returns the daemon's own ccnd_id: the SHA-256 digest of its
// public key.
func (k *Keystore) CcndID() [32]byte { return k.ccndID }

// PublicKey returns the raw Ed25519 public key, the payload of the
// %C1.M.S.localhost/%C1.M.SRV/ccnd key object.
func (k *Keystore) PublicKey() ed25519.PublicKey { return k.pub }

// Sign produces a detached Ed25519 signature over body.
func (k *Keystore) Sign(body []byte) []byte {
	return ed25519.Sign(k.priv, body)
}

// Verifier is the narrow interface the internal client's mutating verbs
// need to check that a request's embedded signature and ccnd_id are
// genuine. Keystore itself satisfies it against its
// own key; a request signed by some other key is checked against the
// PublisherKeyDigest/KeyLocator carried in the request, not modeled
// further here since that full chain is explicitly out of scope.
type Verifier interface {
	Verify(body, sig []byte, pub ed25519.PublicKey) bool
}

// Verify checks sig against body under pub; the daemon's Keystore
// satisfies Verifier trivially since it is the only verifier the core
// needs (requests claiming the daemon's own ccnd_id must be signed by
// the daemon's own key or they are rejected as 531/wrong ccnd_id).
func (k *Keystore) Verify(body, sig []byte, pub ed25519.PublicKey) bool {
	return ed25519.Verify(pub, body, sig)
}
