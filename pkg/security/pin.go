package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/totem-backend/pkg/config"
	"golang.org/x/crypto/argon2"
)

// ErrInvalidHash signals a value in TOTEM_ADMIN_PIN_HASH that is not a PHC
// formatted argon2id hash.
var ErrInvalidHash = errors.New("invalid argon2id hash")

var b64 = base64.RawStdEncoding

// argonCost is the tunable part of a hash. It travels inside the encoded
// string so a kiosk can verify hashes minted with other settings.
type argonCost struct {
	memoryKB uint32
	passes   uint32
	threads  uint8
}

func (c argonCost) derive(pin string, salt []byte, keyLen uint32) []byte {
	return argon2.IDKey([]byte(pin), salt, c.passes, c.memoryKB, c.threads, keyLen)
}

// HashPIN returns the PHC string to place in TOTEM_ADMIN_PIN_HASH.
func HashPIN(pin string, cfg config.AdminConfig) (string, error) {
	if pin == "" {
		return "", errors.New("pin cannot be empty")
	}
	cost := argonCost{
		memoryKB: uint32(clamp(cfg.ArgonMemoryKB, 8, 512*1024)),
		passes:   uint32(clamp(cfg.ArgonTime, 1, 10)),
		threads:  uint8(clamp(cfg.ArgonParallelism, 1, 255)),
	}
	salt := make([]byte, clamp(cfg.ArgonSaltLen, 8, 64))
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := cost.derive(pin, salt, uint32(clamp(cfg.ArgonKeyLen, 16, 64)))

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, cost.memoryKB, cost.passes, cost.threads, b64.EncodeToString(salt), b64.EncodeToString(key)), nil
}

// VerifyPIN recomputes the key with the cost and salt stored in encoded.
func VerifyPIN(pin, encoded string) (bool, error) {
	cost, salt, want, err := parseHash(encoded)
	if err != nil {
		return false, err
	}
	got := cost.derive(pin, salt, uint32(len(want)))
	return subtle.ConstantTimeCompare(want, got) == 1, nil
}

// MatchPIN compares pin against the configured credential. A hash wins over
// the plain value when both are set.
func MatchPIN(pin string, cfg config.AdminConfig) (bool, error) {
	if encoded := strings.TrimSpace(cfg.PINHash); encoded != "" {
		return VerifyPIN(pin, encoded)
	}
	if cfg.PIN == "" {
		return false, errors.New("admin pin not configured")
	}
	return subtle.ConstantTimeCompare([]byte(pin), []byte(cfg.PIN)) == 1, nil
}

// parseHash splits $argon2id$v=19$m=..,t=..,p=..$salt$key.
func parseHash(encoded string) (argonCost, []byte, []byte, error) {
	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[0] != "" || fields[1] != "argon2id" {
		return argonCost{}, nil, nil, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(fields[2], "v=%d", &version); err != nil || version != argon2.Version {
		return argonCost{}, nil, nil, ErrInvalidHash
	}

	var cost argonCost
	if _, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &cost.memoryKB, &cost.passes, &cost.threads); err != nil {
		return argonCost{}, nil, nil, ErrInvalidHash
	}
	if cost.memoryKB == 0 || cost.passes == 0 || cost.threads == 0 {
		return argonCost{}, nil, nil, ErrInvalidHash
	}

	salt, err := b64.DecodeString(fields[4])
	if err != nil || len(salt) == 0 {
		return argonCost{}, nil, nil, ErrInvalidHash
	}
	key, err := b64.DecodeString(fields[5])
	if err != nil || len(key) == 0 {
		return argonCost{}, nil, nil, ErrInvalidHash
	}
	return cost, salt, key, nil
}

func clamp(value, lo, hi int) int {
	return max(lo, min(value, hi))
}
