package security

import "golang.org/x/crypto/bcrypt"

const DefaultCost = 10

// Hasher hashes and checks passwords with bcrypt at a fixed cost.
type Hasher struct {
	cost  int
	dummy []byte
}

func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	// compared against when the account does not exist so both login
	// failure paths spend the same bcrypt work
	dummy, _ := bcrypt.GenerateFromPassword([]byte("medconnect:no-such-account"), cost)

	return &Hasher{cost: cost, dummy: dummy}
}

// Hash returns a salted bcrypt hash; the salt lives inside the returned string.
func (h *Hasher) Hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// Verify reports whether plain matches hash. Malformed hashes never match.
func (h *Hasher) Verify(plain, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

func (h *Hasher) VerifyDummy(plain string) {
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(plain))
}
