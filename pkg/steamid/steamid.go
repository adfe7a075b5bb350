// Package steamid parses and validates 64-bit Steam identities.
package steamid

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalid is returned when a string cannot be parsed into a valid SteamID.
var ErrInvalid = errors.New("invalid steamid")

// Universe values.
const (
	UniverseInvalid  = 0
	UniversePublic   = 1
	UniverseBeta     = 2
	UniverseInternal = 3
	UniverseDev      = 4
)

// Account types.
const (
	TypeInvalid    = 0
	TypeIndividual = 1
	TypeClan       = 7
)

// Instance values for individual accounts.
const (
	InstanceAll     = 0
	InstanceDesktop = 1
	InstanceConsole = 2
	InstanceWeb     = 4
)

var (
	steam2Pattern = regexp.MustCompile(`^STEAM_([0-5]):([0-1]):([0-9]+)$`)
	steam3Pattern = regexp.MustCompile(`^\[([a-zA-Z]):([0-5]):([0-9]+)(:[0-9]+)?\]$`)
)

// ID is a 64-bit SteamID.
//
// Layout (most significant first): 8 bits universe, 4 bits account type,
// 20 bits instance, 32 bits account id.
type ID uint64

// New assembles an ID from its components.
func New(universe, accountType, instance, accountID uint32) ID {
	return ID(uint64(universe&0xFF)<<56 |
		uint64(accountType&0xF)<<52 |
		uint64(instance&0xFFFFF)<<32 |
		uint64(accountID))
}

// Parse accepts a decimal Steam64 id, a Steam2 id (STEAM_X:Y:Z) or a Steam3
// id ([U:1:Z]) and returns a validated ID.
func Parse(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalid)
	}

	var id ID
	switch {
	case steam2Pattern.MatchString(s):
		m := steam2Pattern.FindStringSubmatch(s)
		universe, _ := strconv.ParseUint(m[1], 10, 8)
		if universe == UniverseInvalid {
			// Steam2 ids from older games report universe 0 for public accounts.
			universe = UniversePublic
		}
		low, _ := strconv.ParseUint(m[2], 10, 32)
		high, err := strconv.ParseUint(m[3], 10, 32)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalid, s)
		}
		accountID := high*2 + low
		if accountID > math.MaxUint32 {
			return 0, fmt.Errorf("%w: account id out of range in %q", ErrInvalid, s)
		}
		id = New(uint32(universe), TypeIndividual, InstanceDesktop, uint32(accountID))

	case steam3Pattern.MatchString(s):
		m := steam3Pattern.FindStringSubmatch(s)
		if m[1] != "U" {
			return 0, fmt.Errorf("%w: unsupported account type %q", ErrInvalid, m[1])
		}
		universe, _ := strconv.ParseUint(m[2], 10, 8)
		accountID, err := strconv.ParseUint(m[3], 10, 32)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalid, s)
		}
		instance := uint64(InstanceDesktop)
		if m[4] != "" {
			instance, err = strconv.ParseUint(m[4][1:], 10, 20)
			if err != nil {
				return 0, fmt.Errorf("%w: %q", ErrInvalid, s)
			}
		}
		id = New(uint32(universe), TypeIndividual, uint32(instance), uint32(accountID))

	default:
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalid, s)
		}
		id = ID(n)
	}

	if !id.IsValid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	return id, nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(s string) ID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

// Universe returns the universe component.
func (id ID) Universe() uint32 { return uint32(id >> 56) }

// AccountType returns the account type component.
func (id ID) AccountType() uint32 { return uint32(id>>52) & 0xF }

// Instance returns the instance component.
func (id ID) Instance() uint32 { return uint32(id>>32) & 0xFFFFF }

// AccountID returns the 32-bit account id.
func (id ID) AccountID() uint32 { return uint32(id) }

// IsValid reports whether the id describes a usable individual account.
func (id ID) IsValid() bool {
	if id.Universe() <= UniverseInvalid || id.Universe() > UniverseDev {
		return false
	}
	if id.AccountType() != TypeIndividual {
		return false
	}
	if id.AccountID() == 0 || id.Instance() > InstanceWeb {
		return false
	}
	return true
}

// String returns the decimal Steam64 form used in URLs.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Steam3 returns the [U:1:Z] rendering.
func (id ID) Steam3() string {
	return fmt.Sprintf("[U:%d:%d]", id.Universe(), id.AccountID())
}
