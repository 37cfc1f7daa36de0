package scheduler

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidPrincipal is returned when an identity cannot be turned into a usable principal.
	ErrInvalidPrincipal = errors.New("scheduler: invalid principal")
)

// Principal is the authenticated caller as seen by the core. It is resolved
// once per request by the authentication layer and never re-derived from
// credentials afterwards.
type Principal struct {
	UserID    string
	CompanyID string
	Location  *time.Location
}

// NewPrincipal validates the identity fields and loads the IANA timezone.
func NewPrincipal(userID, companyID, timezone string) (Principal, error) {
	userID = strings.TrimSpace(userID)
	companyID = strings.TrimSpace(companyID)
	if userID == "" || companyID == "" {
		return Principal{}, fmt.Errorf("%w: user and company are required", ErrInvalidPrincipal)
	}

	loc, err := LoadLocation(timezone)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidPrincipal, err)
	}

	return Principal{UserID: userID, CompanyID: companyID, Location: loc}, nil
}

// Timezone returns the IANA name of the principal's location.
func (p Principal) Timezone() string {
	return p.Zone().String()
}

// Zone returns the principal's location, UTC when unset.
func (p Principal) Zone() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// LoadLocation resolves an IANA timezone name. Unlike time.LoadLocation it
// rejects the empty string instead of mapping it to UTC, and "Local", which
// names the server's zone rather than an IANA one.
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("timezone is required")
	}
	if name == "Local" {
		return nil, fmt.Errorf("unknown timezone %q", name)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q", name)
	}
	return loc, nil
}
