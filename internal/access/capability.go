// Package access describes what an admin account may do: the role, the
// capability set and the authenticated principal carried in the request
// context. It has no dependencies so that every feature can import it.
package access

import (
	"encoding/json"
	"sort"
)

// Capability gates one functional area of the admin panel.
type Capability string

const (
	CapLeads     Capability = "leads"
	CapCustomers Capability = "customers"
	CapAnalytics Capability = "analytics"
	CapUsers     Capability = "users"
)

// AllCapabilities lists every capability in display order.
var AllCapabilities = []Capability{CapLeads, CapCustomers, CapAnalytics, CapUsers}

var capabilityLabels = map[Capability]string{
	CapLeads:     "leads",
	CapCustomers: "klanten",
	CapAnalytics: "analytics",
	CapUsers:     "gebruikersbeheer",
}

// ParseCapability accepts only known capability names.
func ParseCapability(s string) (Capability, bool) {
	c := Capability(s)
	_, ok := capabilityLabels[c]
	return c, ok
}

// Label is the Dutch name of the area, used in 403 messages.
func (c Capability) Label() string {
	if l, ok := capabilityLabels[c]; ok {
		return l
	}
	return string(c)
}

// DeniedMessage is the 403 text for a missing capability.
func (c Capability) DeniedMessage() string {
	return "Geen toegang tot " + c.Label()
}

// CapabilitySet is the set of capabilities granted to an account.
// Missing keys mean false.
type CapabilitySet map[Capability]bool

// NewCapabilitySet builds a set with the given capabilities enabled.
func NewCapabilitySet(caps ...Capability) CapabilitySet {
	s := make(CapabilitySet, len(caps))
	for _, c := range caps {
		s[c] = true
	}
	return s
}

// FullCapabilitySet grants everything.
func FullCapabilitySet() CapabilitySet {
	return NewCapabilitySet(AllCapabilities...)
}

// CapabilitySetFromStrings parses stored names, skipping unknown ones.
func CapabilitySetFromStrings(names []string) CapabilitySet {
	s := make(CapabilitySet, len(names))
	for _, n := range names {
		if c, ok := ParseCapability(n); ok {
			s[c] = true
		}
	}
	return s
}

// Has reports whether c is granted.
func (s CapabilitySet) Has(c Capability) bool {
	return s[c]
}

// With returns a copy with c set to enabled.
func (s CapabilitySet) With(c Capability, enabled bool) CapabilitySet {
	out := make(CapabilitySet, len(s)+1)
	for k, v := range s {
		if v {
			out[k] = true
		}
	}
	if enabled {
		out[c] = true
	} else {
		delete(out, c)
	}
	return out
}

// Strings returns the granted capabilities as sorted names, the form
// stored in the database.
func (s CapabilitySet) Strings() []string {
	out := make([]string, 0, len(s))
	for c, v := range s {
		if v {
			out = append(out, string(c))
		}
	}
	sort.Strings(out)
	return out
}

// Equal compares granted capabilities only.
func (s CapabilitySet) Equal(other CapabilitySet) bool {
	for _, c := range AllCapabilities {
		if s.Has(c) != other.Has(c) {
			return false
		}
	}
	return true
}

// MarshalJSON always emits every known capability, e.g.
// {"leads":true,"customers":false,...}, which is what the UI toggles bind to.
func (s CapabilitySet) MarshalJSON() ([]byte, error) {
	m := make(map[string]bool, len(AllCapabilities))
	for _, c := range AllCapabilities {
		m[string(c)] = s.Has(c)
	}
	return json.Marshal(m)
}

// Role is an explicit account attribute; a super admin implicitly holds
// every capability.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Effective resolves the capabilities an account actually has.
func Effective(role Role, granted CapabilitySet) CapabilitySet {
	if role == RoleSuperAdmin {
		return FullCapabilitySet()
	}
	if granted == nil {
		return CapabilitySet{}
	}
	return granted
}
