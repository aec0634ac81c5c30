// Package httpkit holds the gin middleware and response helpers shared by
// every HTTP module.
package httpkit

import (
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const identityKey = "httpkit.identity"

// Identity is the caller authenticated by AuthRequired.
type Identity struct {
	userID   uuid.UUID
	tenantID *uuid.UUID
	roles    []string
}

func NewIdentity(userID uuid.UUID, tenantID *uuid.UUID, roles ...string) Identity {
	return Identity{userID: userID, tenantID: tenantID, roles: roles}
}

func (i Identity) UserID() uuid.UUID { return i.userID }

// TenantID is the organization the token was issued for, if any.
func (i Identity) TenantID() *uuid.UUID { return i.tenantID }

func (i Identity) HasRole(role string) bool { return slices.Contains(i.roles, role) }

// SetIdentity attaches id to the request.
func SetIdentity(c *gin.Context, id Identity) {
	c.Set(identityKey, id)
}

// GetIdentity returns the identity set by AuthRequired.
func GetIdentity(c *gin.Context) (Identity, bool) {
	raw, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	id, ok := raw.(Identity)
	return id, ok
}

// MustGetIdentity is GetIdentity that answers 401 when no identity is set.
func MustGetIdentity(c *gin.Context) (Identity, bool) {
	id, ok := GetIdentity(c)
	if !ok {
		abortUnauthorized(c, "unauthorized")
	}
	return id, ok
}
