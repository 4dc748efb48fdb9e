// auth.go
//
// Haven, a mental health support backend: AI chat, intake, community and therapist matching
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of haven.
// haven is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// haven is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with haven.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/haven/internal/auth"
	"github.com/localnerve/haven/internal/types"
)

// SessionCookie is the Authorizer session cookie name
const SessionCookie = "cookie_session"

const identityKey = "identity"

// Authenticator holds the validators for each credential kind. Either may be nil.
type Authenticator struct {
	Bearer  auth.Validator
	Session auth.Validator
}

// AuthUser requires an authenticated user
func (a *Authenticator) AuthUser() fiber.Handler {
	return a.Require(auth.RoleUser)
}

// AuthTherapist requires the therapist role
func (a *Authenticator) AuthTherapist() fiber.Handler {
	return a.Require(auth.RoleTherapist)
}

// AuthAdmin requires the admin role
func (a *Authenticator) AuthAdmin() fiber.Handler {
	return a.Require(auth.RoleAdmin)
}

// Require validates the request credential and checks it holds one of roles
func (a *Authenticator) Require(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, err := a.authenticate(c, roles)
		if err != nil {
			return err
		}
		c.Locals(identityKey, identity)
		return c.Next()
	}
}

// Optional attaches the identity when a valid credential is present and never rejects
func (a *Authenticator) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if identity, err := a.authenticate(c, nil); err == nil {
			c.Locals(identityKey, identity)
		}
		return c.Next()
	}
}

func (a *Authenticator) authenticate(c *fiber.Ctx, roles []string) (*auth.Identity, error) {
	validator, credential := a.credential(c)
	if credential == "" {
		return nil, types.NewError(fiber.StatusUnauthorized, "auth.missing",
			"Bearer token or %q cookie required", SessionCookie)
	}
	if validator == nil {
		return nil, types.NewError(fiber.StatusUnauthorized, "auth.unsupported",
			"Credential type is not accepted by this service")
	}

	identity, err := validator.Validate(c.UserContext(), credential, roles)
	if err != nil {
		if errors.Is(err, auth.ErrMissingRole) {
			return nil, types.NewError(fiber.StatusForbidden, "auth.forbidden",
				"Requires one of roles: %s", strings.Join(roles, ", "))
		}
		return nil, types.NewError(fiber.StatusForbidden, "auth.forbidden", "Invalid credential: %v", err)
	}

	return identity, nil
}

func (a *Authenticator) credential(c *fiber.Ctx) (auth.Validator, string) {
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") && strings.TrimSpace(token) != "" {
			return a.Bearer, strings.TrimSpace(token)
		}
	}
	if session := c.Cookies(SessionCookie); session != "" {
		return a.Session, session
	}
	return nil, ""
}

// CurrentIdentity returns the identity set by the auth middleware, or nil
func CurrentIdentity(c *fiber.Ctx) *auth.Identity {
	identity, _ := c.Locals(identityKey).(*auth.Identity)
	return identity
}

// WithIdentity stores identity on the context; tests use it to bypass validators
func WithIdentity(identity *auth.Identity) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(identityKey, identity)
		return c.Next()
	}
}
