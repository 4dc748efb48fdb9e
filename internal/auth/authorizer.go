// authorizer.go
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

package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	authorizer "github.com/localnerve/authorizer-go"
	"github.com/localnerve/haven/internal/utils"
)

// AuthorizerValidator validates "cookie_session" cookies against an Authorizer instance.
// The client is created on first use so the service can start before Authorizer is reachable.
type AuthorizerValidator struct {
	url         string
	clientID    string
	redirectURL string

	once    sync.Once
	client  *authorizer.AuthorizerClient
	initErr error
}

// NewAuthorizerValidator returns a lazily initialized validator
func NewAuthorizerValidator(url, clientID, redirectURL string) *AuthorizerValidator {
	return &AuthorizerValidator{url: url, clientID: clientID, redirectURL: redirectURL}
}

// Initialized returns true if the Authorizer client has been created
func (v *AuthorizerValidator) Initialized() bool {
	return v.client != nil
}

func (v *AuthorizerValidator) init() error {
	v.once.Do(func() {
		if err := utils.PingAuthorizer(v.url); err != nil {
			v.initErr = fmt.Errorf("authorizer ping failed: %w", err)
			return
		}

		log.Printf("Initializing Authorizer: authorizerURL=%s, clientID=%s, redirectURL=%s",
			v.url, v.clientID, v.redirectURL)

		client, err := authorizer.NewAuthorizerClient(v.clientID, v.url, v.redirectURL, nil)
		if err != nil {
			v.initErr = fmt.Errorf("failed to create authorizer client: %w", err)
			return
		}
		v.client = client
	})
	return v.initErr
}

// Validate implements Validator
func (v *AuthorizerValidator) Validate(ctx context.Context, cookie string, roles []string) (*Identity, error) {
	if err := v.init(); err != nil {
		return nil, err
	}

	rolePtrs := make([]*string, len(roles))
	for i := range roles {
		rolePtrs[i] = &roles[i]
	}

	res, err := v.client.ValidateSession(&authorizer.ValidateSessionInput{
		Cookie: cookie,
		Roles:  rolePtrs,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	if res == nil || !res.IsValid {
		return nil, ErrInvalidCredential
	}

	// The user payload shape varies between Authorizer releases; read the fields we need.
	raw, err := json.Marshal(res.User)
	if err != nil {
		return nil, fmt.Errorf("failed to read session user: %w", err)
	}
	var user struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(raw, &user); err != nil || user.ID == "" {
		return nil, fmt.Errorf("%w: session has no user id", ErrInvalidCredential)
	}

	return &Identity{UserID: user.ID, Email: user.Email, Roles: normalizeRoles(roles)}, nil
}
