// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package router

import (
	"context"
	"errors"

	"github.com/bureau-foundation/bugdesk/lib/secret"
	"github.com/bureau-foundation/bugdesk/tracker"
)

// nopAuth refuses everything; the router tests only need a manager that
// finishes startup without a session.
type nopAuth struct{}

var errNop = errors.New("not available in tests")

func (nopAuth) Me(context.Context, string) (*tracker.User, error) { return nil, errNop }

func (nopAuth) Login(context.Context, string, *secret.Buffer) (*tracker.Grant, error) {
	return nil, errNop
}

func (nopAuth) Register(context.Context, tracker.Registration) (*tracker.Grant, error) {
	return nil, errNop
}

func (nopAuth) UpdateProfile(context.Context, string, tracker.ProfileUpdate) (*tracker.User, error) {
	return nil, errNop
}

func (nopAuth) ChangePassword(context.Context, string, tracker.PasswordChange) error {
	return errNop
}
