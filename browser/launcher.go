// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package browser

import (
	"context"
	"fmt"

	"github.com/pkg/browser"

	"github.com/stacklok/appauth-go/logger"
)

// SystemLauncher opens URIs with the desktop's default browser. The
// descriptor is only logged because desktop hosts cannot pin a package.
type SystemLauncher struct {
	open func(url string) error
}

// NewSystemLauncher returns a launcher backed by the operating system's URL handler.
func NewSystemLauncher() *SystemLauncher {
	return &SystemLauncher{open: browser.OpenURL}
}

// Launch implements Launcher.
func (l *SystemLauncher) Launch(ctx context.Context, d Descriptor, uri string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logger.Debugw("opening authorization URI", "browser", d.String())
	if err := l.open(uri); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
