// go-ethspi
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-ethspi.
//
// go-ethspi is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-ethspi is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-ethspi; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ZaparooProject/go-ethspi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetry(t *testing.T) {
	t.Parallel()

	t.Run("succeeds after retries", func(t *testing.T) {
		t.Parallel()
		attempts, retries := 0, 0
		got, err := WithRetry(Config{
			MaxRetries: 3,
			OnRetry:    func() error { retries++; return nil },
		}, func() (int, bool, error) {
			attempts++
			return attempts, attempts < 3, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, got)
		assert.Equal(t, 2, retries)
	})

	t.Run("exhausted", func(t *testing.T) {
		t.Parallel()
		attempts := 0
		_, err := WithRetry(Config{MaxRetries: 2, Description: "open port"}, func() (int, bool, error) {
			attempts++
			return 0, true, nil
		})
		require.ErrorIs(t, err, ethspi.ErrRetriesExhausted)
		assert.Contains(t, err.Error(), "open port")
		assert.Equal(t, 3, attempts)
	})

	t.Run("permanent error stops", func(t *testing.T) {
		t.Parallel()
		permanent := errors.New("permission denied")
		attempts := 0
		_, err := WithRetry(Config{MaxRetries: 5}, func() (int, bool, error) {
			attempts++
			return 0, false, permanent
		})
		require.ErrorIs(t, err, permanent)
		assert.Equal(t, 1, attempts)
	})

	t.Run("retry callback error stops", func(t *testing.T) {
		t.Parallel()
		cbErr := errors.New("reset failed")
		_, err := WithRetry(Config{MaxRetries: 5, OnRetry: func() error { return cbErr }}, func() (int, bool, error) {
			return 0, true, nil
		})
		require.ErrorIs(t, err, cbErr)
	})
}

func TestPoll(t *testing.T) {
	t.Parallel()

	t.Run("returns once done", func(t *testing.T) {
		t.Parallel()
		calls := 0
		got, err := Poll(context.Background(), time.Millisecond, func() (string, bool, error) {
			calls++
			return "done", calls < 4, nil
		})
		require.NoError(t, err)
		assert.Equal(t, "done", got)
		assert.Equal(t, 4, calls)
	})

	t.Run("context deadline", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err := Poll(ctx, time.Millisecond, func() (bool, bool, error) {
			return false, true, nil
		})
		require.ErrorIs(t, err, ethspi.ErrTimeout)
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
