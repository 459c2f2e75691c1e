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

package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWireLength(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		dataLen int
		want    int
	}{
		{name: "empty payload", dataLen: 0, want: 16},
		{name: "one byte", dataLen: 1, want: 17},
		{name: "full capacity", dataLen: MaxDataLen, want: MaxFrameSize},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, WireLength(tt.dataLen))
		})
	}
}

func TestBufferPool(t *testing.T) {
	t.Parallel()

	buf := GetBuffer(20)
	assert.Len(t, buf, 20)
	assert.Equal(t, MaxFrameSize, cap(buf))
	PutBuffer(buf)

	full := GetBuffer(MaxFrameSize)
	assert.Len(t, full, MaxFrameSize)
	PutBuffer(full)

	// Foreign buffers are ignored rather than pooled
	PutBuffer(make([]byte, 8))
	again := GetBuffer(4)
	assert.Equal(t, MaxFrameSize, cap(again))
}
