// elMix: likelihood ratios for forensic DNA mixtures.
// Copyright (c) 2026 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/elmix/blob/master/LICENSE.txt>.

package likelihood

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolRunsTasks(t *testing.T) {
	pool := newTestPool(t)
	futures := make([]*Future, 20)
	for i := range futures {
		value := float64(i)
		futures[i] = pool.Submit(context.Background(), func(context.Context) (*LocusProbability, error) {
			return &LocusProbability{Locus: "FGA", Value: value}, nil
		})
	}
	for i, f := range futures {
		result, err := f.Get(context.Background())
		require.NoError(t, err)
		assert.Equal(t, float64(i), result.Value)
	}
}

func TestPoolCancelQueuedTask(t *testing.T) {
	pool := NewPool(1)
	defer pool.Close()
	release := make(chan struct{})
	var started sync.WaitGroup
	started.Add(1)
	blocker := pool.Submit(context.Background(), func(context.Context) (*LocusProbability, error) {
		started.Done()
		<-release
		return &LocusProbability{Locus: "FGA", Value: 1}, nil
	})
	started.Wait()
	ran := false
	queued := pool.Submit(context.Background(), func(context.Context) (*LocusProbability, error) {
		ran = true
		return &LocusProbability{Locus: "FGA"}, nil
	})
	queued.Cancel()
	close(release)
	_, err := blocker.Get(context.Background())
	require.NoError(t, err)
	_, err = queued.Get(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ran)
}

func TestPoolRecoversPanics(t *testing.T) {
	pool := newTestPool(t)
	f := pool.Submit(context.Background(), func(context.Context) (*LocusProbability, error) {
		panic("boom")
	})
	_, err := f.Get(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestPoolClosed(t *testing.T) {
	pool := NewPool(2)
	pool.Close()
	f := pool.Submit(context.Background(), func(context.Context) (*LocusProbability, error) {
		return &LocusProbability{}, nil
	})
	_, err := f.Get(context.Background())
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestFutureGetCancelledContext(t *testing.T) {
	pool := NewPool(1)
	defer pool.Close()
	release := make(chan struct{})
	f := pool.Submit(context.Background(), func(context.Context) (*LocusProbability, error) {
		<-release
		return &LocusProbability{}, nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.Get(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	close(release)
}
