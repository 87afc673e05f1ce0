package digest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyHost struct {
	fakeHost
	failures int
	calls    int
}

func (f *flakyHost) Ready(_ context.Context) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("device restarting")
	}
	return nil
}

func TestWaitForHost_SucceedsAfterRetries(t *testing.T) {
	host := &flakyHost{failures: 2}

	err := WaitForHost(context.Background(), host, nil, 5, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 3, host.calls)
}

func TestWaitForHost_ExhaustsAttempts(t *testing.T) {
	host := &flakyHost{failures: 10}

	err := WaitForHost(context.Background(), host, nil, 3, time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "device not ready after 3 attempts")
	assert.Equal(t, 3, host.calls)
}

func TestWaitForHost_ContextCancelled(t *testing.T) {
	host := &flakyHost{failures: 10}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WaitForHost(ctx, host, nil, 3, time.Minute)
	require.ErrorIs(t, err, context.Canceled)
}

func TestGatherEnvironment(t *testing.T) {
	host := &fakeHost{
		partitions: []string{"Common", "T1"},
		nodes:      []string{"/Common/10.0.1.1"},
		virtualAddresses: map[string][]string{
			"T1": {"vip-a"},
		},
	}

	env, err := GatherEnvironment(context.Background(), host)
	require.NoError(t, err)
	assert.Equal(t, []string{"Common", "T1"}, env.Partitions)
	assert.Equal(t, map[string]int{"0": 0}, env.RouteDomains)
	assert.Equal(t, []string{"/Common/10.0.1.1"}, env.Nodes)
	assert.Equal(t, []string{"ltm"}, env.Provisioned)
	assert.Len(t, env.VirtualAddresses, 2)
	assert.Equal(t, []string{"vip-a"}, env.VirtualAddresses["T1"])

	// Empty device lists are not an error.
	assert.Empty(t, env.AccessProfiles)
	assert.Empty(t, env.AddressLists)
	assert.Len(t, env.SnatTranslations, 2)
	assert.Empty(t, env.SnatTranslations["Common"])
}

func TestEnvironment_VirtualAddressPaths(t *testing.T) {
	env := &Environment{
		VirtualAddresses: map[string][]string{
			"T1":     {"vip-a", "vip-b"},
			"Common": {"shared-vip"},
		},
	}

	paths := env.VirtualAddressPaths()
	assert.Equal(t, []string{"/Common/shared-vip", "/T1/vip-a", "/T1/vip-b"}, paths)
}
