package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vira/audio"
)

func TestAPIBase(t *testing.T) {
	t.Setenv("VIRA_API_URL", "")
	assert.Equal(t, defaultAPIBase, apiBase(""))
	assert.Equal(t, "http://host:9/api", apiBase("http://host:9/api"))

	t.Setenv("VIRA_API_URL", "https://env.example/api")
	assert.Equal(t, "https://env.example/api", apiBase(""))
	// explicit flag beats the environment
	assert.Equal(t, "http://flag/api", apiBase("http://flag/api"))
}

func TestResolveDeviceByName(t *testing.T) {
	ctx := &audio.FakeContext{}

	dev, err := resolveDevice(ctx, "FAKE", false)
	require.NoError(t, err)
	require.NotNil(t, dev)
	assert.Equal(t, "fake", dev.Name)

	_, err = resolveDevice(ctx, "nonexistent", false)
	assert.Error(t, err)
}

func TestResolveDeviceDefault(t *testing.T) {
	dev, err := resolveDevice(&audio.FakeContext{}, "", false)
	require.NoError(t, err)
	assert.Nil(t, dev)
}
