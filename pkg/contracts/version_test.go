package contracts

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionInfo(t *testing.T) {
	info := GetVersionInfo()
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, runtime.GOOS, info.OS)
	assert.Equal(t, DataFormatVersion, info.DataFormat)

	assert.Equal(t, "fuelcast v1.0.0", GetVersionString())
	full := GetFullVersionString()
	assert.Contains(t, full, "fuelcast v1.0.0 (built: unknown")
	assert.Contains(t, full, "data format: v1")
	assert.True(t, IsStable())
}
