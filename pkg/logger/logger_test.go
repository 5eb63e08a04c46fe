package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/config"
)

func TestNew(t *testing.T) {
	app := config.AppConfig{Name: "clinicdesk-api", Environment: "test"}

	log, err := New(config.LogConfig{Level: "debug", Format: "console", OutputPath: "stdout"}, app)
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(-1))

	_, err = New(config.LogConfig{Level: "loud", Format: "json", OutputPath: "stdout"}, app)
	assert.Error(t, err)
}
