package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	cfg := New()
	cfg.ActorID = "actor"
	cfg.APIToken = "token"
	require.NoError(t, cfg.Validate())

	cfg.PollInterval = 5 * time.Second
	assert.Error(t, cfg.Validate())

	cfg.PollInterval = 301 * time.Second
	assert.Error(t, cfg.Validate())

	cfg.PollInterval = 10 * time.Second
	assert.NoError(t, cfg.Validate())

	cfg.APIToken = ""
	assert.Error(t, cfg.Validate())
}

func TestParseWeekday(t *testing.T) {
	day, err := ParseWeekday("Monday")
	require.NoError(t, err)
	assert.Equal(t, time.Monday, day)

	day, err = ParseWeekday("sunday")
	require.NoError(t, err)
	assert.Equal(t, time.Sunday, day)

	_, err = ParseWeekday("someday")
	assert.Error(t, err)
}
