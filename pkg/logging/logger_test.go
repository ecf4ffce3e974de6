/*
Copyright 2024 The Clair authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerDefaults(t *testing.T) {
	logger, err := NewLogger(nil)
	require.NoError(t, err)
	assert.True(t, logger.Enabled())
}

func TestNewLoggerLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		_, err := NewLogger(&Config{Level: level})
		assert.NoError(t, err, "level %s", level)
	}

	_, err := NewLogger(&Config{Level: "verbose"})
	assert.Error(t, err)
}

func TestNewLoggerFormats(t *testing.T) {
	for _, format := range []string{"", "json", "console"} {
		_, err := NewLogger(&Config{Format: format})
		assert.NoError(t, err, "format %q", format)
	}

	_, err := NewLogger(&Config{Format: "xml"})
	assert.Error(t, err)
}

func TestNewLoggerDebugSuppression(t *testing.T) {
	logger, err := NewLogger(&Config{Level: "info"})
	require.NoError(t, err)
	assert.False(t, logger.V(1).Enabled())

	logger, err = NewLogger(&Config{Level: "debug"})
	require.NoError(t, err)
	assert.True(t, logger.V(1).Enabled())
}
