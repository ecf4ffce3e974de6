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

package annotations

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

func TestValidateSchedule(t *testing.T) {
	valid := []string{
		"0 */6 * * *",
		"30 2 * * *",
		"*/5 * * * *",
		"0 0 1 1 0",
	}
	for _, s := range valid {
		assert.NoError(t, ValidateSchedule(s), s)
	}

	invalid := []string{
		"",
		"   ",
		"whenever",
		"61 * * * *",
		"* * * *",
		"@reboot",
		"0 0 * * * *",
	}
	for _, s := range invalid {
		assert.Error(t, ValidateSchedule(s), s)
	}
}

func objWithAnnotations(anns map[string]string) metav1.Object {
	return &metav1.ObjectMeta{Annotations: anns}
}

func TestConfigTemplate(t *testing.T) {
	doc, ok := ConfigTemplate(objWithAnnotations(nil))
	assert.False(t, ok)
	assert.Empty(t, doc)

	_, ok = ConfigTemplate(objWithAnnotations(map[string]string{TemplateAnnotation: "   "}))
	assert.False(t, ok)

	doc, ok = ConfigTemplate(objWithAnnotations(map[string]string{
		TemplateAnnotation: `{"log_level": "debug"}`,
	}))
	assert.True(t, ok)
	assert.Equal(t, `{"log_level": "debug"}`, doc)
}

func TestRunNowTokenAbsent(t *testing.T) {
	_, present, err := RunNowToken(objWithAnnotations(nil))
	require.NoError(t, err)
	assert.False(t, present)

	_, present, err = RunNowToken(objWithAnnotations(map[string]string{RunNowAnnotation: ""}))
	require.NoError(t, err)
	assert.False(t, present)
}

func TestRunNowTokenValid(t *testing.T) {
	for _, tok := range []string{"a", "feed-refresh-1", "0123456789", strings.Repeat("a", 32)} {
		got, present, err := RunNowToken(objWithAnnotations(map[string]string{RunNowAnnotation: tok}))
		require.NoError(t, err, tok)
		assert.True(t, present)
		assert.Equal(t, tok, got)
	}
}

func TestRunNowTokenInvalid(t *testing.T) {
	for _, tok := range []string{
		"UPPER",
		"under_score",
		"-leading",
		"trailing-",
		"spaced out",
		strings.Repeat("a", 33),
	} {
		_, present, err := RunNowToken(objWithAnnotations(map[string]string{RunNowAnnotation: tok}))
		assert.True(t, present, tok)
		assert.Error(t, err, tok)
	}
}
