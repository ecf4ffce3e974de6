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

// Package annotations provides parsing and validation of the operator's
// Kubernetes annotations.
package annotations

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

const (
	// RunNowAnnotation requests an immediate one-shot update run outside
	// the cron schedule. The value is an operator-chosen token; each new
	// token produces one Job.
	RunNowAnnotation = "clair.projectquay.io/run-now"

	// TemplateAnnotation overrides the default root configuration
	// document for a freshly-initialized Clair.
	TemplateAnnotation = "clair.projectquay.io/config-template"
)

// cron schedules use the standard 5-field format: minute hour day month
// weekday.
var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateSchedule reports an error if the given cron expression does not
// parse under the standard 5-field format.
func ValidateSchedule(schedule string) error {
	if strings.TrimSpace(schedule) == "" {
		return fmt.Errorf("schedule is empty")
	}
	if _, err := scheduleParser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	return nil
}

// ConfigTemplate returns the root configuration document override, if
// present. Whitespace-only values are treated as absent so an emptied
// annotation falls back to the built-in template.
func ConfigTemplate(obj metav1.Object) (string, bool) {
	doc, ok := obj.GetAnnotations()[TemplateAnnotation]
	if !ok || strings.TrimSpace(doc) == "" {
		return "", false
	}
	return doc, true
}

// RunNowToken returns the run-now annotation's token, if present. Tokens
// are used verbatim in Job names, so they must be DNS-label safe; unsafe
// tokens are reported as errors rather than ignored.
func RunNowToken(obj metav1.Object) (string, bool, error) {
	token, ok := obj.GetAnnotations()[RunNowAnnotation]
	if !ok || token == "" {
		return "", false, nil
	}
	if !validToken(token) {
		return "", true, fmt.Errorf("run-now token %q is not a valid DNS label fragment", token)
	}
	return token, true, nil
}

func validToken(token string) bool {
	if len(token) > 32 {
		return false
	}
	for _, r := range token {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '-':
		default:
			return false
		}
	}
	return token[0] != '-' && token[len(token)-1] != '-'
}
