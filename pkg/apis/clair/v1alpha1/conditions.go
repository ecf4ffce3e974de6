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

package v1alpha1

// Condition types written by the operator. All are namespaced under
// ConditionTypePrefix when stored.
const (
	// ConditionSpecOK reports whether the spec carries every required
	// field.
	ConditionSpecOK = ConditionTypePrefix + "SpecOK"

	// ConditionConfigOK reports whether a configuration source exists
	// and composed successfully.
	ConditionConfigOK = ConditionTypePrefix + "ConfigOK"

	// Per-mode validation results.
	ConditionIndexerValidation  = ConditionTypePrefix + "IndexerConfigValidated"
	ConditionMatcherValidation  = ConditionTypePrefix + "MatcherConfigValidated"
	ConditionNotifierValidation = ConditionTypePrefix + "NotifierConfigValidated"
	ConditionUpdaterValidation  = ConditionTypePrefix + "UpdaterConfigValidated"

	// Per-child creation markers.
	ConditionIndexerCreated    = ConditionTypePrefix + "IndexerCreated"
	ConditionMatcherCreated    = ConditionTypePrefix + "MatcherCreated"
	ConditionNotifierCreated   = ConditionTypePrefix + "NotifierCreated"
	ConditionDeploymentCreated = ConditionTypePrefix + "DeploymentCreated"
	ConditionServiceCreated    = ConditionTypePrefix + "ServiceCreated"
	ConditionHPACreated        = ConditionTypePrefix + "AutoscalerCreated"
	ConditionRouteCreated      = ConditionTypePrefix + "RouteCreated"
	ConditionCronJobCreated    = ConditionTypePrefix + "CronJobCreated"
	ConditionJobCreated        = ConditionTypePrefix + "JobCreated"
	ConditionEndpointCreated   = ConditionTypePrefix + "EndpointCreated"
)

// Condition reasons.
const (
	ReasonSpecIncomplete    = "SpecIncomplete"
	ReasonSpecComplete      = "SpecComplete"
	ReasonValidationSuccess = "ValidationSuccess"
	ReasonValidationFailure = "ValidationFailure"
	ReasonCompositionFailed = "CompositionFailed"
	ReasonCreated           = "Created"
	ReasonSteady            = "Steady"
	ReasonNotConverged      = "NotConverged"
)
