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

package desired

import (
	"fmt"

	gatewayv1 "sigs.k8s.io/gateway-api/apis/v1"
)

// RoutePath returns the prefix under which a role's API is exposed on the
// gateway.
func RoutePath(role string) string {
	return fmt.Sprintf("/%s/api/v1/", role)
}

// Route builds the HTTPRoute attaching the role's Service to the parent's
// Gateway with prefix-based path matching. Callers must skip route
// building entirely when the parent spec has no gateway reference.
func Route(p Params) *gatewayv1.HTTPRoute {
	p.validate()
	invariant(p.Gateway != nil, "gateway reference is nil for %s", p.Role)

	pathType := gatewayv1.PathMatchPathPrefix
	pathValue := RoutePath(p.Role)
	port := gatewayv1.PortNumber(PortAPI)

	return &gatewayv1.HTTPRoute{
		ObjectMeta: objectMeta(&p),
		Spec: gatewayv1.HTTPRouteSpec{
			CommonRouteSpec: gatewayv1.CommonRouteSpec{
				ParentRefs: []gatewayv1.ParentReference{
					{Name: gatewayv1.ObjectName(p.Gateway.Name)},
				},
			},
			Rules: []gatewayv1.HTTPRouteRule{
				{
					Matches: []gatewayv1.HTTPRouteMatch{
						{
							Path: &gatewayv1.HTTPPathMatch{
								Type:  &pathType,
								Value: &pathValue,
							},
						},
					},
					BackendRefs: []gatewayv1.HTTPBackendRef{
						{
							BackendRef: gatewayv1.BackendRef{
								BackendObjectReference: gatewayv1.BackendObjectReference{
									Name: gatewayv1.ObjectName(WorkloadName(&p)),
									Port: &port,
								},
							},
						},
					},
				},
			},
		},
	}
}
