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

// Package operator assembles the clair-operator process: the
// controller-runtime manager, the five reconcilers, the admission
// webhooks and the introspection HTTP server.
//
// The assembly order is fixed. New builds the scheme and the manager,
// constructs the shared reconciliation Driver, registers all
// controllers, wires the admission handlers into the manager's webhook
// server and attaches the introspection server as a manager Runnable.
// Start then hands control to the manager, which supervises every
// component and stops them together when the context is canceled.
//
// Leader election uses controller-runtime's built-in lease mechanism;
// there is no custom election code here. The ShutdownManager adds
// signal handling and ordered shutdown hooks on top of the manager's
// own lifecycle.
package operator
