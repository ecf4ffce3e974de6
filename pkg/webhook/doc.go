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

// Package webhook provides the admission surface for Clair resources.
//
// Two handlers are served through the manager's webhook server:
//
//   - the mutation handler defaults optional fields on create (the
//     configuration dialect and the notifier toggle), so that every
//     stored Clair object is explicit about both;
//
//   - the validation handler rejects malformed specs (bad drop-in
//     references, a dialect flip on update) and dry-runs the composed
//     configuration against every applicable operating mode, rejecting
//     only when no mode accepts it. Per-mode failures that leave at
//     least one usable mode surface as admission warnings instead.
//
// The package also self-registers the webhook configurations on startup
// and hot-reloads serving certificates when they change on disk.
package webhook
