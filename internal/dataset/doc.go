// Epimapa - District Epidemiological Incidence API
// Copyright 2026 Epimapa contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/epimapa/epimapa

// Package dataset loads the epidemiological case table and the district
// boundary document, and caches them as an immutable process-wide bundle.
//
// The bundle is built at most once per process. Construction is guarded by a
// single-flight group so concurrent first requests share one build; a failed
// build is never cached and is retried on the next request. After a
// successful build the bundle is read-only and safe for concurrent readers
// without locking.
package dataset
