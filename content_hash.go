// Copyright 2025 Agentic World, LLC (Sherin Thomas)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sitebrief

import "github.com/cespare/xxhash/v2"

// contentHash fingerprints a page's extracted body text so the crawler can
// recognize the same content reached under two different URLs (for example
// "/" and "/home"). Whitespace is normalized first so markup-only differences
// do not defeat the comparison.
func contentHash(bodyText string) uint64 {
	return xxhash.Sum64String(normalizeWhitespace(bodyText))
}
