// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
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

package model

// MetadataRequest is a tagged union: either a name list or a regex pattern,
// never both (§4.1, §6). Exactly one of Names or Pattern is populated,
// selected by IsPattern.
type MetadataRequest struct {
	IsPattern bool
	Names     []string
	Pattern   string
}

// PvInfo describes a single PV as returned by query_meta (§6).
type PvInfo struct {
	Name           string
	Type           Kind
	FirstTimestamp Instant
	LastTimestamp  Instant
	Attributes     map[string]string
}
