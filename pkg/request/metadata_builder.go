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

package request

import (
	"github.com/osprey-dcs/dp-query-engine/internal/xerr"
	"github.com/osprey-dcs/dp-query-engine/pkg/model"
)

// MetadataRequestBuilder accumulates either a PV name list or a regex
// pattern. Setting a pattern supersedes and clears any previously selected
// names, since the built request emits one or the other, never both (§4.1).
type MetadataRequestBuilder struct {
	names   []string
	pattern string
	hasPat  bool
}

// NewMetadata returns an empty metadata request builder.
func NewMetadata() *MetadataRequestBuilder { return &MetadataRequestBuilder{} }

// SelectPV adds a PV name. If a pattern was previously set, it is cleared.
func (b *MetadataRequestBuilder) SelectPV(name string) *MetadataRequestBuilder {
	b.hasPat = false
	b.pattern = ""
	b.names = append(b.names, name)
	return b
}

// SelectPVs adds multiple PV names, clearing any previously set pattern.
func (b *MetadataRequestBuilder) SelectPVs(names []string) *MetadataRequestBuilder {
	b.hasPat = false
	b.pattern = ""
	b.names = append(b.names, names...)
	return b
}

// SetPattern sets a regex selector, superseding and clearing any previously
// selected PV names.
func (b *MetadataRequestBuilder) SetPattern(regex string) *MetadataRequestBuilder {
	b.names = nil
	b.pattern = regex
	b.hasPat = true
	return b
}

// Build returns the immutable metadata request, or a Malformed error if
// neither a pattern nor any names were ever set.
func (b *MetadataRequestBuilder) Build() (model.MetadataRequest, error) {
	if b.hasPat {
		return model.MetadataRequest{IsPattern: true, Pattern: b.pattern}, nil
	}
	if len(b.names) == 0 {
		return model.MetadataRequest{}, xerr.New(xerr.Malformed, "empty request: no PVs or pattern selected")
	}
	names := make([]string, len(b.names))
	copy(names, b.names)
	return model.MetadataRequest{Names: names}, nil
}
