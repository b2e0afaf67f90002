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

import (
	"fmt"

	"github.com/osprey-dcs/dp-query-engine/internal/xerr"
)

// Column is a single PV's data: its name, declared type, and values. Per §3,
// len(Values) must equal the owning basis's sample_count.
type Column struct {
	PVName string
	Type   Kind
	Values []Value
}

// Bucket is one atomic time-slice contribution from one PV: a basis paired
// with a single column. Invariant: len(Column.Values) == SampleCount(Basis).
type Bucket struct {
	Basis  Basis
	Column Column
}

// Validate checks the bucket's own invariants: column length matches the
// basis sample count, and every value is assignable to the column's
// declared type. It does not check cross-bucket invariants (disjointness,
// PV uniqueness) — those belong to the correlated set.
func (b Bucket) Validate() error {
	want := SampleCount(b.Basis)
	if len(b.Column.Values) != want {
		return xerr.New(xerr.SizeMismatch, fmt.Sprintf(
			"pv %q: column has %d values, basis sample count is %d", b.Column.PVName, len(b.Column.Values), want))
	}
	for _, v := range b.Column.Values {
		if !v.AssignableTo(b.Column.Type) {
			return xerr.New(xerr.TypeMismatch, fmt.Sprintf(
				"pv %q: value kind %s not assignable to declared type %s", b.Column.PVName, v.Kind, b.Column.Type))
		}
	}
	return nil
}
