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
	"testing"

	"github.com/osprey-dcs/dp-query-engine/internal/xerr"
	"github.com/osprey-dcs/dp-query-engine/pkg/model"
)

func TestBuildDataRequestHappyPath(t *testing.T) {
	req, err := New().
		SelectPVs([]string{"pv1", "pv2"}).
		SelectPV("pv1"). // duplicate, must not appear twice
		RangeBetween(model.Instant{Seconds: 0}, model.Instant{Seconds: 10}).
		SetStreamType(model.StreamForward).
		SetID("r1").
		BuildDataRequest()
	if err != nil {
		t.Fatalf("BuildDataRequest() error = %v", err)
	}
	if len(req.PVs) != 2 {
		t.Fatalf("len(PVs) = %d, want 2 (no duplicates)", len(req.PVs))
	}
	if req.StreamPref != model.StreamForward {
		t.Fatalf("StreamPref = %v, want StreamForward", req.StreamPref)
	}
	if req.ID != "r1" {
		t.Fatalf("ID = %q, want r1", req.ID)
	}
}

func TestBuildDataRequestEmptyPVs(t *testing.T) {
	_, err := New().RangeBetween(model.Instant{}, model.Instant{Seconds: 1}).BuildDataRequest()
	if xerr.KindOf(err) != xerr.Malformed {
		t.Fatalf("BuildDataRequest() kind = %v, want Malformed", xerr.KindOf(err))
	}
}

func TestBuildDataRequestUnboundedRange(t *testing.T) {
	_, err := New().SelectPV("pv1").RangeAfter(model.Instant{Seconds: 0}).BuildDataRequest()
	if xerr.KindOf(err) != xerr.Malformed {
		t.Fatalf("BuildDataRequest() kind = %v, want Malformed (missing end)", xerr.KindOf(err))
	}
}

func TestBuildDataRequestInvertedRange(t *testing.T) {
	_, err := New().
		SelectPV("pv1").
		RangeBetween(model.Instant{Seconds: 10}, model.Instant{Seconds: 5}).
		BuildDataRequest()
	if xerr.KindOf(err) != xerr.Malformed {
		t.Fatalf("BuildDataRequest() kind = %v, want Malformed (inverted range)", xerr.KindOf(err))
	}
}

func TestMetadataBuilderPatternSupersedesNames(t *testing.T) {
	req, err := NewMetadata().SelectPVs([]string{"pv1", "pv2"}).SetPattern("pv.*").Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !req.IsPattern || req.Pattern != "pv.*" {
		t.Fatalf("Build() = %+v, want pattern request", req)
	}
	if len(req.Names) != 0 {
		t.Fatalf("Names = %v, want empty after setting pattern", req.Names)
	}
}

func TestMetadataBuilderEmpty(t *testing.T) {
	_, err := NewMetadata().Build()
	if xerr.KindOf(err) != xerr.Malformed {
		t.Fatalf("Build() kind = %v, want Malformed", xerr.KindOf(err))
	}
}
