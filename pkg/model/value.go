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

// Kind enumerates the closed set of value types a PV series may carry.
// Deliberately a tagged enum rather than a type hierarchy: see §9 Design
// Notes against deep inheritance for the basis variant, which applies
// equally here.
type Kind int

const (
	KindBool Kind = iota
	KindInt32
	KindInt64
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindString
	KindBytes
	KindTimestamp
	KindArray
	KindStruct
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindUint32:
		return "uint32"
	case KindUint64:
		return "uint64"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindTimestamp:
		return "timestamp"
	case KindArray:
		return "array"
	case KindStruct:
		return "struct"
	default:
		return "unknown"
	}
}

// Value is a single cell of a column. Exactly one of the typed fields is
// meaningful, selected by Kind; Array/Struct values recurse through Array
// and Struct. Null marks a cell padded in for a block that carries no
// sample for this PV (§4.6 null runs); the typed fields are zero in that
// case.
type Value struct {
	Kind Kind
	Null bool

	Bool      bool
	Int32     int32
	Int64     int64
	Uint32    uint32
	Uint64    uint64
	Float32   float32
	Float64   float64
	String    string
	Bytes     []byte
	Timestamp Instant
	Array     []Value
	Struct    map[string]Value
}

// NullValue returns a null cell declared with kind k.
func NullValue(k Kind) Value {
	return Value{Kind: k, Null: true}
}

// AssignableTo reports whether v's runtime Kind may populate a column
// declared with kind decl. Only exact-kind matches are assignable; the
// engine never performs implicit numeric widening (§1 Non-goals: "does not
// translate values between types").
func (v Value) AssignableTo(decl Kind) bool {
	return v.Kind == decl
}
