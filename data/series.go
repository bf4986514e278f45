// Copyright 2021-2023
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package data

import "math"

// Series is an ordered set of values keyed by a column label (e.g. "2023", "2024e")
type Series struct {
	Labels []string
	Values []float64
}

// Len returns the number of entries in the series
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Values)
}

// Get returns the value stored under label
func (s *Series) Get(label string) (float64, bool) {
	if s == nil {
		return math.NaN(), false
	}
	for idx, l := range s.Labels {
		if l == label {
			return s.Values[idx], true
		}
	}
	return math.NaN(), false
}

// At returns the label and value at position idx
func (s *Series) At(idx int) (string, float64, bool) {
	if s == nil || idx < 0 || idx >= len(s.Values) {
		return "", math.NaN(), false
	}
	return s.Labels[idx], s.Values[idx], true
}

// First returns the first value in the series or NaN if it is empty
func (s *Series) First() float64 {
	_, val, ok := s.At(0)
	if !ok {
		return math.NaN()
	}
	return val
}

// Copy creates a deep copy of the series
func (s *Series) Copy() *Series {
	if s == nil {
		return nil
	}
	s2 := &Series{
		Labels: make([]string, len(s.Labels)),
		Values: make([]float64, len(s.Values)),
	}
	copy(s2.Labels, s.Labels)
	copy(s2.Values, s.Values)
	return s2
}
