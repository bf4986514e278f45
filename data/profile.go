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

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

const (
	profileSelector = "div.PROFIL dl"

	ProfileSector   = "Sektor"
	ProfileIndustry = "Branche"
	ProfileCompany  = "Unternehmen"
)

// ParseProfile reads the corporate key/value pairs of a company profile page. Definitions
// shortened with an ellipsis are replaced by their title attribute.
func ParseProfile(doc *goquery.Document) (map[string]string, error) {
	list := doc.Find(profileSelector).First()
	if list.Length() == 0 {
		return nil, fmt.Errorf("%w: no profile list (%s) found", ErrMalformedPage, profileSelector)
	}

	terms := list.Find("dt")
	definitions := list.Find("dd")
	if terms.Length() != definitions.Length() {
		return nil, fmt.Errorf("%w: profile has %d terms but %d definitions", ErrMalformedPage, terms.Length(), definitions.Length())
	}

	profile := make(map[string]string, terms.Length())
	definitions.Each(func(idx int, dd *goquery.Selection) {
		val := cellText(dd)
		if containsEllipsis(val) {
			if title, ok := dd.Attr("title"); ok && title != "" {
				val = title
			}
		}
		profile[cellText(terms.Eq(idx))] = val
	})

	return profile, nil
}
