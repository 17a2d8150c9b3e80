// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bugui

import (
	"sort"
	"strings"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"

	"github.com/bureau-foundation/bugdesk/tracker"
)

// FuzzyResult is the outcome of matching a pattern against one string.
// Score is zero when the pattern does not match.
type FuzzyResult struct {
	Score     int
	Positions []int
}

// fuzzyMatch runs fzf's V2 matcher over text. Both sides are lowered
// before matching so the comparison is case-insensitive regardless of
// how the pattern was typed. The slab may be nil.
func fuzzyMatch(text string, pattern []rune, slab *util.Slab) FuzzyResult {
	if len(pattern) == 0 {
		return FuzzyResult{}
	}
	lowered := []rune(strings.ToLower(string(pattern)))
	chars := util.RunesToChars([]rune(strings.ToLower(text)))
	result, positions := algo.FuzzyMatchV2(false, false, true, &chars, lowered, true, slab)
	if result.Start < 0 || result.Score <= 0 {
		return FuzzyResult{}
	}
	match := FuzzyResult{Score: int(result.Score)}
	if positions != nil {
		match.Positions = append([]int(nil), (*positions)...)
		sort.Ints(match.Positions)
	}
	return match
}

// projectMatch is a project ranked against the quick-jump query.
// NamePositions index runes of the project name for highlighting.
type projectMatch struct {
	Project       tracker.Project
	Score         int
	NamePositions []int
}

// rankProjects orders projects by how well they match query. The
// project key and name are scored separately and the better one wins.
// An empty query keeps the catalog order.
func rankProjects(projects []tracker.Project, query string) []projectMatch {
	query = strings.TrimSpace(query)
	if query == "" {
		matches := make([]projectMatch, len(projects))
		for index, project := range projects {
			matches[index] = projectMatch{Project: project}
		}
		return matches
	}

	pattern := []rune(query)
	slab := util.MakeSlab(16*1024, 2048)
	var matches []projectMatch
	for _, project := range projects {
		name := fuzzyMatch(project.Name, pattern, slab)
		key := fuzzyMatch(project.Key, pattern, slab)
		if name.Score == 0 && key.Score == 0 {
			continue
		}
		match := projectMatch{Project: project, Score: name.Score, NamePositions: name.Positions}
		if key.Score > name.Score {
			match.Score = key.Score
			match.NamePositions = nil
		}
		matches = append(matches, match)
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}
