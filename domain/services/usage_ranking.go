package services

import (
	"sort"

	"exerciselinks/domain/core/entities"
)

// RankMostUsed ranks links by how often their (target, type) pair occurs.
// Larger groups come first; ties are broken by target id, then link type.
// The first link of each group in input order represents it.
func RankMostUsed(links []*entities.ExerciseLink, count int) []*entities.ExerciseLink {
	if count <= 0 {
		return []*entities.ExerciseLink{}
	}

	type group struct {
		first *entities.ExerciseLink
		size  int
	}

	groups := make(map[string]*group)
	ranked := make([]*group, 0)
	for _, link := range links {
		key := link.TargetExerciseID().String() + "|" + link.LinkType().String()
		g, ok := groups[key]
		if !ok {
			g = &group{first: link}
			groups[key] = g
			ranked = append(ranked, g)
		}
		g.size++
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].size != ranked[j].size {
			return ranked[i].size > ranked[j].size
		}
		ti, tj := ranked[i].first.TargetExerciseID().String(), ranked[j].first.TargetExerciseID().String()
		if ti != tj {
			return ti < tj
		}
		return ranked[i].first.LinkType() < ranked[j].first.LinkType()
	})

	if count > len(ranked) {
		count = len(ranked)
	}
	result := make([]*entities.ExerciseLink, 0, count)
	for _, g := range ranked[:count] {
		result = append(result, g.first.Copy())
	}
	return result
}
