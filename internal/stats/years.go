package stats

import (
	"fmt"
	"sort"

	"filmlens/internal/merge"
)

func computeYears(films []*merge.Film) YearStats {
	ys := YearStats{}
	decades := make(map[int]int)

	for _, f := range films {
		if !f.Watched || f.Year == nil {
			continue
		}
		y := *f.Year
		if ys.YearCounts == nil {
			ys.YearCounts = make(map[int]int)
		}
		ys.YearCounts[y]++
		decades[y/10*10]++

		if ys.MinYear == nil || y < *ys.MinYear {
			ys.MinYear = intPtr(y)
		}
		if ys.MaxYear == nil || y > *ys.MaxYear {
			ys.MaxYear = intPtr(y)
		}
	}

	keys := make([]int, 0, len(decades))
	for d := range decades {
		keys = append(keys, d)
	}
	sort.Ints(keys)
	for _, d := range keys {
		ys.Decades = append(ys.Decades, DecadeCount{
			Decade: fmt.Sprintf("%ds", d),
			Count:  decades[d],
		})
	}

	return ys
}

func intPtr(v int) *int { return &v }
