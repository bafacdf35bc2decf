package fandom

import "math/rand"

// dedupeImages keeps the first occurrence of every url.
func dedupeImages(images []GalleryImage) []GalleryImage {
	seen := make(map[string]bool, len(images))
	out := make([]GalleryImage, 0, len(images))
	for _, img := range images {
		if seen[img.URL] {
			continue
		}
		seen[img.URL] = true
		out = append(out, img)
	}
	return out
}

// sampleRoundRobin picks up to `limit` images so that every section is represented before any
// section contributes a second image. Each sweep goes over the non-empty sections in the order
// they first appear and takes one uniformly random image from each. The selection is shuffled
// before being returned. The input is not modified.
func sampleRoundRobin(rng *rand.Rand, images []GalleryImage, limit int) []GalleryImage {
	if limit <= 0 {
		return []GalleryImage{}
	}

	var order []string
	pools := map[string][]GalleryImage{}
	for _, img := range images {
		if _, ok := pools[img.SourceSection]; !ok {
			order = append(order, img.SourceSection)
		}
		pools[img.SourceSection] = append(pools[img.SourceSection], img)
	}

	selected := make([]GalleryImage, 0, min(limit, len(images)))
	for len(selected) < limit {
		progressed := false
		for _, section := range order {
			if len(selected) >= limit {
				break
			}
			pool := pools[section]
			if len(pool) == 0 {
				continue
			}

			i := rng.Intn(len(pool))
			selected = append(selected, pool[i])
			pool[i] = pool[len(pool)-1]
			pools[section] = pool[:len(pool)-1]
			progressed = true
		}
		if !progressed {
			break
		}
	}

	rng.Shuffle(len(selected), func(i, j int) {
		selected[i], selected[j] = selected[j], selected[i]
	})
	if len(selected) > limit {
		selected = selected[:limit]
	}
	return selected
}
