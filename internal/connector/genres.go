package connector

// movieGenres maps TMDB movie genre ids to display names. TV movies (10770)
// are deliberately absent.
var movieGenres = map[int64]string{
	28:    "Action",
	12:    "Adventure",
	16:    "Animation",
	35:    "Comedy",
	80:    "Crime",
	99:    "Documentary",
	18:    "Drama",
	10751: "Family",
	14:    "Fantasy",
	36:    "History",
	27:    "Horror",
	10402: "Music",
	9648:  "Mystery",
	10749: "Romance",
	878:   "Science Fiction",
	53:    "Thriller",
	10752: "War",
	37:    "Western",
}

// tvGenres maps TMDB TV genre ids to display names
var tvGenres = map[int64]string{
	10759: "Action & Adventure",
	16:    "Animation",
	35:    "Comedy",
	80:    "Crime",
	99:    "Documentary",
	18:    "Drama",
	10751: "Family",
	10762: "Kids",
	9648:  "Mystery",
	10763: "News",
	10764: "Reality",
	10765: "Sci-Fi & Fantasy",
	10766: "Soap",
	10767: "Talk",
	10768: "War & Politics",
	37:    "Western",
}

// genreNames resolves genre ids against the movie map first, then the TV
// map; unknown ids are dropped.
func genreNames(genreIDs []int64) []string {
	names := make([]string, 0, len(genreIDs))
	seen := make(map[string]bool, len(genreIDs))
	for _, id := range genreIDs {
		name, ok := movieGenres[id]
		if !ok {
			name, ok = tvGenres[id]
		}
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}
