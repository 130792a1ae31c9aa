package f1

import (
	"strconv"
	"strings"
)

// Key builds a deterministic cache key from a provider name and the request
// parameters that identify a fetch. Parts are joined with "/", so keys are
// intentionally path-unsafe; the cache's filename mapping handles that.
func Key(provider string, parts ...string) string {
	if len(parts) == 0 {
		return provider
	}
	return provider + "/" + strings.Join(parts, "/")
}

func resultsKey(season, round int) string {
	return Key("jolpica", strconv.Itoa(season), strconv.Itoa(round), "results")
}

func driverStandingsKey(season int) string {
	return Key("jolpica", strconv.Itoa(season), "driverStandings")
}

func constructorStandingsKey(season int) string {
	return Key("jolpica", strconv.Itoa(season), "constructorStandings")
}
