package sheet

import "strings"

// stateCorrections maps a canonical state/province label to the variant
// spellings and abbreviations seen in vendor files. Lookup is
// case-insensitive; values with no entry are left untouched.
var stateCorrections = map[string][]string{
	"Alabama":        {"al", "ala"},
	"Alaska":         {"ak"},
	"Arizona":        {"az", "ariz"},
	"Arkansas":       {"ar", "ark"},
	"California":     {"ca", "cal", "calif"},
	"Colorado":       {"co", "colo"},
	"Connecticut":    {"ct", "conn"},
	"Delaware":       {"de", "del"},
	"Florida":        {"fl", "fla", "flordia", "floria"},
	"Georgia":        {"ga"},
	"Hawaii":         {"hi"},
	"Idaho":          {"id"},
	"Illinois":       {"il", "ill"},
	"Indiana":        {"in", "ind"},
	"Iowa":           {"ia"},
	"Kansas":         {"ks", "kan"},
	"Kentucky":       {"ky"},
	"Louisiana":      {"la"},
	"Maine":          {"me"},
	"Maryland":       {"md"},
	"Massachusetts":  {"ma", "mass"},
	"Michigan":       {"mi", "mich"},
	"Minnesota":      {"mn", "minn"},
	"Mississippi":    {"ms", "miss"},
	"Missouri":       {"mo"},
	"Montana":        {"mt", "mont"},
	"Nebraska":       {"ne", "neb", "nebr"},
	"Nevada":         {"nv", "nev"},
	"New Hampshire":  {"nh"},
	"New Jersey":     {"nj"},
	"New Mexico":     {"nm"},
	"New York":       {"ny"},
	"North Carolina": {"nc"},
	"North Dakota":   {"nd"},
	"Ohio":           {"oh"},
	"Oklahoma":       {"ok", "okla"},
	"Oregon":         {"or", "ore"},
	"Pennsylvania":   {"pa", "penn"},
	"Rhode Island":   {"ri"},
	"South Carolina": {"sc"},
	"South Dakota":   {"sd"},
	"Tennessee":      {"tn", "tenn"},
	"Texas":          {"tx", "tex"},
	"Utah":           {"ut"},
	"Vermont":        {"vt"},
	"Virginia":       {"va"},
	"Washington":     {"wa", "wash"},
	"West Virginia":  {"wv", "w virginia", "w. virginia"},
	"Wisconsin":      {"wi", "wis", "wisc"},
	"Wyoming":        {"wy", "wyo"},
}

var stateLookup = buildStateLookup()

func buildStateLookup() map[string]string {
	m := make(map[string]string)
	for canonical, variants := range stateCorrections {
		m[strings.ToLower(canonical)] = canonical
		for _, v := range variants {
			m[v] = canonical
		}
	}
	return m
}

// NormalizeState corrects a state value to its canonical label. Unknown
// values are returned unchanged.
func NormalizeState(val string) string {
	if canonical, ok := stateLookup[strings.ToLower(strings.TrimSpace(val))]; ok {
		return canonical
	}
	return val
}
