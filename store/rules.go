package store

import (
	"strconv"
	"strings"
)

// SmartPlaylistRule is one condition of a smart playlist. An item is a member
// only when every rule of the playlist holds.
type SmartPlaylistRule struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// Rule operators.
const (
	OpEquals   = "equals"
	OpContains = "contains"
	OpGreater  = "greater"
	OpLess     = "less"
)

// fieldValue is the extracted value of an item field. text carries the
// canonical string form used by equals and contains; num is only meaningful
// when hasNum is set. List-valued fields are not scalar and never satisfy
// equals.
type fieldValue struct {
	text   string
	num    float64
	hasNum bool
	scalar bool
}

func stringValue(v string) (fieldValue, bool) {
	if v == "" {
		return fieldValue{}, false
	}
	n, err := strconv.ParseFloat(v, 64)
	return fieldValue{text: v, num: n, hasNum: err == nil, scalar: true}, true
}

func intValue(v int) (fieldValue, bool) {
	if v == 0 {
		return fieldValue{}, false
	}
	return fieldValue{text: strconv.Itoa(v), num: float64(v), hasNum: true, scalar: true}, true
}

// ruleFields maps the known rule field names to typed extractors. The second
// return value reports whether the field carries a value on this item; absent
// values fail the rule regardless of operator.
var ruleFields = map[string]func(Content) (fieldValue, bool){
	"id":          func(c Content) (fieldValue, bool) { return stringValue(c.ID) },
	"title":       func(c Content) (fieldValue, bool) { return stringValue(c.Title) },
	"type":        func(c Content) (fieldValue, bool) { return stringValue(c.Type) },
	"platform":    func(c Content) (fieldValue, bool) { return stringValue(c.Platform) },
	"releaseDate": func(c Content) (fieldValue, bool) { return stringValue(c.ReleaseDate) },
	"image":       func(c Content) (fieldValue, bool) { return stringValue(c.Image) },
	"host":        func(c Content) (fieldValue, bool) { return stringValue(c.Host) },
	"duration":    func(c Content) (fieldValue, bool) { return stringValue(c.Duration) },
	"genre": func(c Content) (fieldValue, bool) {
		if len(c.Genre) == 0 {
			return fieldValue{}, false
		}
		return fieldValue{text: strings.Join(c.Genre, ",")}, true
	},
	"watched": func(c Content) (fieldValue, bool) {
		return fieldValue{text: strconv.FormatBool(c.Watched), scalar: true}, true
	},
	"rating": func(c Content) (fieldValue, bool) {
		if c.Rating == nil {
			return fieldValue{}, false
		}
		return intValue(*c.Rating)
	},
	"episodeCount": func(c Content) (fieldValue, bool) { return intValue(c.EpisodeCount) },
}

// matchesRule evaluates a single rule against an item. Unknown fields and
// unknown operators fail the rule.
func matchesRule(item Content, rule SmartPlaylistRule) bool {
	extract, known := ruleFields[rule.Field]
	if !known {
		return false
	}
	v, present := extract(item)
	if !present {
		return false
	}

	switch rule.Operator {
	case OpEquals:
		return v.scalar && v.text == rule.Value
	case OpContains:
		return strings.Contains(strings.ToLower(v.text), strings.ToLower(rule.Value))
	case OpGreater:
		want, err := strconv.ParseFloat(rule.Value, 64)
		return err == nil && v.hasNum && v.num > want
	case OpLess:
		want, err := strconv.ParseFloat(rule.Value, 64)
		return err == nil && v.hasNum && v.num < want
	}
	return false
}

func matchesRules(item Content, rules []SmartPlaylistRule) bool {
	for _, rule := range rules {
		if !matchesRule(item, rule) {
			return false
		}
	}
	return true
}
