// Package intent turns free-text chat messages into a structured fitness
// intent by matching an ordered table of phrase rules.
package intent

import (
	"regexp"
	"strconv"
	"strings"
)

// Field names one tracked slot of an Intent.
type Field string

const (
	FieldLevel     Field = "fitnessLevel"
	FieldGoals     Field = "goals"
	FieldTime      Field = "timeAvailable"
	FieldEquipment Field = "equipment"
	FieldFocus     Field = "focusAreas"
	FieldFrequency Field = "workoutFrequency"
)

// Fields lists every tracked slot in canonical order.
var Fields = []Field{FieldLevel, FieldGoals, FieldTime, FieldEquipment, FieldFocus, FieldFrequency}

var labels = map[Field]string{
	FieldLevel:     "fitness level",
	FieldGoals:     "fitness goals",
	FieldTime:      "time availability",
	FieldEquipment: "equipment access",
	FieldFocus:     "focus areas",
	FieldFrequency: "workout frequency",
}

// Label returns the human-readable name of f.
func (f Field) Label() string { return labels[f] }

// Intent is what the user wants from today's workout, built up turn by turn.
// HasEnoughInfo is derived from the other fields on every update.
type Intent struct {
	FitnessLevel     string `json:"fitnessLevel"`
	Goals            string `json:"goals"`
	TimeAvailable    string `json:"timeAvailable"`
	Equipment        string `json:"equipment"`
	FocusAreas       string `json:"focusAreas"`
	WorkoutFrequency string `json:"workoutFrequency"`
	HasEnoughInfo    bool   `json:"hasEnoughInfo"`
}

// Get returns the value of f.
func (in Intent) Get(f Field) string {
	switch f {
	case FieldLevel:
		return in.FitnessLevel
	case FieldGoals:
		return in.Goals
	case FieldTime:
		return in.TimeAvailable
	case FieldEquipment:
		return in.Equipment
	case FieldFocus:
		return in.FocusAreas
	case FieldFrequency:
		return in.WorkoutFrequency
	}
	return ""
}

func (in *Intent) set(f Field, v string) {
	switch f {
	case FieldLevel:
		in.FitnessLevel = v
	case FieldGoals:
		in.Goals = v
	case FieldTime:
		in.TimeAvailable = v
	case FieldEquipment:
		in.Equipment = v
	case FieldFocus:
		in.FocusAreas = v
	case FieldFrequency:
		in.WorkoutFrequency = v
	}
}

// rule maps any of its phrases to a value for one field. A fillOnly rule
// never overwrites a value the field already has.
type rule struct {
	field    Field
	value    string
	phrases  []string
	fillOnly bool
	re       *regexp.Regexp
}

// rules is evaluated top to bottom; within a field the first match wins.
var rules = compile([]rule{
	{field: FieldLevel, value: "beginner", phrases: []string{"beginner", "inexperienced", "new to", "just started", "just starting", "never worked out"}},
	{field: FieldLevel, value: "intermediate", phrases: []string{"intermediate", "some experience", "been working out for", "moderately active"}},
	{field: FieldLevel, value: "advanced", phrases: []string{"advanced", "experienced", "very fit", "athlete", "regular training"}},

	{field: FieldGoals, value: "weight loss", phrases: []string{"lose weight", "losing weight", "weight loss", "fat loss", "burn fat", "cut", "cutting", "get lean", "slim down"}},
	{field: FieldGoals, value: "muscle building", phrases: []string{"build muscle", "building muscle", "muscle gain", "gain muscle", "bulk", "bulking", "get bigger", "mass"}},
	{field: FieldGoals, value: "strength training", phrases: []string{"strength", "get stronger", "stronger", "powerlifting", "lift heavy"}},
	{field: FieldGoals, value: "cardio fitness", phrases: []string{"cardio", "endurance", "stamina", "conditioning"}},
	{field: FieldGoals, value: "general fitness", phrases: []string{"tone", "toned", "toning", "definition", "get in shape", "stay healthy", "general fitness"}},
	{field: FieldGoals, value: "general fitness", phrases: []string{"fitness", "workout", "exercise"}, fillOnly: true},

	{field: FieldTime, value: "30", phrases: []string{"half hour", "half an hour"}},
	{field: FieldTime, value: "20", phrases: []string{"quick workout", "short workout"}},
	{field: FieldTime, value: "60", phrases: []string{"long workout", "extended workout", "an hour", "one hour"}},

	{field: FieldEquipment, value: "bodyweight only", phrases: []string{"no equipment", "bodyweight", "body weight", "at home", "no gym", "home workout"}},
	{field: FieldEquipment, value: "full gym", phrases: []string{"gym", "full equipment", "everything available", "machines"}},
	{field: FieldEquipment, value: "dumbbells", phrases: []string{"dumbbell", "dumbbells", "free weights", "weights at home"}},
	{field: FieldEquipment, value: "resistance bands", phrases: []string{"resistance bands", "resistance band", "bands"}},

	{field: FieldFocus, value: "upper body", phrases: []string{"upper body", "arms", "chest", "shoulders"}},
	{field: FieldFocus, value: "lower body", phrases: []string{"lower body", "legs", "glutes"}},
	{field: FieldFocus, value: "core", phrases: []string{"core", "abs", "stomach"}},
	{field: FieldFocus, value: "full body", phrases: []string{"full body", "full-body", "everything", "overall"}},

	{field: FieldFrequency, value: "3", phrases: []string{"3 days", "three days", "3 times"}},
	{field: FieldFrequency, value: "4", phrases: []string{"4 days", "four days", "4 times"}},
	{field: FieldFrequency, value: "5", phrases: []string{"5 days", "five days", "5 times"}},
	{field: FieldFrequency, value: "6", phrases: []string{"6 days", "six days", "6 times"}},
	{field: FieldFrequency, value: "7", phrases: []string{"every day", "daily", "7 days"}},
	{field: FieldFrequency, value: "2", phrases: []string{"2 days", "two days", "twice"}},
})

// timePattern overrides keyword time matches when present.
var timePattern = regexp.MustCompile(`(\d+)\s*(minutes?|mins?|hours?|hrs?)\b`)

func compile(rs []rule) []rule {
	for i := range rs {
		quoted := make([]string, len(rs[i].phrases))
		for j, p := range rs[i].phrases {
			quoted[j] = regexp.QuoteMeta(p)
		}
		rs[i].re = regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
	}
	return rs
}

// Update returns cur with every field that message mentions filled in.
// Fields the message does not mention keep their previous value.
func Update(cur Intent, message string) Intent {
	next := cur
	lower := strings.ToLower(message)

	matched := make(map[Field]bool, len(Fields))
	for _, r := range rules {
		if matched[r.field] {
			continue
		}
		if r.fillOnly && next.Get(r.field) != "" {
			continue
		}
		if r.re.MatchString(lower) {
			next.set(r.field, r.value)
			matched[r.field] = true
		}
	}

	if m := timePattern.FindStringSubmatch(lower); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			if strings.HasPrefix(m[2], "h") {
				n *= 60
			}
			next.TimeAvailable = strconv.Itoa(n)
		}
	}

	next.HasEnoughInfo = next.enough()
	return next
}

// enough holds once a goal is known together with any of level, time or
// equipment, or once the level is known together with time or equipment.
func (in Intent) enough() bool {
	hasPractical := in.TimeAvailable != "" || in.Equipment != ""
	if in.Goals != "" && (in.FitnessLevel != "" || hasPractical) {
		return true
	}
	return in.FitnessLevel != "" && hasPractical
}

// Changed lists the fields whose values differ between prev and next.
func Changed(prev, next Intent) []Field {
	var out []Field
	for _, f := range Fields {
		if prev.Get(f) != next.Get(f) {
			out = append(out, f)
		}
	}
	return out
}

// Missing lists the empty fields in canonical order.
func (in Intent) Missing() []Field {
	var out []Field
	for _, f := range Fields {
		if in.Get(f) == "" {
			out = append(out, f)
		}
	}
	return out
}

// WithDefaults fills empty fields with the values used for generation when
// the user asks for a workout before everything is known.
func (in Intent) WithDefaults() Intent {
	out := in
	if out.FitnessLevel == "" {
		out.FitnessLevel = "beginner"
	}
	if out.Goals == "" {
		out.Goals = "general fitness"
	}
	if out.TimeAvailable == "" {
		out.TimeAvailable = "30"
	}
	if out.Equipment == "" {
		out.Equipment = "bodyweight only"
	}
	if out.FocusAreas == "" {
		out.FocusAreas = "full body"
	}
	if out.WorkoutFrequency == "" {
		out.WorkoutFrequency = "3"
	}
	out.HasEnoughInfo = out.enough()
	return out
}
