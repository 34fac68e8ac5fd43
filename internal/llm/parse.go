package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	fencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

	errNoJSON = errors.New("response is not a JSON object")
)

// BulletImprovement is one suggested rewrite of a resume bullet.
type BulletImprovement struct {
	Original string `json:"original"`
	Improved string `json:"improved"`
	Reason   string `json:"reason"`
}

type ATSResult struct {
	ATSScore           int                 `json:"ats_score"`
	MissingSkills      []string            `json:"missing_skills"`
	WeakSections       []string            `json:"weak_sections"`
	BulletImprovements []BulletImprovement `json:"bullet_improvements"`
}

type MatchResult struct {
	MatchPercentage  int      `json:"match_percentage"`
	MissingSkills    []string `json:"missing_skills"`
	SuggestedChanges []string `json:"suggested_changes"`
}

type RewriteResult struct {
	BulletImprovements []BulletImprovement `json:"bullet_improvements"`
	OverallFeedback    string              `json:"overall_feedback"`
}

// ExtractJSON returns the JSON object in raw, unwrapping a markdown fence if present.
func ExtractJSON(raw string) ([]byte, error) {
	content := strings.TrimSpace(raw)
	if strings.HasPrefix(content, "```") {
		if m := fencePattern.FindStringSubmatch(content); m != nil {
			content = m[1]
		}
	}
	b := []byte(strings.TrimSpace(content))
	if len(b) == 0 || b[0] != '{' || !json.Valid(b) {
		return nil, errNoJSON
	}
	return b, nil
}

func decodeObject(raw string) (map[string]json.RawMessage, error) {
	b, err := ExtractJSON(raw)
	if err != nil {
		return nil, err
	}
	var obj map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// ParseATS recovers and normalizes an ATS reply.
func ParseATS(raw string) (ATSResult, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return ATSResult{}, err
	}
	return ATSResult{
		ATSScore:           score(obj["ats_score"]),
		MissingSkills:      stringList(obj["missing_skills"]),
		WeakSections:       stringList(obj["weak_sections"]),
		BulletImprovements: bulletList(obj["bullet_improvements"]),
	}, nil
}

// ParseMatch recovers and normalizes a job-description match reply.
func ParseMatch(raw string) (MatchResult, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return MatchResult{}, err
	}
	return MatchResult{
		MatchPercentage:  score(obj["match_percentage"]),
		MissingSkills:    stringList(obj["missing_skills"]),
		SuggestedChanges: stringList(obj["suggested_changes"]),
	}, nil
}

// ParseRewrite recovers and normalizes a rewrite reply.
func ParseRewrite(raw string) (RewriteResult, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return RewriteResult{}, err
	}
	var feedback string
	if v, ok := obj["overall_feedback"]; ok {
		_ = json.Unmarshal(v, &feedback)
	}
	return RewriteResult{
		BulletImprovements: bulletList(obj["bullet_improvements"]),
		OverallFeedback:    strings.TrimSpace(feedback),
	}, nil
}

// score reads a number or numeric string, rounds it and clamps it to [0,100].
func score(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return 0
	}
	var f float64
	switch t := v.(type) {
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(t), "%"), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) {
		return 0
	}
	return int(math.Round(math.Max(0, math.Min(100, f))))
}

func stringList(raw json.RawMessage) []string {
	out := []string{}
	var items []any
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		return out
	}
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func bulletList(raw json.RawMessage) []BulletImprovement {
	out := []BulletImprovement{}
	var items []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		return out
	}
	for _, item := range items {
		var fields map[string]any
		if json.Unmarshal(item, &fields) != nil {
			continue
		}
		b := BulletImprovement{
			Original: stringField(fields, "original"),
			Improved: stringField(fields, "improved"),
			Reason:   stringField(fields, "reason"),
		}
		if b.Improved == "" {
			continue
		}
		out = append(out, b)
	}
	return out
}

func stringField(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return strings.TrimSpace(s)
}
