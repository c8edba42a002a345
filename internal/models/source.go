package models

import (
	"fmt"
	"strings"
)

// Platform describes how one source platform names its popularity and tag
// fields. Ingestion uses this table to normalize raw metadata onto the
// canonical Document fields, keeping platform-specific names out of the
// scoring path.
type Platform struct {
	ID              string
	PopularityField string
	TagField        string
	TagIsList       bool
}

// Registered platforms. The retriever also recognizes these popularity field
// names when scoring documents ingested before normalization.
var (
	PlatformReddit        = Platform{ID: "reddit", PopularityField: "upvotes", TagField: "subreddit", TagIsList: false}
	PlatformStackOverflow = Platform{ID: "stackoverflow", PopularityField: "vote_score", TagField: "tags", TagIsList: true}
	PlatformRedNote       = Platform{ID: "rednote", PopularityField: "likes", TagField: "tags", TagIsList: true}
)

var platforms = map[string]Platform{
	PlatformReddit.ID:        PlatformReddit,
	PlatformStackOverflow.ID: PlatformStackOverflow,
	PlatformRedNote.ID:       PlatformRedNote,
}

// LookupPlatform returns the platform descriptor for an id.
func LookupPlatform(id string) (Platform, error) {
	p, ok := platforms[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return Platform{}, fmt.Errorf("unknown platform: %s", id)
	}
	return p, nil
}

// PlatformIDs returns the ids of all registered platforms.
func PlatformIDs() []string {
	ids := make([]string, 0, len(platforms))
	for id := range platforms {
		ids = append(ids, id)
	}
	return ids
}

// PopularityFieldNames lists every recognized platform-native popularity
// field. Order matters only for logging.
func PopularityFieldNames() []string {
	return []string{"upvotes", "vote_score", "likes"}
}

// NormalizeMetadata extracts the canonical popularity value and tag list from
// raw source metadata according to the platform descriptor. Missing fields
// yield zero values, never errors.
func (p Platform) NormalizeMetadata(raw map[string]interface{}) (int64, []string) {
	var popularity int64
	if v, ok := raw[p.PopularityField]; ok {
		popularity = coerceInt64(v)
	}

	var tags []string
	if v, ok := raw[p.TagField]; ok {
		if p.TagIsList {
			tags = coerceStringList(v)
		} else if s := coerceString(v); s != "" {
			tags = []string{s}
		}
	}
	return popularity, tags
}

func coerceInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case float32:
		return int64(n)
	case float64:
		return int64(n)
	case string:
		var out int64
		if _, err := fmt.Sscanf(strings.TrimSpace(n), "%d", &out); err == nil {
			return out
		}
	}
	return 0
}

func coerceString(v interface{}) string {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func coerceStringList(v interface{}) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []interface{}:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if list == "" {
			return nil
		}
		return []string{list}
	}
	return nil
}
