// Package normalize maps raw platform records into the canonical
// persisted shape. It performs no I/O.
package normalize

import (
	"fmt"
	"strconv"
	"time"

	"github.com/voidworks/clipcrawl/internal/video"
)

const canonicalURLFormat = "https://www.douyin.com/video/%s"

// ItemIdentifier extracts the unique identifier from a raw item. It is
// the only field whose absence is an error; everything else degrades
// to a default.
func ItemIdentifier(raw video.RawItem) (string, error) {
	id := stringValue(raw["aweme_id"])
	if id == "" {
		return "", fmt.Errorf("extract item id: %w", video.ErrMissingRequiredField)
	}
	return id, nil
}

// Normalize builds a Record from one raw item. LastModifiedAt is
// stamped from now, never copied from upstream. Optional fields
// default to empty strings or zero because upstream schemas carry no
// contract.
func Normalize(raw video.RawItem, now time.Time) (video.Record, error) {
	id, err := ItemIdentifier(raw)
	if err != nil {
		return video.Record{}, err
	}

	author := mapValue(raw["author"])
	stats := mapValue(raw["statistics"])

	return video.Record{
		ID:             id,
		Kind:           stringValue(raw["aweme_type"]),
		Title:          stringValue(raw["desc"]),
		Description:    stringValue(raw["desc"]),
		CreatedAt:      intValue(raw["create_time"]),
		UserID:         stringValue(author["uid"]),
		AltUserID:      stringValue(author["sec_uid"]),
		ShortUserID:    stringValue(author["short_id"]),
		UniqueID:       stringValue(author["unique_id"]),
		Signature:      stringValue(author["signature"]),
		DisplayName:    stringValue(author["nickname"]),
		AvatarURL:      firstVariantURL(author["avatar_thumb"]),
		LikeCount:      stringValue(stats["digg_count"]),
		SaveCount:      stringValue(stats["collect_count"]),
		CommentCount:   stringValue(stats["comment_count"]),
		ShareCount:     stringValue(stats["share_count"]),
		Location:       stringValue(raw["ip_label"]),
		LastModifiedAt: now.UnixMilli(),
		CoverURL:       firstVariantURL(mapValue(raw["video"])["cover"]),
		CanonicalURL:   fmt.Sprintf(canonicalURLFormat, id),
	}, nil
}

// firstVariantURL picks the first element of an upstream url_list
// variant set. The first-element rule determines reproducibility of
// output and must not change.
func firstVariantURL(v any) string {
	variants, ok := mapValue(v)["url_list"].([]any)
	if !ok || len(variants) == 0 {
		return ""
	}
	return stringValue(variants[0])
}

func mapValue(v any) map[string]any {
	m, ok := v.(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return m
}

// stringValue renders scalar upstream values as strings. JSON numbers
// arrive as float64; counters must not pick up a decimal point.
func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

func intValue(v any) int64 {
	switch t := v.(type) {
	case float64:
		return int64(t)
	case int64:
		return t
	case int:
		return int64(t)
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}
