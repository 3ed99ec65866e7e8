// Package video defines core types shared across subsystems.
package video

import (
	"fmt"
	"net/url"
	"time"
)

// ItemID identifies one remote content item. It is opaque and
// caller-supplied; no format validation is performed.
type ItemID string

// RawItem is the unprocessed response returned by the session client
// for one item. Its shape is owned by the remote platform and it is
// never persisted directly.
type RawItem map[string]any

// Record is the canonical normalized entity persisted by a sink.
// Interaction counters are kept as strings because the platform does
// not bound their integer format.
type Record struct {
	ID             string `json:"aweme_id"`
	Kind           string `json:"aweme_type"`
	Title          string `json:"title"`
	Description    string `json:"desc"`
	CreatedAt      int64  `json:"create_time"`
	UserID         string `json:"user_id"`
	AltUserID      string `json:"sec_uid"`
	ShortUserID    string `json:"short_user_id"`
	UniqueID       string `json:"user_unique_id"`
	Signature      string `json:"user_signature"`
	DisplayName    string `json:"nickname"`
	AvatarURL      string `json:"avatar"`
	LikeCount      string `json:"liked_count"`
	SaveCount      string `json:"collected_count"`
	CommentCount   string `json:"comment_count"`
	ShareCount     string `json:"share_count"`
	Location       string `json:"ip_location"`
	LastModifiedAt int64  `json:"last_modify_ts"`
	CoverURL       string `json:"cover"`
	CanonicalURL   string `json:"aweme_url"`
}

// OutcomeStatus classifies the result of fetching one item.
type OutcomeStatus string

// Outcome status values produced by the fetch orchestrator.
const (
	OutcomeFetched  OutcomeStatus = "fetched"
	OutcomeFailed   OutcomeStatus = "failed"
	OutcomeNotFound OutcomeStatus = "not_found"
)

// FetchOutcome is produced exactly once per requested item.
// Raw is populated only when Status is OutcomeFetched; Err only when
// Status is OutcomeFailed.
type FetchOutcome struct {
	ID     ItemID
	Status OutcomeStatus
	Raw    RawItem
	Err    error
}

// ProxyIdentity is one egress credential set issued by the proxy pool.
// It is immutable once issued.
type ProxyIdentity struct {
	Protocol string
	Host     string
	Port     int
	User     string
	Password string
}

// URL renders the identity as a proxy URL with embedded credentials.
func (p ProxyIdentity) URL() string {
	u := url.URL{
		Scheme: p.Protocol,
		Host:   fmt.Sprintf("%s:%d", p.Host, p.Port),
	}
	if p.User != "" {
		u.User = url.UserPassword(p.User, p.Password)
	}
	return u.String()
}

// LoginMode selects how the session client authenticates.
type LoginMode string

// Supported login modes.
const (
	LoginQRCode LoginMode = "qrcode"
	LoginPhone  LoginMode = "phone"
	LoginCookie LoginMode = "cookie"
)

// Session carries the authenticated transport context handed out by
// the session client.
type Session struct {
	Cookies   map[string]string
	UserAgent string
	IssuedAt  time.Time
}

// CookieHeader renders the session cookies in Cookie header form.
func (s Session) CookieHeader() string {
	out := ""
	for name, value := range s.Cookies {
		if out != "" {
			out += "; "
		}
		out += name + "=" + value
	}
	return out
}

// RunSummary reports the outcome counts of one pipeline pass.
type RunSummary struct {
	RunID    string `json:"run_id"`
	Total    int    `json:"total"`
	Stored   int    `json:"stored"`
	Skipped  int    `json:"skipped"`
	Duration int64  `json:"duration_ms"`
}
