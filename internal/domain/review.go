package domain

import (
	"time"
)

// Field length limits for review content.
const (
	MaxTitleLength   = 200
	MaxCommentLength = 2000
	MaxReplyLength   = 1000
	MaxImages        = 5
)

// Review represents a store review submitted by a user. A user may review a
// given store at most once; the (UserID, StoreID) pair is unique.
type Review struct {
	ID                 string     `json:"id"`
	StoreID            string     `json:"store_id"`
	UserID             string     `json:"user_id"`
	Rating             int        `json:"rating"`
	Title              string     `json:"title,omitempty"`
	Comment            string     `json:"comment,omitempty"`
	Images             []string   `json:"images,omitempty"`
	HelpfulVotes       int        `json:"helpful_votes"`
	Reply              *Reply     `json:"reply,omitempty"`
	IsVerifiedPurchase bool       `json:"is_verified_purchase"`
	Status             Status     `json:"status"`
	IsApproved         bool       `json:"is_approved"`
	FlagReason         FlagReason `json:"flag_reason,omitempty"`
	Version            int        `json:"-"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Reply is a store owner's (or admin's) response to a review. A review holds
// at most one reply; replying again overwrites the previous one.
type Reply struct {
	Text      string    `json:"text"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}

// IsFlagged reports whether the review is currently flagged.
func (r *Review) IsFlagged() bool {
	return r.Status == StatusFlagged
}
