package model

import (
	"time"
)

// Tweet represents a stored tweet row.
type Tweet struct {
	ID        int64     `db:"id" json:"id"`
	AuthorID  int64     `db:"author_id" json:"author_id"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// FeedEntry is a tweet together with its like count, as ranked by the feed query.
type FeedEntry struct {
	Tweet
	LikeCount int64 `db:"like_count"`
}

// RenderedTweet is the response projection of a tweet with its author,
// attachment paths and likers resolved.
type RenderedTweet struct {
	ID          int64       `json:"id"`
	Content     string      `json:"content"`
	CreatedAt   time.Time   `json:"created_at"`
	Attachments []string    `json:"attachments"`
	Author      UserSummary `json:"author"`
	Likes       []Liker     `json:"likes"`
}

// CreateTweetRequest is the request body for POST /api/tweets.
type CreateTweetRequest struct {
	TweetData     string  `json:"tweet_data" validate:"required"`
	TweetMediaIDs []int64 `json:"tweet_media_ids" validate:"omitempty,dive,gt=0"`
}

// CreateTweetResponse is returned after a tweet is created.
type CreateTweetResponse struct {
	Result  bool  `json:"result"`
	TweetID int64 `json:"tweet_id"`
}

// TweetsResponse wraps a tweet list in the success envelope.
type TweetsResponse struct {
	Result bool            `json:"result"`
	Tweets []RenderedTweet `json:"tweets"`
}

// Tweet constraints
const (
	MaxTweetLength = 280
)

// Tweet errors
var (
	ErrTweetNotFound  = NewError(KindNotFound, "tweet not found")
	ErrNotTweetAuthor = NewError(KindForbidden, "cannot delete another user's tweet")
	ErrContentEmpty   = Validation("tweet content cannot be empty")
	ErrContentTooLong = Validation("tweet content must be at most 280 characters")
	ErrTooManyMedia   = Validation("too many media attachments")
)
