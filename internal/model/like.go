package model

import "time"

// Like records that a user liked a tweet. A (user, tweet) pair is unique.
type Like struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	TweetID   int64     `db:"tweet_id" json:"tweet_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Liker is the summary of a user who liked a tweet.
type Liker struct {
	UserID int64  `db:"user_id" json:"user_id"`
	Name   string `db:"username" json:"name"`
}

var ErrAlreadyLiked = NewError(KindAlreadyExists, "like already exists")
