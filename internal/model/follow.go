package model

import (
	"time"
)

// Follow is a directed edge: the follower receives the followee's tweets in their feed.
type Follow struct {
	ID         int64     `db:"id" json:"id"`
	FollowerID int64     `db:"follower_id" json:"follower_id"`
	FolloweeID int64     `db:"followee_id" json:"followee_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

var (
	ErrAlreadyFollowing = NewError(KindAlreadyExists, "subscription already exists")
	ErrCannotFollowSelf = NewError(KindForbidden, "cannot follow yourself")
)
