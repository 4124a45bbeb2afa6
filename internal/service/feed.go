package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"microblog/internal/model"
)

// ListFeed returns the viewer's own tweets and those of everyone they
// follow, most liked first, then newest first, then highest id first.
func (s *TweetService) ListFeed(ctx context.Context, viewerID int64) ([]model.RenderedTweet, error) {
	startTime := time.Now()

	entries, err := s.tweetRepo.ListFeed(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	tweets := make([]model.Tweet, len(entries))
	for i, e := range entries {
		tweets[i] = e.Tweet
	}

	rendered, err := s.render(ctx, tweets)
	if err != nil {
		return nil, err
	}

	s.log.Debug("feed assembled",
		zap.Int64("viewer_id", viewerID),
		zap.Int("tweets", len(rendered)),
		zap.Duration("took", time.Since(startTime)))
	return rendered, nil
}

// ListTweets lists tweets newest first, optionally restricted to one author.
// An unknown author yields model.ErrUserNotFound.
func (s *TweetService) ListTweets(ctx context.Context, authorID *int64) ([]model.RenderedTweet, error) {
	if authorID != nil {
		exists, err := s.userRepo.Exists(ctx, *authorID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, model.ErrUserNotFound
		}
	}

	tweets, err := s.tweetRepo.ListByAuthor(ctx, authorID)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, tweets)
}

// render resolves authors, attachments and likers with one batched query each.
func (s *TweetService) render(ctx context.Context, tweets []model.Tweet) ([]model.RenderedTweet, error) {
	out := make([]model.RenderedTweet, 0, len(tweets))
	if len(tweets) == 0 {
		return out, nil
	}

	tweetIDs := make([]int64, len(tweets))
	var authorIDs []int64
	seenAuthor := make(map[int64]bool)
	for i, t := range tweets {
		tweetIDs[i] = t.ID
		if !seenAuthor[t.AuthorID] {
			seenAuthor[t.AuthorID] = true
			authorIDs = append(authorIDs, t.AuthorID)
		}
	}

	authors, err := s.userRepo.GetSummaries(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	attachments, err := s.tweetRepo.GetAttachments(ctx, tweetIDs)
	if err != nil {
		return nil, err
	}
	likers, err := s.likeRepo.GetLikers(ctx, tweetIDs)
	if err != nil {
		return nil, err
	}

	for _, t := range tweets {
		rt := model.RenderedTweet{
			ID:          t.ID,
			Content:     t.Content,
			CreatedAt:   t.CreatedAt,
			Attachments: attachments[t.ID],
			Author:      authors[t.AuthorID],
			Likes:       likers[t.ID],
		}
		if rt.Attachments == nil {
			rt.Attachments = []string{}
		}
		if rt.Likes == nil {
			rt.Likes = []model.Liker{}
		}
		out = append(out, rt)
	}
	return out, nil
}
