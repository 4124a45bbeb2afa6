package handler

import (
	"context"
	"net/http"

	"microblog/internal/httputil"
	"microblog/internal/transport/http/middleware"
)

// Like handles POST /api/tweets/{id}/likes
func (h *TweetHandler) Like(w http.ResponseWriter, r *http.Request) {
	h.likeAction(w, r, h.tweetService.Like)
}

// Unlike handles DELETE /api/tweets/{id}/likes
func (h *TweetHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	h.likeAction(w, r, h.tweetService.Unlike)
}

func (h *TweetHandler) likeAction(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, userID, tweetID int64) error) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "missing api-key header")
		return
	}

	tweetID, err := pathID(r, "id")
	if err != nil {
		httputil.WriteServiceError(w, r, h.log, err)
		return
	}

	if err := action(r.Context(), userID, tweetID); err != nil {
		httputil.WriteServiceError(w, r, h.log, err)
		return
	}

	httputil.WriteOK(w)
}
