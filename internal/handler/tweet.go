package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"microblog/internal/httputil"
	"microblog/internal/model"
	"microblog/internal/service"
	"microblog/internal/transport/http/middleware"
)

type TweetHandler struct {
	tweetService *service.TweetService
	validate     *validator.Validate
	log          *zap.Logger
}

func NewTweetHandler(tweetService *service.TweetService, log *zap.Logger) *TweetHandler {
	return &TweetHandler{
		tweetService: tweetService,
		validate:     newValidator(),
		log:          log,
	}
}

// Create handles POST /api/tweets
func (h *TweetHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "missing api-key header")
		return
	}

	var req model.CreateTweetRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		httputil.WriteServiceError(w, r, h.log, err)
		return
	}

	tweet, err := h.tweetService.Create(r.Context(), userID, req.TweetData, req.TweetMediaIDs)
	if err != nil {
		httputil.WriteServiceError(w, r, h.log, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.CreateTweetResponse{Result: true, TweetID: tweet.ID})
}

// Feed handles GET /api/tweets
// Returns the ranked feed of the authenticated user.
func (h *TweetHandler) Feed(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "missing api-key header")
		return
	}

	tweets, err := h.tweetService.ListFeed(r.Context(), userID)
	if err != nil {
		httputil.WriteServiceError(w, r, h.log, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.TweetsResponse{Result: true, Tweets: tweets})
}

// Delete handles DELETE /api/tweets/{id}
func (h *TweetHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.tweetService.Delete(r.Context(), userID, tweetID); err != nil {
		httputil.WriteServiceError(w, r, h.log, err)
		return
	}

	httputil.WriteOK(w)
}
