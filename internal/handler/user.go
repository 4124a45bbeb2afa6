package handler

import (
	"net/http"

	"go.uber.org/zap"

	"microblog/internal/httputil"
	"microblog/internal/model"
	"microblog/internal/service"
	"microblog/internal/transport/http/middleware"
)

type UserHandler struct {
	userService  *service.UserService
	tweetService *service.TweetService
	log          *zap.Logger
}

func NewUserHandler(userService *service.UserService, tweetService *service.TweetService, log *zap.Logger) *UserHandler {
	return &UserHandler{
		userService:  userService,
		tweetService: tweetService,
		log:          log,
	}
}

// Me handles GET /api/users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "missing api-key header")
		return
	}
	h.writeProfile(w, r, user.ID)
}

// GetProfile handles GET /api/users/{id}
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		httputil.WriteServiceError(w, r, h.log, err)
		return
	}
	h.writeProfile(w, r, userID)
}

func (h *UserHandler) writeProfile(w http.ResponseWriter, r *http.Request, userID int64) {
	profile, err := h.userService.GetPublicProfile(r.Context(), userID)
	if err != nil {
		httputil.WriteServiceError(w, r, h.log, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.ProfileResponse{Result: true, User: profile})
}

// ListTweets handles GET /api/users/{id}/tweets
// Returns the user's tweets, newest first.
func (h *UserHandler) ListTweets(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		httputil.WriteServiceError(w, r, h.log, err)
		return
	}

	tweets, err := h.tweetService.ListTweets(r.Context(), &userID)
	if err != nil {
		httputil.WriteServiceError(w, r, h.log, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.TweetsResponse{Result: true, Tweets: tweets})
}
