package handler

import (
	"net/http"

	"go.uber.org/zap"

	"microblog/internal/httputil"
	"microblog/internal/service"
	"microblog/internal/transport/http/middleware"
)

type FollowHandler struct {
	followService *service.FollowService
	log           *zap.Logger
}

func NewFollowHandler(followService *service.FollowService, log *zap.Logger) *FollowHandler {
	return &FollowHandler{
		followService: followService,
		log:           log,
	}
}

// Follow handles POST /api/users/{id}/follow
func (h *FollowHandler) Follow(w http.ResponseWriter, r *http.Request) {
	followerID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "missing api-key header")
		return
	}

	followeeID, err := pathID(r, "id")
	if err != nil {
		httputil.WriteServiceError(w, r, h.log, err)
		return
	}

	if err := h.followService.Follow(r.Context(), followerID, followeeID); err != nil {
		httputil.WriteServiceError(w, r, h.log, err)
		return
	}

	httputil.WriteOK(w)
}

// Unfollow handles DELETE /api/users/{id}/follow
func (h *FollowHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	followerID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "missing api-key header")
		return
	}

	followeeID, err := pathID(r, "id")
	if err != nil {
		httputil.WriteServiceError(w, r, h.log, err)
		return
	}

	if err := h.followService.Unfollow(r.Context(), followerID, followeeID); err != nil {
		httputil.WriteServiceError(w, r, h.log, err)
		return
	}

	httputil.WriteOK(w)
}
