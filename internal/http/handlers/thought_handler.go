// Thought HTTP handlers.
//
// This file exposes REST endpoints for thought resources and their embedded
// reactions:
//   - POST   /thoughts                                  (create + author back-reference)
//   - GET    /thoughts                                  (list, paginated)
//   - GET    /thoughts/{id}                             (read)
//   - PUT    /thoughts/{id}                             (partial update)
//   - DELETE /thoughts/{id}                             (delete)
//   - POST   /thoughts/{id}/reactions                   (add reaction)
//   - DELETE /thoughts/{id}/reactions/{reactionId}      (remove reaction)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/services"
)

//
// DTOs
//

// CreateThoughtRequest is the JSON payload for creating a thought. The
// username is stored as a denormalized snapshot; userId locates the author
// document whose thoughts array receives the new id.
type CreateThoughtRequest struct {
	ThoughtText string `json:"thoughtText" example:"here's a cool thought..."`
	Username    string `json:"username" example:"bob"`
	UserID      string `json:"userId" example:"64f1c0a2e8b9a4d3c2b1a099"`
}

// UpdateThoughtRequest is the JSON payload for partially updating a thought.
type UpdateThoughtRequest struct {
	ThoughtText *string `json:"thoughtText,omitempty"`
	Username    *string `json:"username,omitempty"`
}

// AddReactionRequest is the JSON payload for reacting to a thought.
type AddReactionRequest struct {
	ReactionBody string `json:"reactionBody" example:"lol"`
	Username     string `json:"username" example:"sue"`
}

// ListThoughtsResponse wraps a page of thoughts and pagination info.
type ListThoughtsResponse struct {
	Thoughts   []domain.Thought `json:"thoughts"`
	Pagination Pagination       `json:"pagination"`
}

//
// Handlers
//

// CreateThought godoc
// @ID          createThought
// @Summary     Create a new thought
// @Description Creates a thought and appends its id to the authoring user's thoughts array.
// @Tags        Thoughts
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CreateThoughtRequest  true  "Create thought payload"
//
// @Success     201  {object}  domain.Thought
// @Failure     400  {object}  handlers.ErrorResponse  "Missing or malformed fields"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /thoughts [post]
func (h *Handlers) CreateThought(c *gin.Context) {
	var req CreateThoughtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	userID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "userId must be a valid object id")
		return
	}

	t, err := h.thoughtSvc.Create(c.Request.Context(), req.ThoughtText, req.Username, userID)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusCreated, t)
}

// ListThoughts godoc
// @ID          listThoughts
// @Summary     List thoughts (paginated)
// @Tags        Thoughts
// @Produce     json
//
// @Param       page       query  int  false  "Page number"     minimum(1) default(1)
// @Param       page_size  query  int  false  "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListThoughtsResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /thoughts [get]
func (h *Handlers) ListThoughts(c *gin.Context) {
	page, pageSize := clampPagination(c)

	thoughts, total, err := h.thoughtSvc.List(c.Request.Context(), page, pageSize)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, ListThoughtsResponse{
		Thoughts:   thoughts,
		Pagination: pageMeta(page, pageSize, total),
	})
}

// GetThought godoc
// @ID          getThought
// @Summary     Get a thought by id
// @Tags        Thoughts
// @Produce     json
//
// @Param       id  path  string  true  "Thought ID (ObjectID hex)"
//
// @Success     200  {object}  domain.Thought
// @Failure     400  {object}  handlers.ErrorResponse  "Malformed id"
// @Failure     404  {object}  handlers.ErrorResponse  "Thought not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /thoughts/{id} [get]
func (h *Handlers) GetThought(c *gin.Context) {
	id, valid := objectID(c, "id")
	if !valid {
		return
	}

	t, err := h.thoughtSvc.Get(c.Request.Context(), id)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, t)
}

// UpdateThought godoc
// @ID          updateThought
// @Summary     Update a thought
// @Description Applies a partial thoughtText/username update with constraint re-validation.
// @Tags        Thoughts
// @Accept      json
// @Produce     json
//
// @Param       id    path  string                          true  "Thought ID (ObjectID hex)"
// @Param       body  body  handlers.UpdateThoughtRequest   true  "Fields to update"
//
// @Success     200  {object}  domain.Thought
// @Failure     400  {object}  handlers.ErrorResponse  "Malformed id or payload"
// @Failure     404  {object}  handlers.ErrorResponse  "Thought not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /thoughts/{id} [put]
func (h *Handlers) UpdateThought(c *gin.Context) {
	id, valid := objectID(c, "id")
	if !valid {
		return
	}

	var req UpdateThoughtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	t, err := h.thoughtSvc.Update(c.Request.Context(), id, services.ThoughtUpdate{
		ThoughtText: req.ThoughtText,
		Username:    req.Username,
	})
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, t)
}

// DeleteThought godoc
// @ID          deleteThought
// @Summary     Delete a thought
// @Tags        Thoughts
// @Produce     json
//
// @Param       id  path  string  true  "Thought ID (ObjectID hex)"
//
// @Success     200  {object}  handlers.MessageResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Malformed id"
// @Failure     404  {object}  handlers.ErrorResponse  "Thought not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /thoughts/{id} [delete]
func (h *Handlers) DeleteThought(c *gin.Context) {
	id, valid := objectID(c, "id")
	if !valid {
		return
	}

	if _, err := h.thoughtSvc.Delete(c.Request.Context(), id); err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, MessageResponse{Message: "Thought deleted successfully."})
}

// AddReaction godoc
// @ID          addReaction
// @Summary     React to a thought
// @Description Appends a reaction with a generated id and server-assigned timestamp.
// @Tags        Reactions
// @Accept      json
// @Produce     json
//
// @Param       id    path  string                       true  "Thought ID (ObjectID hex)"
// @Param       body  body  handlers.AddReactionRequest  true  "Reaction payload"
//
// @Success     200  {object}  domain.Thought
// @Failure     400  {object}  handlers.ErrorResponse  "Missing or malformed fields"
// @Failure     404  {object}  handlers.ErrorResponse  "Thought not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /thoughts/{id}/reactions [post]
func (h *Handlers) AddReaction(c *gin.Context) {
	id, valid := objectID(c, "id")
	if !valid {
		return
	}

	var req AddReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	t, err := h.thoughtSvc.AddReaction(c.Request.Context(), id, req.ReactionBody, req.Username)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, t)
}

// RemoveReaction godoc
// @ID          removeReaction
// @Summary     Remove a reaction
// @Description Pulls the embedded reaction by id; an absent reaction id is a no-op success.
// @Tags        Reactions
// @Produce     json
//
// @Param       id          path  string  true  "Thought ID (ObjectID hex)"
// @Param       reactionId  path  string  true  "Reaction ID (ObjectID hex)"
//
// @Success     200  {object}  domain.Thought
// @Failure     400  {object}  handlers.ErrorResponse  "Malformed id"
// @Failure     404  {object}  handlers.ErrorResponse  "Thought not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /thoughts/{id}/reactions/{reactionId} [delete]
func (h *Handlers) RemoveReaction(c *gin.Context) {
	id, valid := objectID(c, "id")
	if !valid {
		return
	}
	reactionID, valid := objectID(c, "reactionId")
	if !valid {
		return
	}

	t, err := h.thoughtSvc.RemoveReaction(c.Request.Context(), id, reactionID)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, t)
}
