// User HTTP handlers.
//
// This file exposes REST endpoints for user resources:
//   - POST   /users                        (create)
//   - GET    /users                        (list, populated, paginated)
//   - GET    /users/{id}                   (read, populated)
//   - PUT    /users/{id}                   (partial update)
//   - DELETE /users/{id}                   (delete + thought cascade)
//   - POST   /users/{id}/friends/{fid}     (add friend, symmetric)
//   - DELETE /users/{id}/friends/{fid}     (remove friend, symmetric)
//
// Handlers are transport-thin: they validate identifier well-formedness and
// payload shape, call application services, and translate results into HTTP
// responses. Identifier validation happens before any store access.
package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/services"
	"github.com/tbourn/go-social-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// UserService defines user lifecycle operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type UserService interface {
	// Create inserts a new user from a {username, email} pair.
	Create(ctx context.Context, username, email string) (*domain.User, error)
	// List returns a page of populated users and the total count.
	List(ctx context.Context, page, pageSize int) ([]domain.PopulatedUser, int64, error)
	// Get returns one populated user.
	Get(ctx context.Context, id primitive.ObjectID) (*domain.PopulatedUser, error)
	// Update applies a partial {username?, email?} update.
	Update(ctx context.Context, id primitive.ObjectID, upd services.UserUpdate) (*domain.User, error)
	// Delete removes the user and cascades thoughts by username.
	Delete(ctx context.Context, id primitive.ObjectID) (*domain.User, int64, error)
	// AddFriend / RemoveFriend run the symmetric friendship workflow.
	AddFriend(ctx context.Context, userID, friendID primitive.ObjectID) (*domain.User, *domain.User, error)
	RemoveFriend(ctx context.Context, userID, friendID primitive.ObjectID) (*domain.User, *domain.User, error)
}

// ThoughtService defines thought and reaction operations consumed by HTTP
// handlers.
type ThoughtService interface {
	Create(ctx context.Context, thoughtText, username string, userID primitive.ObjectID) (*domain.Thought, error)
	List(ctx context.Context, page, pageSize int) ([]domain.Thought, int64, error)
	Get(ctx context.Context, id primitive.ObjectID) (*domain.Thought, error)
	Update(ctx context.Context, id primitive.ObjectID, upd services.ThoughtUpdate) (*domain.Thought, error)
	Delete(ctx context.Context, id primitive.ObjectID) (*domain.Thought, error)
	AddReaction(ctx context.Context, id primitive.ObjectID, reactionBody, username string) (*domain.Thought, error)
	RemoveReaction(ctx context.Context, id, reactionID primitive.ObjectID) (*domain.Thought, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for users, thoughts, and reactions. It
// depends on abstract service interfaces to keep transport concerns separate
// from business logic.
type Handlers struct {
	userSvc    UserService
	thoughtSvc ThoughtService
}

// New constructs a Handlers instance bound to the given services.
func New(userSvc UserService, thoughtSvc ThoughtService) *Handlers {
	return &Handlers{userSvc: userSvc, thoughtSvc: thoughtSvc}
}

//
// DTOs
//

// CreateUserRequest is the JSON payload for creating a user.
type CreateUserRequest struct {
	Username string `json:"username" example:"bob"`
	Email    string `json:"email" example:"bob@example.com"`
}

// UpdateUserRequest is the JSON payload for partially updating a user.
// Absent fields are left untouched; at least one must be present.
type UpdateUserRequest struct {
	Username *string `json:"username,omitempty" example:"bobby"`
	Email    *string `json:"email,omitempty" example:"bobby@example.com"`
}

// FriendshipResponse carries both sides of a friend add/remove.
type FriendshipResponse struct {
	User   *domain.User `json:"user"`
	Friend *domain.User `json:"friend"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListUsersResponse wraps a page of populated users and pagination info.
type ListUsersResponse struct {
	Users      []domain.PopulatedUser `json:"users"`
	Pagination Pagination             `json:"pagination"`
}

//
// Helpers
//

// objectID parses the named path parameter as a Mongo ObjectID. On failure
// it writes a 400 response and returns ok=false; no store access happens for
// malformed identifiers.
func objectID(c *gin.Context, param string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(param))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest,
			fmt.Sprintf("%s must be a valid object id", param))
		return primitive.NilObjectID, false
	}
	return id, true
}

// clampPagination parses and bounds page and page_size query params.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// pageMeta computes pagination metadata for a page of total items.
func pageMeta(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

//
// Handlers
//

// CreateUser godoc
// @ID          createUser
// @Summary     Create a new user
// @Description Creates a user from a unique username/email pair.
// @Tags        Users
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CreateUserRequest  true  "Create user payload"
//
// @Success     201  {object}  domain.User
// @Failure     400  {object}  handlers.ErrorResponse  "Missing or malformed fields"
// @Failure     409  {object}  handlers.ErrorResponse  "Username or email taken"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users [post]
func (h *Handlers) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	u, err := h.userSvc.Create(c.Request.Context(), req.Username, req.Email)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusCreated, u)
}

// ListUsers godoc
// @ID          listUsers
// @Summary     List users (populated, paginated)
// @Description Returns a page of users with thoughts and friends resolved into full documents.
// @Tags        Users
// @Produce     json
//
// @Param       page       query  int  false  "Page number"      minimum(1) default(1)
// @Param       page_size  query  int  false  "Items per page"   minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListUsersResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users [get]
func (h *Handlers) ListUsers(c *gin.Context) {
	page, pageSize := clampPagination(c)

	users, total, err := h.userSvc.List(c.Request.Context(), page, pageSize)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, ListUsersResponse{
		Users:      users,
		Pagination: pageMeta(page, pageSize, total),
	})
}

// GetUser godoc
// @ID          getUser
// @Summary     Get a user by id
// @Description Returns one user with thoughts and friends resolved.
// @Tags        Users
// @Produce     json
//
// @Param       id  path  string  true  "User ID (ObjectID hex)"  example(64f1c0a2e8b9a4d3c2b1a099)
//
// @Success     200  {object}  domain.PopulatedUser
// @Failure     400  {object}  handlers.ErrorResponse  "Malformed id"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users/{id} [get]
func (h *Handlers) GetUser(c *gin.Context) {
	id, valid := objectID(c, "id")
	if !valid {
		return
	}

	u, err := h.userSvc.Get(c.Request.Context(), id)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// UpdateUser godoc
// @ID          updateUser
// @Summary     Update a user
// @Description Applies a partial username/email update with uniqueness re-validation.
// @Tags        Users
// @Accept      json
// @Produce     json
//
// @Param       id    path  string                       true  "User ID (ObjectID hex)"
// @Param       body  body  handlers.UpdateUserRequest   true  "Fields to update"
//
// @Success     200  {object}  domain.User
// @Failure     400  {object}  handlers.ErrorResponse  "Malformed id or payload"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Username or email taken"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users/{id} [put]
func (h *Handlers) UpdateUser(c *gin.Context) {
	id, valid := objectID(c, "id")
	if !valid {
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	u, err := h.userSvc.Update(c.Request.Context(), id, services.UserUpdate{
		Username: req.Username,
		Email:    req.Email,
	})
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// DeleteUser godoc
// @ID          deleteUser
// @Summary     Delete a user
// @Description Removes the user and deletes every thought authored under their username.
// @Tags        Users
// @Produce     json
//
// @Param       id  path  string  true  "User ID (ObjectID hex)"
//
// @Success     200  {object}  handlers.MessageResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Malformed id"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users/{id} [delete]
func (h *Handlers) DeleteUser(c *gin.Context) {
	id, valid := objectID(c, "id")
	if !valid {
		return
	}

	_, deleted, err := h.userSvc.Delete(c.Request.Context(), id)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("User and %d associated thoughts deleted successfully.", deleted),
	})
}

// AddFriend godoc
// @ID          addFriend
// @Summary     Add a friend
// @Description Adds each user to the other's friend set (idempotent, symmetric).
// @Tags        Users
// @Produce     json
//
// @Param       id        path  string  true  "User ID (ObjectID hex)"
// @Param       friendId  path  string  true  "Friend's user ID (ObjectID hex)"
//
// @Success     200  {object}  handlers.FriendshipResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Malformed id or self-friendship"
// @Failure     404  {object}  handlers.ErrorResponse  "User or friend not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users/{id}/friends/{friendId} [post]
func (h *Handlers) AddFriend(c *gin.Context) {
	id, valid := objectID(c, "id")
	if !valid {
		return
	}
	friendID, valid := objectID(c, "friendId")
	if !valid {
		return
	}

	user, friend, err := h.userSvc.AddFriend(c.Request.Context(), id, friendID)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, FriendshipResponse{User: user, Friend: friend})
}

// RemoveFriend godoc
// @ID          removeFriend
// @Summary     Remove a friend
// @Description Removes each user from the other's friend set; a non-existing friendship is a no-op.
// @Tags        Users
// @Produce     json
//
// @Param       id        path  string  true  "User ID (ObjectID hex)"
// @Param       friendId  path  string  true  "Friend's user ID (ObjectID hex)"
//
// @Success     200  {object}  handlers.FriendshipResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Malformed id or self-friendship"
// @Failure     404  {object}  handlers.ErrorResponse  "User or friend not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users/{id}/friends/{friendId} [delete]
func (h *Handlers) RemoveFriend(c *gin.Context) {
	id, valid := objectID(c, "id")
	if !valid {
		return
	}
	friendID, valid := objectID(c, "friendId")
	if !valid {
		return
	}

	user, friend, err := h.userSvc.RemoveFriend(c.Request.Context(), id, friendID)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, FriendshipResponse{User: user, Friend: friend})
}
