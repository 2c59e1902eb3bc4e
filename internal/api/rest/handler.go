package rest

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/eventfinder/ef-aggregator/internal/api/middleware"
	"github.com/eventfinder/ef-aggregator/internal/store"
	"github.com/eventfinder/ef-aggregator/internal/store/schema"
)

// defaultPageSize is the browse page size
const defaultPageSize = 20

// Handler defines the interface for REST API handlers
type Handler interface {
	// ListEvents retrieves events with optional filters
	// GET /api/v1/events?q=<query>&t=<tag>&cities=<city1>,<city2>&p=<page>
	ListEvents(c *gin.Context)

	// GetEvent retrieves a single event by its public id
	// GET /api/v1/events/:public_id
	GetEvent(c *gin.Context)

	// GetUserEvents retrieves a user's profile page
	// GET /api/v1/users/:username/events
	GetUserEvents(c *gin.Context)

	// Follow creates or toggles a follow edge from the caller to :username
	// POST /api/v1/users/:username/follow
	Follow(c *gin.Context)

	// Block creates or toggles a block edge from the caller to :username
	// POST /api/v1/users/:username/block
	Block(c *gin.Context)

	// ListFollowing lists the users the caller follows
	// GET /api/v1/social/following
	ListFollowing(c *gin.Context)

	// ListFollowers lists the users following the caller
	// GET /api/v1/social/followers
	ListFollowers(c *gin.Context)

	// ListBlocking lists the users the caller blocks
	// GET /api/v1/social/blocking
	ListBlocking(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	store store.Store
}

// NewHandler creates a new REST API handler
func NewHandler(st store.Store) Handler {
	return &handler{store: st}
}

// HealthCheck returns the health status of the API
func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListEvents retrieves events with optional filters
func (h *handler) ListEvents(c *gin.Context) {
	page := 1
	if raw := c.Query("p"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondBadRequest(c, "invalid page")
			return
		}
		page = parsed
	}

	var cities []string
	if raw := c.Query("cities"); raw != "" {
		for _, city := range strings.Split(raw, ",") {
			city = strings.TrimSpace(city)
			if city != "" {
				cities = append(cities, city)
			}
		}
	}

	events, total, err := h.store.ListEvents(c.Request.Context(), store.EventQueryFilter{
		Query:  c.Query("q"),
		Tag:    c.Query("t"),
		Cities: cities,
		Limit:  defaultPageSize,
		Offset: (page - 1) * defaultPageSize,
	})
	if err != nil {
		respondInternalError(c, err, "failed to list events")
		return
	}

	dtos := make([]EventDTO, 0, len(events))
	for i := range events {
		dtos = append(dtos, toEventDTO(&events[i], false))
	}

	c.JSON(http.StatusOK, EventListResponse{
		Events: dtos,
		Total:  total,
		Page:   page,
	})
}

// GetEvent retrieves a single event by its public id
func (h *handler) GetEvent(c *gin.Context) {
	publicID := c.Param("public_id")
	if publicID == "" {
		respondBadRequest(c, "event id is required")
		return
	}

	event, err := h.store.GetEventByPublicID(c.Request.Context(), publicID)
	if err != nil {
		respondInternalError(c, err, "failed to get event")
		return
	}
	if event == nil {
		respondNotFound(c, "event not found")
		return
	}

	c.JSON(http.StatusOK, toEventDTO(event, true))
}

// GetUserEvents retrieves a user's profile page. The event list is empty
// whenever either side of the caller/target pair blocks the other.
func (h *handler) GetUserEvents(c *gin.Context) {
	target, err := h.store.GetUserByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondInternalError(c, err, "failed to get user")
		return
	}
	if target == nil {
		respondNotFound(c, "user not found")
		return
	}

	visible := true
	if caller := middleware.AuthUsername(c); caller != "" && caller != target.Username {
		callerUser, err := h.store.GetUserByUsername(c.Request.Context(), caller)
		if err != nil {
			respondInternalError(c, err, "failed to get user")
			return
		}
		if callerUser != nil {
			blocked, err := h.store.Blocks(c.Request.Context(), callerUser.ID, target.ID)
			if err != nil {
				respondInternalError(c, err, "failed to check visibility")
				return
			}
			visible = !blocked
		}
	}

	events := []EventDTO{}
	if visible {
		stored, _, err := h.store.ListEvents(c.Request.Context(), store.EventQueryFilter{
			Query: c.Query("q"),
			Tag:   c.Query("t"),
			Limit: defaultPageSize,
		})
		if err != nil {
			respondInternalError(c, err, "failed to list events")
			return
		}
		for i := range stored {
			events = append(events, toEventDTO(&stored[i], false))
		}
	}

	c.JSON(http.StatusOK, UserEventsResponse{
		User:   toUserDTO(target),
		Events: events,
	})
}

// edgeRequest is the optional body of follow/block toggles
type edgeRequest struct {
	// Active defaults to true when the body is absent
	Active *bool `json:"active"`
}

// resolveEdgeUsers loads the authenticated caller and the target of a
// follow/block toggle. A nil pair means a response was already written.
func (h *handler) resolveEdgeUsers(c *gin.Context) (*schema.User, *schema.User) {
	caller, err := h.store.GetUserByUsername(c.Request.Context(), middleware.AuthUsername(c))
	if err != nil {
		respondInternalError(c, err, "failed to get user")
		return nil, nil
	}
	if caller == nil {
		respondNotFound(c, "user not found")
		return nil, nil
	}

	target, err := h.store.GetUserByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondInternalError(c, err, "failed to get user")
		return nil, nil
	}
	if target == nil {
		respondNotFound(c, "user not found")
		return nil, nil
	}

	if caller.ID == target.ID {
		respondBadRequest(c, "cannot target yourself")
		return nil, nil
	}

	return caller, target
}

func edgeActive(c *gin.Context) bool {
	var req edgeRequest
	if err := c.ShouldBindJSON(&req); err == nil && req.Active != nil {
		return *req.Active
	}
	return true
}

// Follow creates or toggles a follow edge from the caller to :username
func (h *handler) Follow(c *gin.Context) {
	caller, target := h.resolveEdgeUsers(c)
	if caller == nil {
		return
	}

	if err := h.store.SetFollow(c.Request.Context(), caller.ID, target.ID, edgeActive(c)); err != nil {
		respondInternalError(c, err, "failed to set follow")
		return
	}

	c.Status(http.StatusNoContent)
}

// Block creates or toggles a block edge from the caller to :username
func (h *handler) Block(c *gin.Context) {
	caller, target := h.resolveEdgeUsers(c)
	if caller == nil {
		return
	}

	if err := h.store.SetBlock(c.Request.Context(), caller.ID, target.ID, edgeActive(c)); err != nil {
		respondInternalError(c, err, "failed to set block")
		return
	}

	c.Status(http.StatusNoContent)
}

// listEdge is the shared body of the following/followers/blocking listings
func (h *handler) listEdge(c *gin.Context, list func(ctx *gin.Context, userID int64) ([]schema.User, error)) {
	caller, err := h.store.GetUserByUsername(c.Request.Context(), middleware.AuthUsername(c))
	if err != nil {
		respondInternalError(c, err, "failed to get user")
		return
	}
	if caller == nil {
		respondNotFound(c, "user not found")
		return
	}

	users, err := list(c, caller.ID)
	if err != nil {
		respondInternalError(c, err, "failed to list users")
		return
	}

	dtos := make([]UserDTO, 0, len(users))
	for i := range users {
		dtos = append(dtos, toUserDTO(&users[i]))
	}

	c.JSON(http.StatusOK, gin.H{"users": dtos})
}

// ListFollowing lists the users the caller follows
func (h *handler) ListFollowing(c *gin.Context) {
	h.listEdge(c, func(ctx *gin.Context, userID int64) ([]schema.User, error) {
		return h.store.ListFollowing(ctx.Request.Context(), userID)
	})
}

// ListFollowers lists the users following the caller
func (h *handler) ListFollowers(c *gin.Context) {
	h.listEdge(c, func(ctx *gin.Context, userID int64) ([]schema.User, error) {
		return h.store.ListFollowers(ctx.Request.Context(), userID)
	})
}

// ListBlocking lists the users the caller blocks
func (h *handler) ListBlocking(c *gin.Context) {
	h.listEdge(c, func(ctx *gin.Context, userID int64) ([]schema.User, error) {
		return h.store.ListBlocking(ctx.Request.Context(), userID)
	})
}
