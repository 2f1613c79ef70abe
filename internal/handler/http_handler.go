package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/rahul-charaki/chat-app-be/internal/auth"
	"github.com/rahul-charaki/chat-app-be/internal/cache"
	"github.com/rahul-charaki/chat-app-be/internal/domain"
	"github.com/rahul-charaki/chat-app-be/internal/presence"
	"github.com/rahul-charaki/chat-app-be/internal/repository"
	"github.com/rahul-charaki/chat-app-be/pkg/jwt"
	"github.com/rahul-charaki/chat-app-be/pkg/log"
	"github.com/rahul-charaki/chat-app-be/pkg/response"
	"github.com/rahul-charaki/chat-app-be/pkg/storage"
)

// HTTPHandler serves the REST surface: auth, history retrieval, user
// search, presence snapshots and file uploads. These are thin wrappers
// around the stores; the realtime core never depends on them.
type HTTPHandler struct {
	users     repository.UserRepository
	messages  repository.MessageRepository
	tokens    *jwt.Manager
	verifier  auth.Verifier
	directory *presence.Directory
	cache     cache.PresenceCache // optional
	files     storage.Storage
	urlTTL    time.Duration
}

// NewHTTPHandler creates the REST handler.
func NewHTTPHandler(
	users repository.UserRepository,
	messages repository.MessageRepository,
	tokens *jwt.Manager,
	verifier auth.Verifier,
	directory *presence.Directory,
	presenceCache cache.PresenceCache,
	files storage.Storage,
	urlTTL time.Duration,
) *HTTPHandler {
	return &HTTPHandler{
		users:     users,
		messages:  messages,
		tokens:    tokens,
		verifier:  verifier,
		directory: directory,
		cache:     presenceCache,
		files:     files,
		urlTTL:    urlTTL,
	}
}

// RegisterRoutes registers all REST routes.
func (h *HTTPHandler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", h.Register)
			authGroup.POST("/login", h.Login)
			authGroup.POST("/refresh", h.RefreshToken)
		}

		protected := api.Group("")
		protected.Use(RequireAuth(h.verifier))
		{
			protected.GET("/rooms/:room/messages", h.RoomMessages)
			protected.GET("/conversations/:user_id/messages", h.ConversationMessages)
			protected.GET("/users", h.SearchUsers)
			protected.GET("/users/:id/presence", h.UserPresence)
			protected.POST("/files", h.UploadFile)
		}
	}
}

// Register creates an account and returns a token pair.
func (h *HTTPHandler) Register(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		l.Error().Err(err).Msg("failed to hash password")
		response.InternalError(c, "failed to register user")
		return
	}

	user := &domain.User{
		Email:        req.Email,
		Username:     req.Username,
		DisplayName:  req.DisplayName,
		PasswordHash: string(hashed),
	}

	if err := h.users.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			response.Conflict(c, "email already exists")
		case errors.Is(err, repository.ErrUsernameExists):
			response.Conflict(c, "username already exists")
		default:
			l.Error().Err(err).Msg("failed to create user")
			response.InternalError(c, "failed to register user")
		}
		return
	}

	access, refresh, expiresAt, err := h.tokens.GenerateTokenPair(user.ID, user.Username)
	if err != nil {
		l.Error().Err(err).Str(log.FieldUserID, user.ID).Msg("failed to generate tokens")
		response.InternalError(c, "failed to register user")
		return
	}

	response.Created(c, &domain.AuthResponse{
		User:         user.ToResponse(),
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
	})
}

// Login verifies credentials and returns a token pair.
func (h *HTTPHandler) Login(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			response.Unauthorized(c, "invalid email or password")
			return
		}
		l.Error().Err(err).Msg("failed to look up user")
		response.InternalError(c, "failed to login")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		response.Unauthorized(c, "invalid email or password")
		return
	}

	access, refresh, expiresAt, err := h.tokens.GenerateTokenPair(user.ID, user.Username)
	if err != nil {
		l.Error().Err(err).Str(log.FieldUserID, user.ID).Msg("failed to generate tokens")
		response.InternalError(c, "failed to login")
		return
	}

	response.Success(c, &domain.AuthResponse{
		User:         user.ToResponse(),
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
	})
}

// RefreshToken exchanges a refresh token for a new pair.
func (h *HTTPHandler) RefreshToken(c *gin.Context) {
	var req domain.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	access, refresh, expiresAt, err := h.tokens.RefreshTokens(req.RefreshToken)
	if err != nil {
		response.Unauthorized(c, "invalid refresh token")
		return
	}

	response.Success(c, &domain.AuthResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
	})
}

// RoomMessages returns history for a public room, newest first.
func (h *HTTPHandler) RoomMessages(c *gin.Context) {
	room := c.Param("room")
	if room == "" || domain.IsPrivateKey(room) {
		response.BadRequest(c, "invalid room name")
		return
	}

	limit, before := listParams(c)
	messages, err := h.messages.ListByRoom(c.Request.Context(), room, limit, before)
	if err != nil {
		log.Ctx(c.Request.Context()).Error().Err(err).Str(log.FieldRoom, room).Msg("failed to list room history")
		response.InternalError(c, "failed to load history")
		return
	}

	response.Success(c, messages)
}

// ConversationMessages returns the caller's private history with another
// user. The conversation key is computed server-side from the caller's
// identity, so users can only read conversations they are part of.
func (h *HTTPHandler) ConversationMessages(c *gin.Context) {
	otherID := c.Param("user_id")
	caller := callerID(c)

	conversation := domain.ConversationKey(caller, otherID)
	limit, before := listParams(c)

	messages, err := h.messages.ListByConversation(c.Request.Context(), conversation, limit, before)
	if err != nil {
		log.Ctx(c.Request.Context()).Error().Err(err).Msg("failed to list conversation history")
		response.InternalError(c, "failed to load history")
		return
	}

	response.Success(c, messages)
}

// SearchUsers returns users matching the q substring.
func (h *HTTPHandler) SearchUsers(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.BadRequest(c, "missing query parameter q")
		return
	}

	limit, _ := listParams(c)
	users, err := h.users.Search(c.Request.Context(), q, limit)
	if err != nil {
		log.Ctx(c.Request.Context()).Error().Err(err).Msg("failed to search users")
		response.InternalError(c, "failed to search users")
		return
	}

	results := make([]*domain.UserResponse, 0, len(users))
	for i := range users {
		results = append(results, users[i].ToResponse())
	}
	response.Success(c, results)
}

// UserPresence returns a presence snapshot: the live directory first, then
// the redis mirror, then the user store's last known state.
func (h *HTTPHandler) UserPresence(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.Param("id")

	if entry, ok := h.directory.Snapshot(userID); ok {
		response.Success(c, entry)
		return
	}

	if h.cache != nil {
		if entry, err := h.cache.GetPresence(ctx, userID); err == nil {
			response.Success(c, entry)
			return
		}
	}

	user, err := h.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		response.InternalError(c, "failed to load presence")
		return
	}

	response.Success(c, presence.Entry{
		UserID:   user.ID,
		Online:   user.Online,
		LastSeen: user.LastSeen,
	})
}

// UploadFile stores a multipart upload and returns the attachment
// descriptor to embed in a message.
func (h *HTTPHandler) UploadFile(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "missing file")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.BadRequest(c, "unreadable file")
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	key := "uploads/" + uuid.New().String() + "-" + fileHeader.Filename

	if err := h.files.Write(ctx, key, file, fileHeader.Size, contentType); err != nil {
		l.Error().Err(err).Msg("failed to store upload")
		response.InternalError(c, "failed to store file")
		return
	}

	url, err := h.files.GetURL(ctx, key, h.urlTTL)
	if err != nil {
		l.Warn().Err(err).Msg("failed to build file URL")
	}

	response.Created(c, &domain.Attachment{
		Name:        fileHeader.Filename,
		Key:         key,
		URL:         url,
		ContentType: contentType,
		Size:        fileHeader.Size,
	})
}

func listParams(c *gin.Context) (int, time.Time) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	var before time.Time
	if raw := c.Query("before"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			before = t
		}
	}
	return limit, before
}
