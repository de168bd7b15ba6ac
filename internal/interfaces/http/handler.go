package http

import (
	"errors"
	"io"
	"net/http"
	"orderchat/internal/entities"
	"orderchat/internal/infrastructure"
	"orderchat/internal/interfaces"
	"orderchat/internal/usecases"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type Handler struct {
	sessions *infrastructure.SessionManager
	catalog  interfaces.ProductCatalog
	auth     *usecases.AuthUsecase
	log      zerolog.Logger
}

func NewHandler(sessions *infrastructure.SessionManager, catalog interfaces.ProductCatalog, auth *usecases.AuthUsecase, log zerolog.Logger) *Handler {
	return &Handler{
		sessions: sessions,
		catalog:  catalog,
		auth:     auth,
		log:      log,
	}
}

type credentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type textRequest struct {
	Text string `json:"text"`
}

type sessionResponse struct {
	SessionID string               `json:"session_id"`
	State     usecases.WidgetState `json:"state"`
}

func SetupRoutes(r *gin.Engine, h *Handler, middleware *Middleware, log zerolog.Logger) {
	r.Use(RequestLogger(log))
	r.Use(SecurityHeaders())
	r.Use(RequestSizeLimiter(1 << 20))
	r.Use(middleware.CORSMiddleware())

	authGroup := r.Group("/api/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
	}

	api := r.Group("/api")
	api.Use(middleware.AuthRequired())
	api.Use(middleware.RateLimitPerOwner())
	{
		api.GET("/products", h.ListProducts)

		widget := api.Group("/widget/sessions")
		widget.POST("", h.CreateSession)
		widget.GET("/:id", h.GetSession)
		widget.PUT("/:id/input", h.SetInput)
		widget.POST("/:id/send", h.Send)
		widget.POST("/:id/quick-replies/:replyID", h.QuickReply)
		widget.POST("/:id/toggle", h.ToggleChat)
		widget.POST("/:id/fullscreen", h.ToggleFullscreen)
		widget.DELETE("/:id", h.CloseSession)
	}
}

// ========================================
// Auth
// ========================================

func (h *Handler) Register(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if !ValidUsername(req.Username) || !ValidPassword(req.Password) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid username or password (min 6 chars)"})
		return
	}

	user, err := h.auth.Register(c.Request.Context(), req.Username, req.Password)
	if errors.Is(err, usecases.ErrUsernameTaken) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("register failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Registration failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "registered", "user": user})
}

func (h *Handler) Login(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	token, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if errors.Is(err, usecases.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("login failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// ========================================
// Catalog
// ========================================

// ListProducts returns the catalog, filtered by name when ?q= is given
func (h *Handler) ListProducts(c *gin.Context) {
	var (
		products []entities.Product
		err      error
	)
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		products, err = h.catalog.SearchCatalog(c.Request.Context(), TruncateString(SanitizeString(q), MaxUsernameLength))
	} else {
		products, err = h.catalog.ListCatalog(c.Request.Context())
	}
	if err != nil {
		h.log.Error().Err(err).Msg("list catalog failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// ========================================
// Widget sessions
// ========================================

func (h *Handler) CreateSession(c *gin.Context) {
	session := h.sessions.Create(c.GetString(ctxOwnerID), nil)
	c.JSON(http.StatusCreated, sessionResponse{SessionID: session.ID, State: session.Widget.State()})
}

// session loads the caller's session or writes a 404
func (h *Handler) session(c *gin.Context) (*infrastructure.UserSession, bool) {
	session, err := h.sessions.Get(c.Param("id"), c.GetString(ctxOwnerID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return nil, false
	}
	return session, true
}

func (h *Handler) GetSession(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sessionResponse{SessionID: session.ID, State: session.Widget.State()})
}

func (h *Handler) SetInput(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	session.Widget.SetInput(CleanInput(req.Text))
	c.JSON(http.StatusOK, sessionResponse{SessionID: session.ID, State: session.Widget.State()})
}

// Send runs the current input. A JSON body with "text" replaces the input first.
func (h *Handler) Send(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var req textRequest
	switch err := c.ShouldBindJSON(&req); {
	case errors.Is(err, io.EOF):
		// no body, send the stored input
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	default:
		session.Widget.SetInput(CleanInput(req.Text))
	}

	err := session.Widget.HandleSend(c.Request.Context())
	h.respondAfterCommand(c, session, err)
}

func (h *Handler) QuickReply(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	id, err := strconv.Atoi(c.Param("replyID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quick reply id"})
		return
	}
	reply, found := session.Widget.QuickReply(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Quick reply not available"})
		return
	}

	err = session.Widget.HandleQuickReply(c.Request.Context(), reply)
	h.respondAfterCommand(c, session, err)
}

// respondAfterCommand returns the widget state. The widget has already shown
// the failure bubble when err is set.
func (h *Handler) respondAfterCommand(c *gin.Context, session *infrastructure.UserSession, err error) {
	if err != nil {
		h.log.Warn().Err(err).Str("session_id", session.ID).Msg("command failed")
		c.JSON(http.StatusBadGateway, gin.H{
			"error":      "Command failed",
			"session_id": session.ID,
			"state":      session.Widget.State(),
		})
		return
	}
	c.JSON(http.StatusOK, sessionResponse{SessionID: session.ID, State: session.Widget.State()})
}

func (h *Handler) ToggleChat(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	session.Widget.ToggleChat()
	c.JSON(http.StatusOK, sessionResponse{SessionID: session.ID, State: session.Widget.State()})
}

func (h *Handler) ToggleFullscreen(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	session.Widget.ToggleFullscreen()
	c.JSON(http.StatusOK, sessionResponse{SessionID: session.ID, State: session.Widget.State()})
}

func (h *Handler) CloseSession(c *gin.Context) {
	if err := h.sessions.Remove(c.Param("id"), c.GetString(ctxOwnerID)); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	c.Status(http.StatusNoContent)
}
