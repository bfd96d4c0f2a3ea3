package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"joker-service/internal/middleware"
	"joker-service/internal/service"
	"joker-service/internal/service/game"
	rulesSvc "joker-service/internal/service/rules"
	"joker-service/internal/ws"
	appErr "joker-service/pkg/errors"
	"joker-service/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Handler struct {
	services *service.Container
}

func RegisterRoutes(r *gin.Engine, services *service.Container) {
	handler := &Handler{services: services}
	wsHandler := ws.NewHandler(services.Game)

	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{"message": "pong"})
	})

	v1 := r.Group("/joker/v1")
	{
		tableGroup := v1.Group("/tables")
		tableGroup.Use(middleware.AuthRequired())
		{
			tableGroup.POST("", handler.CreateTable)
			tableGroup.GET("", handler.ListTables)
			tableGroup.GET("/:id", handler.GetTable)
			tableGroup.POST("/:id/actions", handler.TableAction)
		}
	}

	adminGroup := r.Group("/admin")
	{
		adminGroup.POST("/auth/login", handler.AdminLogin)

		protected := adminGroup.Group("/")
		protected.Use(middleware.AdminAuthRequired())
		{
			protected.GET("/tables", handler.AdminListTables)
			protected.GET("/tables/:id", handler.AdminGetTable)
			protected.DELETE("/tables/:id", handler.AdminAbandonTable)

			protected.GET("/games", handler.AdminListGames)
			protected.GET("/games/:tableId", handler.AdminGetGame)
			protected.GET("/reports/games", handler.AdminGamesReport)

			protected.GET("/rule_sets", handler.AdminListRuleSets)
			protected.POST("/rule_sets", handler.AdminCreateRuleSet)
			protected.PUT("/rule_sets/:id", handler.AdminUpdateRuleSet)
			protected.PUT("/rule_sets/:id/status", handler.AdminSetRuleSetStatus)
		}
	}

	r.GET("/ws/table/:tableId", wsHandler.HandleTableWS)
}

type createTableBody struct {
	RuleSetID int64           `json:"ruleSetId"`
	Seats     []game.SeatSpec `json:"seats" binding:"required"`
}

type tableActionBody struct {
	Type        string            `json:"type" binding:"required"`
	Amount      *int              `json:"amount"`
	Card        string            `json:"card"`
	JokerOption *game.JokerOption `json:"jokerOption"`
}

type adminLoginBody struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ruleSetStatusBody struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) CreateTable(c *gin.Context) {
	var body createTableBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	rules, err := h.services.Rules.Resolve(c.Request.Context(), body.RuleSetID)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, appErr.ErrRuleSetNotFound):
			status = http.StatusNotFound
		case errors.Is(err, appErr.ErrRuleSetDisabled):
			status = http.StatusConflict
		}
		response.Error(c, status, err.Error())
		return
	}

	state, err := h.services.Game.CreateTable(c.Request.Context(), body.Seats, rules)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, appErr.ErrInvalidSeatCount),
			errors.Is(err, appErr.ErrInvalidSchedule),
			errors.Is(err, appErr.ErrPlayerNotSeated),
			errors.Is(err, appErr.ErrInsufficientCards):
			status = http.StatusBadRequest
		}
		response.Error(c, status, err.Error())
		return
	}

	response.Success(c, state)
}

func (h *Handler) ListTables(c *gin.Context) {
	summaries := h.services.Game.ListTables(c.Request.Context())
	response.Success(c, gin.H{"tables": summaries})
}

func (h *Handler) GetTable(c *gin.Context) {
	playerID := c.GetString(middleware.ContextPlayerIDKey)
	snap, err := h.services.Game.Snapshot(c.Request.Context(), c.Param("id"), playerID, false)
	if err != nil {
		h.handleTableError(c, err)
		return
	}
	response.Success(c, snap)
}

func (h *Handler) TableAction(c *gin.Context) {
	playerID := c.GetString(middleware.ContextPlayerIDKey)

	var body tableActionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	action := game.Action{
		Type:        game.ActionType(body.Type),
		Amount:      body.Amount,
		Card:        body.Card,
		JokerOption: body.JokerOption,
	}
	snap, err := h.services.Game.Apply(c.Param("id"), playerID, action)
	if err != nil {
		h.handleTableError(c, err)
		return
	}
	response.Success(c, snap)
}

func (h *Handler) handleTableError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, appErr.ErrTableNotFound):
		status = http.StatusNotFound
	case errors.Is(err, appErr.ErrTableAccessDenied):
		status = http.StatusForbidden
	case errors.Is(err, appErr.ErrTableFinished):
		status = http.StatusConflict
	case errors.Is(err, appErr.ErrNotYourTurn),
		errors.Is(err, appErr.ErrInvalidActionForPhase),
		errors.Is(err, appErr.ErrInvalidBid),
		errors.Is(err, appErr.ErrForbiddenBid),
		errors.Is(err, appErr.ErrCardNotInHand),
		errors.Is(err, appErr.ErrMustFollowSuit),
		errors.Is(err, appErr.ErrInvalidJokerDeclaration),
		errors.Is(err, appErr.ErrUnknownAction):
		status = http.StatusUnprocessableEntity
	}
	response.Error(c, status, err.Error())
}

func (h *Handler) AdminLogin(c *gin.Context) {
	var body adminLoginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.services.Admin.Login(c.Request.Context(), body.Username, body.Password)
	if err != nil {
		status := http.StatusInternalServerError
		switch err {
		case appErr.ErrAdminNotFound, appErr.ErrInvalidAdminPassword:
			status = http.StatusUnauthorized
		case appErr.ErrAdminDisabled:
			status = http.StatusForbidden
		}
		response.Error(c, status, err.Error())
		return
	}

	response.Success(c, resp)
}

func (h *Handler) AdminListTables(c *gin.Context) {
	summaries := h.services.Game.ListTables(c.Request.Context())
	response.Success(c, gin.H{"tables": summaries})
}

// AdminGetTable is the god-mode view: every hand visible, including tables
// owned by other replicas via the registry snapshot.
func (h *Handler) AdminGetTable(c *gin.Context) {
	snap, err := h.services.Game.Snapshot(c.Request.Context(), c.Param("id"), "", true)
	if err != nil {
		h.handleTableError(c, err)
		return
	}
	response.Success(c, snap)
}

func (h *Handler) AdminAbandonTable(c *gin.Context) {
	if err := h.services.Game.Abandon(c.Request.Context(), c.Param("id")); err != nil {
		h.handleTableError(c, err)
		return
	}
	response.Success(c, gin.H{"abandoned": true})
}

func (h *Handler) AdminListGames(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	records, total, err := h.services.Archive.ListGames(c.Request.Context(), limit, offset)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, gin.H{"games": records, "total": total})
}

func (h *Handler) AdminGetGame(c *gin.Context) {
	record, logs, err := h.services.Archive.GetGame(c.Request.Context(), c.Param("tableId"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, appErr.ErrGameNotFound) {
			status = http.StatusNotFound
		}
		response.Error(c, status, err.Error())
		return
	}
	response.Success(c, gin.H{"game": record, "rounds": logs})
}

// AdminGamesReport lists games finished inside a [from, to) window, both
// bounds RFC 3339.
func (h *Handler) AdminGamesReport(c *gin.Context) {
	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid from timestamp")
		return
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid to timestamp")
		return
	}

	records, err := h.services.Archive.PlayedBetween(c.Request.Context(), from, to)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, gin.H{"games": records, "total": len(records)})
}

func (h *Handler) AdminListRuleSets(c *gin.Context) {
	sets, err := h.services.Rules.List(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, gin.H{"ruleSets": sets})
}

func (h *Handler) AdminCreateRuleSet(c *gin.Context) {
	var body rulesSvc.UpsertInput
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	rs, err := h.services.Rules.Create(c.Request.Context(), body)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, appErr.ErrInvalidSchedule):
			status = http.StatusBadRequest
		case errors.Is(err, gorm.ErrDuplicatedKey):
			status = http.StatusConflict
		}
		response.Error(c, status, err.Error())
		return
	}
	response.Success(c, gin.H{"id": rs.ID})
}

func (h *Handler) AdminUpdateRuleSet(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "invalid rule set id")
		return
	}

	var body rulesSvc.UpsertInput
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	rs, err := h.services.Rules.Update(c.Request.Context(), id, body)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, appErr.ErrRuleSetNotFound):
			status = http.StatusNotFound
		case errors.Is(err, appErr.ErrInvalidSchedule):
			status = http.StatusBadRequest
		}
		response.Error(c, status, err.Error())
		return
	}
	response.Success(c, rs)
}

func (h *Handler) AdminSetRuleSetStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "invalid rule set id")
		return
	}

	var body ruleSetStatusBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.services.Rules.SetStatus(c.Request.Context(), id, body.Status); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, appErr.ErrRuleSetNotFound) {
			status = http.StatusNotFound
		}
		response.Error(c, status, err.Error())
		return
	}
	response.Success(c, gin.H{"id": id, "status": body.Status})
}
