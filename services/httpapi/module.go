package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"

	"liveshop-creatorplane/pkg/config"
	"liveshop-creatorplane/pkg/errutil"
	"liveshop-creatorplane/services/creator"
	"liveshop-creatorplane/services/evaluation"
	"liveshop-creatorplane/services/payout"
	"liveshop-creatorplane/services/schedule"
	"liveshop-creatorplane/services/show"
)

// Module mounts the ops API onto the shared router. Transport stays thin: it
// binds JSON, calls the service, and maps domain errors to HTTP codes.
var Module = fx.Module("httpapi",
	fx.Invoke(registerRoutes),
)

type RouteParams struct {
	fx.In
	Router     *gin.Engine
	Config     *config.Config
	Creators   *creator.Service
	Schedules  *schedule.Service
	Shows      *show.Service
	Evaluators *evaluation.Service
	Payouts    *payout.Service
}

func registerRoutes(p RouteParams) {
	v1 := p.Router.Group("/v1")

	h := &handler{
		cfg:        p.Config,
		creators:   p.Creators,
		schedules:  p.Schedules,
		shows:      p.Shows,
		evaluators: p.Evaluators,
		payouts:    p.Payouts,
	}

	v1.POST("/creators", h.onboardCreator)
	v1.GET("/creators", h.listActiveCreators)
	v1.GET("/creators/:id", h.getCreator)
	v1.POST("/creators/:id/activate", h.activateCreator)
	v1.POST("/creators/:id/suspend", h.suspendCreator)
	v1.PUT("/creators/:id/availability", h.setAvailability)
	v1.POST("/creators/:id/evaluate-tier", h.evaluateTier)
	v1.POST("/creators/:id/evaluate-trust", h.evaluateTrust)
	v1.GET("/creators/:id/payouts", h.listPayouts)

	v1.POST("/schedules", h.createSchedule)
	v1.GET("/schedules/:id", h.getSchedule)
	v1.POST("/schedules/:id/cancel", h.cancelSchedule)
	v1.POST("/schedules/:id/start", h.startShow)
	v1.POST("/schedules/:id/no-show", h.markNoShow)
	v1.POST("/coverage/plan", h.planCoverage)

	v1.POST("/shows/:id/end", h.endShow)
	v1.PUT("/shows/:id/viewers", h.recordViewers)

	v1.POST("/payouts/calculate", h.calculatePayout)
	v1.POST("/payouts/run", h.runPayouts)
}

type handler struct {
	cfg        *config.Config
	creators   *creator.Service
	schedules  *schedule.Service
	shows      *show.Service
	evaluators *evaluation.Service
	payouts    *payout.Service
}

var httpStatus = map[errutil.CoreStatus]int{
	errutil.StatusBadRequest:          http.StatusBadRequest,
	errutil.StatusValidationFailed:    http.StatusBadRequest,
	errutil.StatusNotFound:            http.StatusNotFound,
	errutil.StatusConflict:            http.StatusConflict,
	errutil.StatusUnprocessableEntity: http.StatusUnprocessableEntity,
	errutil.StatusTimeout:             http.StatusGatewayTimeout,
}

func abortWithError(c *gin.Context, err error) {
	code, ok := httpStatus[errutil.StatusOf(err)]
	if !ok {
		code = http.StatusInternalServerError
	}

	var conflict *schedule.ConflictError
	if errors.As(err, &conflict) {
		c.JSON(code, gin.H{
			"error":     conflict.Error(),
			"conflicts": conflict.Conflicts,
		})
		return
	}

	c.JSON(code, gin.H{"error": err.Error()})
}

type onboardRequest struct {
	DisplayName  string                     `json:"display_name"`
	Timezone     string                     `json:"timezone"`
	Availability creator.WeeklyAvailability `json:"availability"`
}

func (h *handler) onboardCreator(c *gin.Context) {
	var req onboardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, errutil.BadRequest(err.Error()))
		return
	}

	created, err := h.creators.Onboard(c.Request.Context(), creator.OnboardParams{
		DisplayName:  req.DisplayName,
		Timezone:     req.Timezone,
		Availability: req.Availability,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *handler) listActiveCreators(c *gin.Context) {
	creators, err := h.creators.ListActive(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, creators)
}

func (h *handler) getCreator(c *gin.Context) {
	found, err := h.creators.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, found)
}

func (h *handler) activateCreator(c *gin.Context) {
	if err := h.creators.Activate(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) suspendCreator(c *gin.Context) {
	if err := h.creators.Suspend(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) setAvailability(c *gin.Context) {
	var availability creator.WeeklyAvailability
	if err := c.ShouldBindJSON(&availability); err != nil {
		abortWithError(c, errutil.BadRequest(err.Error()))
		return
	}

	if err := h.creators.SetAvailability(c.Request.Context(), c.Param("id"), availability); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) evaluateTier(c *gin.Context) {
	result, err := h.evaluators.EvaluateTier(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"monthly_revenue": result.MonthlyRevenue,
		"new_tier":        result.NewTier,
	})
}

func (h *handler) evaluateTrust(c *gin.Context) {
	score, err := h.evaluators.EvaluateTrust(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trust_score": score})
}

type createScheduleRequest struct {
	CreatorID     string              `json:"creator_id"`
	StartAt       time.Time           `json:"start_at"`
	EndAt         time.Time           `json:"end_at"`
	Title         string              `json:"title"`
	ProductIDs    []string            `json:"product_ids"`
	TargetRevenue decimal.Decimal     `json:"target_revenue"`
	Recurrence    schedule.Recurrence `json:"recurrence"`
}

func (h *handler) createSchedule(c *gin.Context) {
	var req createScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, errutil.BadRequest(err.Error()))
		return
	}

	created, err := h.schedules.Create(c.Request.Context(), schedule.CreateParams{
		CreatorID:     req.CreatorID,
		StartAt:       req.StartAt,
		EndAt:         req.EndAt,
		Title:         req.Title,
		ProductIDs:    req.ProductIDs,
		TargetRevenue: req.TargetRevenue,
		Recurrence:    req.Recurrence,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *handler) getSchedule(c *gin.Context) {
	found, err := h.schedules.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, found)
}

func (h *handler) cancelSchedule(c *gin.Context) {
	if err := h.schedules.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type planCoverageRequest struct {
	HorizonStart        time.Time     `json:"horizon_start"`
	HorizonEnd          time.Time     `json:"horizon_end"`
	BlockLength         time.Duration `json:"block_length"`
	MaxBlocksPerCreator int           `json:"max_blocks_per_creator"`
}

func (h *handler) planCoverage(c *gin.Context) {
	var req planCoverageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, errutil.BadRequest(err.Error()))
		return
	}

	blockLength := req.BlockLength
	if blockLength <= 0 {
		blockLength = h.cfg.Engine.BlockLength
	}

	plan, err := h.schedules.PlanCoverage(c.Request.Context(), schedule.PlanParams{
		HorizonStart:        req.HorizonStart,
		HorizonEnd:          req.HorizonEnd,
		BlockLength:         blockLength,
		MaxBlocksPerCreator: req.MaxBlocksPerCreator,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, plan)
}

func (h *handler) startShow(c *gin.Context) {
	started, err := h.shows.Start(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, started)
}

func (h *handler) markNoShow(c *gin.Context) {
	if err := h.shows.MarkNoShow(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) endShow(c *gin.Context) {
	ended, err := h.shows.End(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, ended)
}

type recordViewersRequest struct {
	CurrentViewers int `json:"current_viewers"`
}

func (h *handler) recordViewers(c *gin.Context) {
	var req recordViewersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, errutil.BadRequest(err.Error()))
		return
	}

	if err := h.shows.RecordViewers(c.Request.Context(), c.Param("id"), req.CurrentViewers); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type payoutPeriodRequest struct {
	CreatorID   string    `json:"creator_id"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
}

func (h *handler) calculatePayout(c *gin.Context) {
	var req payoutPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, errutil.BadRequest(err.Error()))
		return
	}

	calc, err := h.payouts.CalculateCreatorPayout(c.Request.Context(), req.CreatorID, req.PeriodStart, req.PeriodEnd)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, calc)
}

func (h *handler) runPayouts(c *gin.Context) {
	var req payoutPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, errutil.BadRequest(err.Error()))
		return
	}

	summary, err := h.payouts.ProcessAllCreatorPayouts(c.Request.Context(), req.PeriodStart, req.PeriodEnd)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *handler) listPayouts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	records, err := h.payouts.ListForCreator(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}
