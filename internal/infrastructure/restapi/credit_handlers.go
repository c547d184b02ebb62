package restapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"credit_aggregator/internal/app/port"
	"credit_aggregator/internal/domain/entity"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is returned for every non-2xx answer.
type ErrorResponse struct {
	Error string `json:"error"`
}

// BatchRequest is the body of the batch endpoint.
type BatchRequest struct {
	Addresses []string `json:"addresses"`
}

// CreditHandler обрабатывает HTTP запросы кредитного скоринга.
type CreditHandler struct {
	creditService port.CreditService
	maxBatchSize  int
	logger        port.Logger
}

// NewCreditHandler создает новый экземпляр CreditHandler.
func NewCreditHandler(cs port.CreditService, maxBatchSize int, l port.Logger) *CreditHandler {
	return &CreditHandler{
		creditService: cs,
		maxBatchSize:  maxBatchSize,
		logger:        l,
	}
}

// HealthHandler reports liveness.
func (h *CreditHandler) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetCreditHandler returns the assessment for the :address path parameter.
func (h *CreditHandler) GetCreditHandler(c *gin.Context) {
	address := c.Param("address")
	assessment, err := h.creditService.Aggregate(c.Request.Context(), address)
	if err != nil {
		h.respondError(c, address, err)
		return
	}
	c.JSON(http.StatusOK, assessment)
}

// BatchCreditHandler assesses up to maxBatchSize addresses from the request body.
func (h *CreditHandler) BatchCreditHandler(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if len(req.Addresses) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "addresses must not be empty"})
		return
	}
	if h.maxBatchSize > 0 && len(req.Addresses) > h.maxBatchSize {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "too many addresses, maximum is " + strconv.Itoa(h.maxBatchSize)})
		return
	}

	result := h.creditService.AggregateBatch(c.Request.Context(), req.Addresses)
	c.JSON(http.StatusOK, result)
}

// SimulateHandler projects the score impact of ?action=&amount= for :address.
func (h *CreditHandler) SimulateHandler(c *gin.Context) {
	address := c.Param("address")
	action := entity.SimulationAction(strings.ToLower(strings.TrimSpace(c.Query("action"))))
	amount, err := strconv.ParseFloat(c.Query("amount"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "amount must be a number"})
		return
	}

	impact, err := h.creditService.Simulate(c.Request.Context(), address, action, amount)
	if err != nil {
		h.respondError(c, address, err)
		return
	}
	c.JSON(http.StatusOK, impact)
}

func (h *CreditHandler) respondError(c *gin.Context, address string, err error) {
	if errors.Is(err, entity.ErrInvalidAddress) || errors.Is(err, entity.ErrInvalidSimulation) {
		h.logger.Warn("Rejected credit request", "address", address, "path", c.FullPath(), "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	h.logger.Error("Credit request failed", "address", address, "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}
