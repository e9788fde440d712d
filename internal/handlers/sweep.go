package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	vs "voltage_sweeper"
	"voltage_sweeper/internal/instrument"
	"voltage_sweeper/internal/repository"
	"voltage_sweeper/internal/service"
	"voltage_sweeper/internal/sweep"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK      = "ok"
	statusStarted = "started"
	statusStopped = "stopping"

	errStartSweep = "failed to start sweep"
	errGetStatus  = "failed to load status"
	errListRuns   = "failed to load runs"
	errGetSamples = "failed to load samples"
	errListPorts  = "failed to list serial ports"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// startSweepRequest is the operator-facing sweep description. The core fields
// are pointers with required binding so a missing key is rejected while an
// explicit zero is accepted.
type startSweepRequest struct {
	Ch1Voltage   *float64 `json:"ch1_voltage" binding:"required"`
	Ch2Voltage   *float64 `json:"ch2_voltage" binding:"required"`
	Ch3Voltage   *float64 `json:"ch3_voltage" binding:"required"`
	Channel      *int     `json:"channel" binding:"required"`
	StartVoltage *float64 `json:"start_voltage" binding:"required"`
	EndVoltage   *float64 `json:"end_voltage" binding:"required"`
	StepSize     *float64 `json:"step_size" binding:"required"`
	DwellSeconds float64  `json:"dwell_seconds"`
	PowerCycle   bool     `json:"power_cycle"`
	UARTControl  bool     `json:"uart_control"`
	OffSeconds   float64  `json:"off_seconds"`
	OnSeconds    float64  `json:"on_seconds"`
}

func (r startSweepRequest) settings() vs.SweepSettings {
	return vs.SweepSettings{
		Ch1Voltage:   *r.Ch1Voltage,
		Ch2Voltage:   *r.Ch2Voltage,
		Ch3Voltage:   *r.Ch3Voltage,
		Channel:      *r.Channel,
		StartVoltage: *r.StartVoltage,
		EndVoltage:   *r.EndVoltage,
		StepSize:     *r.StepSize,
		DwellSeconds: r.DwellSeconds,
		PowerCycle:   r.PowerCycle,
		UARTControl:  r.UARTControl,
		OffSeconds:   r.OffSeconds,
		OnSeconds:    r.OnSeconds,
	}
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Start a voltage sweep
// @Description  Launches the sweep worker. Only one sweep may run at a time.
// @Tags         sweep
// @Accept       json
// @Produce      json
// @Param        body  body   startSweepRequest  true  "Sweep settings"
// @Success      200   {object}  map[string]interface{}  "status, run_id"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/v1/sweep/start [post]
// @Security     BearerAuth
func (h *Handler) startSweep(c *gin.Context) {
	var req startSweepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: " + err.Error()})
		return
	}
	runID, err := h.services.Sweep.Start(c.Request.Context(), req.settings())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSweepRunning):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, sweep.ErrConfig):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logAndJSONError(c, http.StatusInternalServerError, errStartSweep, "sweep_start_failed", err)
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusStarted, "run_id": runID})
}

// @Summary      Stop the running sweep
// @Description  Sets the cancellation token; the worker de-energizes outputs and exits within its polling interval.
// @Tags         sweep
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/v1/sweep/stop [post]
// @Security     BearerAuth
func (h *Handler) stopSweep(c *gin.Context) {
	if err := h.services.Sweep.Stop(c.Request.Context()); err != nil {
		if errors.Is(err, service.ErrNoActiveSweep) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to stop sweep", "sweep_stop_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusStopped})
}

// @Summary      Live sweep status
// @Tags         sweep
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/sweep/status [get]
// @Security     BearerAuth
func (h *Handler) getStatus(c *gin.Context) {
	st, err := h.services.Monitoring.Status(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetStatus, "sweep_status_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      List sweep runs
// @Tags         sweep
// @Produce      json
// @Param        limit  query  int  false  "Max runs to return (default 50)"
// @Success      200  {object}  map[string]interface{}  "count, runs"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/sweep/runs [get]
// @Security     BearerAuth
func (h *Handler) listRuns(c *gin.Context) {
	limit := intQuery(c, "limit", 50)
	runs, err := h.services.Monitoring.Runs(c.Request.Context(), limit)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errListRuns, "sweep_runs_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(runs), "runs": runs})
}

// @Summary      Samples of one run
// @Tags         sweep
// @Produce      json
// @Param        id  path  string  true  "Run id"
// @Success      200  {object}  map[string]interface{}  "count, samples"
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/sweep/runs/{id}/samples [get]
// @Security     BearerAuth
func (h *Handler) getRunSamples(c *gin.Context) {
	runID := c.Param("id")
	samples, err := h.services.Monitoring.RunSamples(c.Request.Context(), runID)
	if err != nil {
		if errors.Is(err, repository.ErrRunNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errGetSamples, "sweep_samples_failed", err, "run_id", runID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(samples), "samples": samples})
}

// @Summary      List serial ports
// @Description  Enumerates serial ports for the configuration UI.
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "ports"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/ports [get]
// @Security     BearerAuth
func (h *Handler) listSerialPorts(c *gin.Context) {
	ports, err := instrument.ListPorts()
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errListPorts, "list_ports_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ports": ports})
}
