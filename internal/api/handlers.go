package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LogicPi-cn/lgp-iot-db/pkg/humiture"
)

const (
	queryTimeout = 10 * time.Second
	// defaultWindow is the device range served when from/to are omitted.
	defaultWindow = 30 * time.Minute
)

// handleGroupReadings returns the newest readings of a group
// GET /v1/groups/:group/readings?limit=
func (s *Server) handleGroupReadings(c *gin.Context) {
	group, err := strconv.ParseUint(c.Param("group"), 0, 8)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group"})
		return
	}
	limit, ok := limitParam(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	readings, err := s.store.ReadingsByGroup(ctx, uint8(group), limit)
	s.respondReadings(c, readings, err)
}

// handleSerialReadings returns the newest readings of one reporting unit
// GET /v1/serials/:sn/readings?limit=
func (s *Server) handleSerialReadings(c *gin.Context) {
	sn, err := strconv.ParseUint(c.Param("sn"), 0, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sn"})
		return
	}
	limit, ok := limitParam(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	readings, err := s.store.ReadingsBySerial(ctx, uint32(sn), limit)
	s.respondReadings(c, readings, err)
}

// handleDeviceReadings returns one device's readings in a time range
// GET /v1/devices/:id/readings?from=&to=
func (s *Server) handleDeviceReadings(c *gin.Context) {
	id, err := parseDeviceID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid device id"})
		return
	}

	to := time.Now()
	if v := c.Query("to"); v != "" {
		if to, err = time.Parse(time.RFC3339, v); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to parameter"})
			return
		}
	}
	from := to.Add(-defaultWindow)
	if v := c.Query("from"); v != "" {
		if from, err = time.Parse(time.RFC3339, v); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from parameter"})
			return
		}
	}
	if from.After(to) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must not be after to"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	readings, err := s.store.ReadingsByDevice(ctx, id, from, to)
	s.respondReadings(c, readings, err)
}

// handleAccelSamples returns the newest accelerometer samples of a device
// GET /v1/accel/:id/samples?limit=
func (s *Server) handleAccelSamples(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid device id"})
		return
	}
	limit, ok := limitParam(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	samples, err := s.store.AccelByDevice(ctx, int32(id), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": samples,
		"meta": gin.H{"count": len(samples)},
	})
}

type postFrameRequest struct {
	Hex     string `json:"hex" binding:"required"`
	Samples int    `json:"samples"`
}

// handlePostFrame analyzes a hex frame and stores its kept readings
// POST /v1/frames
func (s *Server) handlePostFrame(c *gin.Context) {
	var req postFrameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Samples < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "samples must not be negative"})
		return
	}

	opts := s.opts.Analyze
	opts.Samples = req.Samples
	result, err := humiture.AnalyzeHexWithOptions(req.Hex, opts)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if len(result.Readings) > 0 {
		ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
		defer cancel()
		if err := s.store.Write(ctx, result.Readings); err != nil {
			s.log.WithError(err).Error("store posted frame")
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) respondReadings(c *gin.Context, readings []humiture.Reading, err error) {
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": readings,
		"meta": gin.H{"count": len(readings)},
	})
}

// limitParam parses ?limit=; the store clamps the value.
func limitParam(c *gin.Context) (int, bool) {
	v := c.Query("limit")
	if v == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(v)
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit parameter"})
		return 0, false
	}
	return limit, true
}

// parseDeviceID accepts the 16-digit hex form, with or without 0x.
func parseDeviceID(v string) (uint64, error) {
	v = strings.TrimPrefix(strings.TrimPrefix(v, "0x"), "0X")
	return strconv.ParseUint(v, 16, 64)
}
