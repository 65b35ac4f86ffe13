package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gobancho-project/gobancho/internal/util"
)

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "gobancho",
	})
}

// handleServerInfo returns basic server information.
func (s *Server) handleServerInfo(c *gin.Context) {
	sysInfo := util.GetSystemInfo()

	c.JSON(http.StatusOK, gin.H{
		"server_name":      s.cfg.Bancho.ServerName,
		"protocol_version": s.cfg.Bancho.ProtocolVersion,
		"online":           s.registry.Count(),
		"uptime_sec":       int64(time.Since(s.started).Seconds()),
		"hostname":         sysInfo.Hostname,
		"os":               sysInfo.OS,
		"cpu_model":        sysInfo.CPUModel,
		"cpu_cores":        sysInfo.CPUCores,
		"total_memory_mb":  sysInfo.TotalMemory,
	})
}

type onlinePlayer struct {
	ID       int32  `json:"id"`
	Username string `json:"username"`
	Action   uint8  `json:"action"`
	Mode     uint8  `json:"mode"`
}

// handleOnline returns the list of connected, non-restricted players.
func (s *Server) handleOnline(c *gin.Context) {
	sessions := s.registry.Snapshot()

	players := make([]onlinePlayer, 0, len(sessions))
	for _, sess := range sessions {
		if sess.Restricted() {
			continue
		}
		status := sess.Status()
		players = append(players, onlinePlayer{
			ID:       sess.ID,
			Username: sess.Username(),
			Action:   uint8(status.Action),
			Mode:     uint8(status.Mode),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"count":   len(players),
		"players": players,
	})
}

// handleCPUUsage returns the current CPU usage percentage.
func (s *Server) handleCPUUsage(c *gin.Context) {
	usage, err := util.GetCPUUsage()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read CPU usage"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cpu_percent": usage})
}

// handleMemoryUsage returns current system memory usage.
func (s *Server) handleMemoryUsage(c *gin.Context) {
	usage, err := util.GetMemoryUsage()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read memory usage"})
		return
	}
	c.JSON(http.StatusOK, usage)
}
