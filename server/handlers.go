package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"github.com/compozy/overlay/pkg/config"
	"github.com/compozy/overlay/pkg/debugcmd"
	"github.com/compozy/overlay/pkg/version"
)

const (
	codeBadRequest = "BAD_REQUEST"
	codeForbidden  = "FORBIDDEN"
	codeNotFound   = "NOT_FOUND"
	codeInternal   = "INTERNAL_ERROR"
)

type commandRequest struct {
	Command string `json:"command" binding:"required"`
}

// respondProblem writes an RFC 7807 style error body.
func respondProblem(c *gin.Context, status int, code, detail string) {
	c.Header("Content-Type", "application/problem+json")
	c.AbortWithStatusJSON(status, gin.H{
		"status": status,
		"title":  http.StatusText(status),
		"detail": detail,
		"code":   code,
	})
}

func respondData(c *gin.Context, status int, data any, message string) {
	c.JSON(status, gin.H{
		"data":    data,
		"message": message,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	respondData(c, http.StatusOK, gin.H{
		"status":           "healthy",
		"version":          version.Get().Version,
		"overrides_active": !s.handler.Store().IsEmpty(),
	}, "Success")
}

func (s *Server) handleListOverrides(c *gin.Context) {
	respondData(c, http.StatusOK, s.handler.Store().All(), "Success")
}

func (s *Server) handleResetOverrides(c *gin.Context) {
	if !s.commandsEnabled() {
		respondProblem(c, http.StatusForbidden, codeForbidden, "debug commands are disabled")
		return
	}
	reply := s.handler.Execute(c.Request.Context(), debugcmd.Command{Action: debugcmd.ActionReset})
	respondData(c, http.StatusOK, reply, reply.Message)
}

func (s *Server) handleCommand(c *gin.Context) {
	if !s.commandsEnabled() {
		respondProblem(c, http.StatusForbidden, codeForbidden, "debug commands are disabled")
		return
	}
	var req commandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondProblem(c, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}
	reply, ok := s.handler.Handle(c.Request.Context(), req.Command)
	if !ok {
		respondProblem(c, http.StatusBadRequest, codeBadRequest, "not a "+debugcmd.Token+" command")
		return
	}
	status := http.StatusOK
	if !reply.OK {
		status = http.StatusBadRequest
	}
	respondData(c, status, reply, reply.Message)
}

// commandsEnabled reads the gate from the base configuration so an override
// cannot turn the command surface on.
func (s *Server) commandsEnabled() bool {
	if base := s.manager.Get(); base != nil {
		return base.Debug.CommandsEnabled
	}
	return s.cfg.Debug.CommandsEnabled
}

func (s *Server) handleConfig(c *gin.Context) {
	effective := config.RedactedMap(s.manager.EffectiveMap())
	path := strings.TrimSpace(c.Query("path"))
	if path == "" {
		respondData(c, http.StatusOK, effective, "Success")
		return
	}
	data, err := json.Marshal(effective)
	if err != nil {
		respondProblem(c, http.StatusInternalServerError, codeInternal, err.Error())
		return
	}
	result := gjson.GetBytes(data, path)
	if !result.Exists() {
		respondProblem(c, http.StatusNotFound, codeNotFound, "no configuration at "+path)
		return
	}
	respondData(c, http.StatusOK, json.RawMessage(result.Raw), "Success")
}
