package handlers

import (
	"net/http"

	"chefly/utils"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports the last health snapshot taken by the monitor.
func HealthHandler(c *gin.Context) {
	status := utils.GetHealthStatus()

	code := http.StatusOK
	if !status.Mongo {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}
