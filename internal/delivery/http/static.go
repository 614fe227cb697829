package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// StaticFileHandler serves files from dir for any path without an API
// route. MIME types are inferred by net/http.
func StaticFileHandler(dir string) gin.HandlerFunc {
	fileServer := http.FileServer(http.Dir(dir))

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		fileServer.ServeHTTP(c.Writer, c.Request)
	}
}
