package intent

import "github.com/gin-gonic/gin"

type IHandler interface {
	Quote(c *gin.Context)
	Deposited(c *gin.Context)
	Get(c *gin.Context)
}
