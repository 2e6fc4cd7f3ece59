package router

import "github.com/gin-gonic/gin"

// Module is one feature area of the account API (auth, account). Each
// module registers its own routes and middleware on the /api group.
type Module interface {
	Register(rg *gin.RouterGroup)
}
