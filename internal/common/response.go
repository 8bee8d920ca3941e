package common

import "github.com/gin-gonic/gin"

// OK writes data as the response body with the given status.
func OK(c *gin.Context, status int, data any) {
	c.JSON(status, data)
}

// Fail writes the error envelope the front end reads: `detail` is shown to the user,
// `code` is for logs and support.
func Fail(c *gin.Context, httpStatus int, code int, detail string) {
	c.AbortWithStatusJSON(httpStatus, gin.H{
		"detail": detail,
		"code":   code,
	})
}

// ChatFail is the /api/chat variant; the client renders `error` as a bot message.
func ChatFail(c *gin.Context, httpStatus int, msg string) {
	c.AbortWithStatusJSON(httpStatus, gin.H{
		"error": msg,
	})
}
