package middleware

import (
	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
)

// LangWithTranslator picks the validation message translator for the
// request locale and stores it under "trans" for BindAndValid.
func LangWithTranslator(uni *ut.UniversalTranslator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if uni != nil {
			locale := c.GetHeader("locale")
			trans, found := uni.GetTranslator(locale)
			if !found {
				trans, _ = uni.GetTranslator("en")
			}
			c.Set("trans", trans)
		}
		c.Next()
	}
}
