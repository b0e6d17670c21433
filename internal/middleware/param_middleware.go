package middleware

import (
	"net/http"
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
)

// ParticipantIDKey — ключ контекста Gin, под которым сохраняется идентификатор участника
const ParticipantIDKey = "participantID"

const maxParticipantIDLen = 128

// ExtractParticipantID создает middleware для извлечения и валидации идентификатора участника.
// Идентификатор строится из имени, поэтому допускается любой печатный текст без пробелов.
func ExtractParticipantID(paramName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param(paramName)
		if !validParticipantID(id) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid participant id"})
			return
		}
		c.Set(ParticipantIDKey, id)
		c.Next()
	}
}

func validParticipantID(id string) bool {
	if id == "" || len(id) > maxParticipantIDLen || !utf8.ValidString(id) {
		return false
	}
	for _, r := range id {
		if unicode.IsSpace(r) || !unicode.IsPrint(r) || r == '/' {
			return false
		}
	}
	return true
}
