package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const DeviceKeyHeader = "X-Device-Key"

func HashDeviceKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

func CheckDeviceKey(hash, key string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil
}

// GinDeviceKeyMiddleware guards device-only routes. An empty hash disables the check.
func GinDeviceKeyMiddleware(hash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if hash == "" {
			c.Next()
			return
		}

		key := c.GetHeader(DeviceKeyHeader)

		if key == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"errors": []string{"Unauthorized request"},
			})

			c.Abort()
			return
		}

		if !CheckDeviceKey(hash, key) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"errors": []string{"Unauthorized request", "invalid device key"},
			})

			c.Abort()
			return
		}

		c.Next()
	}
}
