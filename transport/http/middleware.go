package http

import (
	"strings"

	"github.com/certlayer/certlayer/core"
	"github.com/gin-gonic/gin"
)

const (
	// InternalKeyHeader carries the pre-shared internal service key.
	InternalKeyHeader = "x-api-key"

	credentialKey = "credential"
)

// CredentialMiddleware extracts the request's optional credentials once.
// It never aborts: which credential, if any, grants access is decided
// per-operation by the authorization engine.
func CredentialMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cred := core.Credential{
			InternalKey: c.GetHeader(InternalKeyHeader),
		}

		auth := c.GetHeader("Authorization")
		if strings.HasPrefix(auth, "Bearer ") {
			cred.SessionToken = strings.TrimPrefix(auth, "Bearer ")
		}

		c.Set(credentialKey, cred)
		c.Next()
	}
}

func credentialFrom(c *gin.Context) core.Credential {
	if v, ok := c.Get(credentialKey); ok {
		if cred, ok := v.(core.Credential); ok {
			return cred
		}
	}
	return core.Credential{}
}
