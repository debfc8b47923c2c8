package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "fmt"
    "net/http" // HTTP status codes for responses
    "strconv"
    "strings" // string utilities for prefix checking and trimming

    "github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens
    "github.com/labstack/echo/v4"  // Echo framework used for defining middleware and handlers
)

// Roles carried in the token's "role" claim.
const (
    RoleAdmin    = "ADMIN"
    RoleCustomer = "CUSTOMER"
)

// Context keys set by JWTAuth.
const (
    CtxUserID = "user_id"
    CtxRole   = "role"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// injects the token's subject and role claims into the request context.
// Tokens are issued by the identity service; this service only verifies
// them with the shared HS256 secret.  Handlers read the caller through
// c.Get(CtxUserID) (a uint64) and c.Get(CtxRole) (a string).
func JWTAuth(secret string) echo.MiddlewareFunc {
    parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
    keyFunc := func(*jwt.Token) (interface{}, error) { return []byte(secret), nil }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            claims := jwt.MapClaims{}
            tok, err := parser.ParseWithClaims(raw, claims, keyFunc)
            if err != nil || !tok.Valid {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }

            uid, err := subjectID(claims)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
            }
            role, _ := claims["role"].(string)

            c.Set(CtxUserID, uid)
            c.Set(CtxRole, role)
            return next(c)
        }
    }
}

// subjectID reads the numeric user id from "sub".  Issuers differ on
// whether they encode it as a string or a JSON number.
func subjectID(claims jwt.MapClaims) (uint64, error) {
    switch v := claims["sub"].(type) {
    case string:
        return strconv.ParseUint(v, 10, 64)
    case float64:
        if v < 1 || v != float64(uint64(v)) {
            return 0, fmt.Errorf("sub %v is not a positive integer", v)
        }
        return uint64(v), nil
    }
    return 0, fmt.Errorf("sub claim missing")
}
