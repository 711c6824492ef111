package middleware

import (
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/cstockton/go-conv"
	"github.com/golang-jwt/jwt/v4"

	"github.com/labstack/echo/v4"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// BindAndValidate bind request context and validate request struct.
// Bind includes request body, params, query, headers and jwt claims, later
// sources overriding earlier ones.
// Validate request struct, response bad request with error message if the request is invalid.
func BindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return err
	}

	if err := bindHeader(c.Request().Header, req); err != nil {
		return err
	}

	if err := bindStandardJwt(c, req); err != nil {
		return err
	}

	if err := bindRegisteredJwt(c, req); err != nil {
		return err
	}

	if err := c.Validate(req); err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}

	return nil
}

func extractJwtToken(c echo.Context) (*jwt.Token, error) {
	data := c.Get("user")
	if data == nil {
		return nil, nil
	}

	token, ok := data.(*jwt.Token)
	if !ok {
		return nil, fmt.Errorf("cannot cast jwt token: %#v", data)
	}

	return token, nil
}

func extractJwtStandardClaims(token *jwt.Token) (*jwt.StandardClaims, error) {
	claims, ok := token.Claims.(*jwt.StandardClaims)
	if !ok {
		return nil, fmt.Errorf("cannot cast jwt standard claims: %+v", token.Claims)
	}

	return claims, nil
}

func extractJwtRegisteredClaims(token *jwt.Token) (*jwt.RegisteredClaims, error) {
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return nil, fmt.Errorf("cannot cast jwt registered claims: %+v", token.Claims)
	}

	return claims, nil
}

// GetSubject returns the subject of the verified token, if any.
func GetSubject(c echo.Context) string {
	token, _ := extractJwtToken(c)
	if token == nil {
		return ""
	}

	standard, _ := extractJwtStandardClaims(token)
	if standard != nil {
		return standard.Subject
	}

	registered, _ := extractJwtRegisteredClaims(token)
	if registered != nil {
		return registered.Subject
	}

	return ""
}

func unixOrNil(d *jwt.NumericDate) any {
	if d == nil {
		return nil
	}
	return d.Unix()
}

// bindStandardJwt use standard jwt claims to decode jwt to struct by tag `jwt:"payloadField"`
func bindStandardJwt(c echo.Context, dst any) error {
	token, _ := extractJwtToken(c)
	if token == nil {
		return nil
	}

	claims, _ := extractJwtStandardClaims(token)
	if claims == nil {
		return nil
	}

	getValueFn := func(tagValue string) (any, error) {
		var value any
		switch tagValue {
		case "sub":
			value = claims.Subject
		case "iss":
			value = claims.Issuer
		case "aud":
			value = claims.Audience
		case "jti":
			value = claims.Id
		case "exp":
			value = claims.ExpiresAt
		case "iat":
			value = claims.IssuedAt
		case "nbf":
			value = claims.NotBefore
		default:
			return nil, fmt.Errorf("binding jwt field %s is not supported", tagValue)
		}
		return value, nil
	}

	return bindStruct(dst, "jwt", getValueFn)
}

// bindRegisteredJwt use registered jwt claims to decode jwt to struct by tag `jwt:"payloadField"`
func bindRegisteredJwt(c echo.Context, dst any) error {
	token, _ := extractJwtToken(c)
	if token == nil {
		return nil
	}

	claims, _ := extractJwtRegisteredClaims(token)
	if claims == nil {
		return nil
	}

	getValueFn := func(tagValue string) (any, error) {
		var value any
		switch tagValue {
		case "sub":
			value = claims.Subject
		case "iss":
			value = claims.Issuer
		case "aud":
			value = strings.Join(claims.Audience, ";")
		case "jti":
			value = claims.ID
		case "exp":
			value = unixOrNil(claims.ExpiresAt)
		case "iat":
			value = unixOrNil(claims.IssuedAt)
		case "nbf":
			value = unixOrNil(claims.NotBefore)
		default:
			return nil, fmt.Errorf("binding jwt field %s is not supported", tagValue)
		}
		return value, nil
	}

	return bindStruct(dst, "jwt", getValueFn)
}

// bindHeader decode http header to struct by tag `header:"<header_name>"`.
// Absent headers leave the field untouched.
// out must be a pointer to a struct
func bindHeader(header http.Header, dst any) error {
	getValueFn := func(tagValue string) (any, error) {
		v := header.Get(tagValue)
		if v == "" {
			return nil, nil
		}
		return v, nil
	}

	return bindStruct(dst, "header", getValueFn)
}

// bindStruct decode to struct by custom tag `tagName:"tagValue"`, descending
// into embedded structs. A nil value from getValueFn skips the field.
// dst must be a pointer to a struct
func bindStruct(dst any, tagName string, getValueFn func(tagValue string) (any, error)) error {
	ptr := reflect.ValueOf(dst)
	if ptr.Kind() != reflect.Ptr {
		return fmt.Errorf("non-pointer passed to Unmarshal")
	}
	return bindFields(reflect.Indirect(ptr), tagName, getValueFn)
}

func bindFields(indirect reflect.Value, tagName string, getValueFn func(tagValue string) (any, error)) error {
	structType := indirect.Type()
	for i := 0; i < structType.NumField(); i++ {
		structField := structType.Field(i)
		field := indirect.Field(i)
		if structField.Anonymous && field.Kind() == reflect.Struct {
			if err := bindFields(field, tagName, getValueFn); err != nil {
				return err
			}
			continue
		}

		tagValue := structField.Tag.Get(tagName)
		if tagValue == "-" || tagValue == "" || !field.CanSet() {
			continue
		}

		value, err := getValueFn(tagValue)
		if err != nil {
			return err
		}
		if value == nil || value == "" {
			continue
		}
		if err := conv.Infer(field, value); err != nil {
			return fmt.Errorf("cannot parse %s.%s as %s from: %#v / %s",
				structType.Name(), structField.Name, field.Type(), value, err)
		}
	}

	return nil
}
