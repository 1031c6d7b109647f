package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"shopora/middleware"
	"shopora/utils"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// validate is shared across handlers; struct tags declare each operation's
// input contract, checked once at the boundary.
var validate = validator.New()

// decodeBody parses and validates a JSON request body into dst.
func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return utils.BadRequest("Invalid request body")
	}
	return validateStruct(dst)
}

// decodeOptionalBody is decodeBody for endpoints whose body may be empty.
// An empty body leaves dst at its zero value; the content length is not
// consulted, so chunked requests still get decoded.
func decodeOptionalBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return utils.BadRequest("Invalid request body")
	}
	return validateStruct(dst)
}

func validateStruct(dst any) error {
	if err := validate.Struct(dst); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			return &utils.APIError{
				Status:  http.StatusBadRequest,
				Message: verrs[0].Field() + " is missing or invalid",
				Context: verrs.Error(),
			}
		}
		return utils.BadRequest("Invalid request body")
	}
	return nil
}

// authedUser returns the authenticated user's object id from the request.
func authedUser(r *http.Request) (primitive.ObjectID, *utils.Claims, error) {
	claims, ok := middleware.ClaimsFrom(r)
	if !ok {
		return primitive.NilObjectID, nil, utils.Unauthorized("Unauthorized")
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return primitive.NilObjectID, nil, utils.Unauthorized("Unauthorized")
	}
	return userID, claims, nil
}
