package service

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gitlab.com/dirk.krummacker/contacts-api/internal/model"
	"gitlab.com/dirk.krummacker/contacts-api/internal/store"
	"gitlab.com/dirk.krummacker/contacts-api/internal/validation"
)

// parseId returns the id parameter of the request URL. Ids that the store could never have
// assigned are answered with the NOT FOUND status code right away.
func parseId(c *gin.Context) (id string, success bool) {
	id = c.Param("id")
	if !store.ValidId(id) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "contact not found"})
		return "", false
	}
	return id, true
}

// parsePageAndLimit inspects the URL parameters and determines the requested page of the result
// set.
func parsePageAndLimit(c *gin.Context, defaultLimit int) (page model.Page, success bool) {
	pageNumber := 1
	if value := c.Query("page"); value != "" {
		number, errConv := strconv.Atoi(value)
		if errConv != nil || number < 1 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid page parameter"})
			return model.Page{}, false
		}
		pageNumber = number
	}
	limit := defaultLimit
	if value := c.Query("limit"); value != "" {
		number, errConv := strconv.Atoi(value)
		if errConv != nil || number < 1 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid limit parameter"})
			return model.Page{}, false
		}
		limit = number
	}
	if model.PageOverflows(pageNumber, limit) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid page parameter"})
		return model.Page{}, false
	}
	return model.NewPage(pageNumber, limit), true
}

// parseFavorite inspects the URL parameter 'favorite'. A nil result means no filtering.
func parseFavorite(c *gin.Context) (favorite *bool, success bool) {
	switch c.Query("favorite") {
	case "":
		return nil, true
	case "true":
		value := true
		return &value, true
	case "false":
		value := false
		return &value, true
	default:
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid favorite parameter"})
		return nil, false
	}
}

// filterFor builds the list filter for an owner.
func filterFor(owner string, favorite *bool) model.Filter {
	return model.Filter{Owner: owner, Favorite: favorite}
}

// bindJSON decodes the request body into obj. Problems with the body are reported as validation
// errors.
func bindJSON(c *gin.Context, obj any) error {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return nil
	}
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		return validation.Errorf("missing body")
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return validation.Errorf("%s must be of type %s", typeErr.Field, typeErr.Type)
	default:
		return validation.Errorf("invalid JSON")
	}
}
